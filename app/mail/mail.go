// Package mail is the narrow seam to the outbound email collaborator. The
// core hands over a structured message; rendering and transport stay here.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Content is the structured template the core fills in. It is deliberately
// transport-agnostic: name, intro, one action button, outro.
type Content struct {
	Name         string
	Intro        string
	Instructions string
	ButtonText   string
	ButtonLink   string
	Outro        string
}

type Message struct {
	To      string
	Subject string
	Content Content
}

type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer delivers messages over plain SMTP with optional AUTH.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *SMTPMailer) Send(_ context.Context, msg *Message) error {
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := net.JoinHostPort(m.host, m.port)
	body := render(m.from, msg)
	return smtp.SendMail(addr, auth, m.from, []string{msg.To}, []byte(body))
}

func render(from string, msg *Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	c := msg.Content
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n%s\r\n\r\n", c.Name, c.Intro)
	if c.Instructions != "" {
		fmt.Fprintf(&b, "%s\r\n", c.Instructions)
	}
	if c.ButtonLink != "" {
		fmt.Fprintf(&b, "%s: %s\r\n\r\n", c.ButtonText, c.ButtonLink)
	}
	if c.Outro != "" {
		fmt.Fprintf(&b, "%s\r\n", c.Outro)
	}
	return b.String()
}

// LogMailer writes messages to the log instead of delivering them. Used in
// development when no SMTP host is configured. The action link is the plain
// temporary token carrier, so it is logged at debug only.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(_ context.Context, msg *Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("mail dispatched (log mailer)")
	logrus.WithField("link", msg.Content.ButtonLink).Debug("mail action link")
	return nil
}
