package mail

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	msg := &Message{
		To:      "john@example.com",
		Subject: "Please verify your email",
		Content: Content{
			Name:         "johndoe",
			Intro:        "Welcome to the platform!",
			Instructions: "To verify your email, please click below:",
			ButtonText:   "Verify Email",
			ButtonLink:   "http://localhost:8080/api/v1/auth/verify-email/abc123",
			Outro:        "See you soon.",
		},
	}

	body := render("no-reply@projectcamp.dev", msg)

	for _, want := range []string{
		"From: no-reply@projectcamp.dev\r\n",
		"To: john@example.com\r\n",
		"Subject: Please verify your email\r\n",
		"Hi johndoe,",
		"Welcome to the platform!",
		"Verify Email: http://localhost:8080/api/v1/auth/verify-email/abc123",
		"See you soon.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered mail missing %q:\n%s", want, body)
		}
	}

	// Headers and body are separated by a blank line.
	if !strings.Contains(body, "\r\n\r\nHi johndoe,") {
		t.Error("expected a blank line between headers and body")
	}
}

func TestRenderOmitsEmptySections(t *testing.T) {
	msg := &Message{
		To:      "john@example.com",
		Subject: "Hello",
		Content: Content{
			Name:  "johndoe",
			Intro: "Just a note.",
		},
	}

	body := render("no-reply@projectcamp.dev", msg)
	if strings.Contains(body, ": \r\n") {
		t.Errorf("expected no dangling button line:\n%s", body)
	}
}
