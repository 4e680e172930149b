//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

const defaultHTTPBase = "http://localhost:8080"

type envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient() *httpClient {
	base := os.Getenv("PROJECTS_HTTP_URL")
	if base == "" {
		base = defaultHTTPBase
	}
	return &httpClient{
		baseURL: base,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *httpClient) do(t *testing.T, method, path string, body any) (*http.Response, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	env := &envelope{}
	if len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, env); err != nil {
			t.Fatalf("decode envelope failed for %s %s: %v (body: %s)", method, path, err, bodyBytes)
		}
	}
	return resp, env
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/v1/auth/login", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

// TestProjectsE2E_AuthFlow exercises the unauthenticated auth surface
// against a running server. Flows that require clicking a mailed link are
// covered by the service-level tests instead.
func TestProjectsE2E_AuthFlow(t *testing.T) {
	httpBase := os.Getenv("PROJECTS_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultHTTPBase
	}
	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	client := newHTTPClient()

	email := fmt.Sprintf("e2e+%d@example.com", time.Now().UnixNano())
	username := fmt.Sprintf("e2e%d", time.Now().UnixNano())
	password := "StrongPass1!"

	t.Run("register", func(t *testing.T) {
		resp, env := client.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"email":     email,
			"username":  username,
			"password":  password,
			"full_name": "E2E Tester",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", resp.StatusCode, env.Message)
		}
		if !env.Success {
			t.Errorf("expected success envelope, got %+v", env)
		}
	})

	t.Run("register duplicate", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"email":    email,
			"username": username,
			"password": password,
		})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("login before verification", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"email":    email,
			"password": password,
		})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("login wrong password", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
			"email":    email,
			"password": "WrongPass1!",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("forgot password answers uniformly", func(t *testing.T) {
		var messages [2]string
		for i, addr := range []string{email, "definitely-unknown@example.com"} {
			resp, env := client.do(t, http.MethodPost, "/api/v1/auth/forgot-password", map[string]string{
				"email": addr,
			})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200 for %s, got %d", addr, resp.StatusCode)
			}
			messages[i] = env.Message
		}
		if messages[0] != messages[1] {
			t.Errorf("expected identical answers, got %q vs %q", messages[0], messages[1])
		}
	})

	t.Run("refresh without token", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodPost, "/api/v1/auth/refresh-token", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("verify email with bogus token", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/api/v1/auth/verify-email/bogus", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("projects require auth", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/projects",
			"/api/v1/auth/current-user",
		} {
			resp, _ := client.do(t, http.MethodGet, path, nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401 for %s, got %d", path, resp.StatusCode)
			}
		}
	})
}
