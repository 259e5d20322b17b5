package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendInvite(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://hearth.test", WithAPIURL(server.URL))

	err := client.SendInvite("alice@example.com", "abc123", "The Darbys", "Bob")
	if err != nil {
		t.Fatalf("send invite: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if !strings.Contains(received.Subject, "The Darbys") {
		t.Errorf("Subject = %q, want team name mentioned", received.Subject)
	}
	if !strings.Contains(received.TextBody, "https://hearth.test/invite?token=abc123") {
		t.Errorf("TextBody missing invite link: %q", received.TextBody)
	}
}

func TestSendInviteNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com", "https://hearth.test")

	if client.Configured() {
		t.Error("client with empty token should not be configured")
	}
	if err := client.SendInvite("alice@example.com", "tok", "Team", "Bob"); err == nil {
		t.Error("expected error sending without server token")
	}
}

func TestSendInviteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"ErrorCode": 300}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://hearth.test", WithAPIURL(server.URL))

	if err := client.SendInvite("alice@example.com", "tok", "Team", "Bob"); err == nil {
		t.Error("expected error on API failure status")
	}
}
