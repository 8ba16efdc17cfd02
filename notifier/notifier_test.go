package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"epk-api-go/contact"
)

func TestNtfyNotifier_Send(t *testing.T) {
	var gotPath, gotTitle, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("Title")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := &NtfyNotifier{Topic: "epk-inbox", Server: server.URL + "/"}
	if err := n.Send(context.Background(), "New message\r\nX-Evil: 1", "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotPath != "/epk-inbox" {
		t.Errorf("Expected path /epk-inbox, got %q", gotPath)
	}
	if strings.ContainsAny(gotTitle, "\r\n") {
		t.Errorf("Expected title without line breaks, got %q", gotTitle)
	}
	if gotBody != "hello" {
		t.Errorf("Expected body 'hello', got %q", gotBody)
	}
}

func TestNtfyNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	n := &NtfyNotifier{Topic: "t", Server: server.URL}
	if err := n.Send(context.Background(), "s", "m"); err == nil {
		t.Error("Expected error for non-200 status")
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var payload map[string]interface{}
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := &TelegramNotifier{BotToken: "123:abc", ChatID: "42", APIBase: server.URL}
	if err := n.Send(context.Background(), "Subject", "Body"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("Unexpected path %q", gotPath)
	}
	if payload["chat_id"] != "42" {
		t.Errorf("Expected chat_id 42, got %v", payload["chat_id"])
	}
	if text, _ := payload["text"].(string); !strings.Contains(text, "Subject") || !strings.Contains(text, "Body") {
		t.Errorf("Expected text to contain subject and body, got %q", text)
	}
}

func TestEmailNotifier_Send(t *testing.T) {
	var gotAddr string
	var gotMsg []byte
	e := &EmailNotifier{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  "587",
		FromEmail: "site@example.com",
		ToEmail:   "owner@example.com",
		sendMail: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr = addr
			gotMsg = msg
			return nil
		},
	}

	if err := e.Send(context.Background(), "Hi\nBcc: victim@example.com", "Body text"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("Unexpected address %q", gotAddr)
	}
	if strings.Contains(string(gotMsg), "\r\nBcc:") || strings.Contains(string(gotMsg), "\nBcc:") {
		t.Errorf("Expected subject line breaks stripped, got %q", gotMsg)
	}
	if !strings.HasSuffix(string(gotMsg), "Body text\r\n") {
		t.Errorf("Expected body at end of message, got %q", gotMsg)
	}
}

func TestEmailNotifier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &EmailNotifier{sendMail: func(string, smtp.Auth, string, []string, []byte) error {
		t.Error("Expected no send on cancelled context")
		return nil
	}}
	if err := e.Send(ctx, "s", "m"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// fakeNotifier records sends and fails when err is set
type fakeNotifier struct {
	name  string
	err   error
	mu    sync.Mutex
	calls int
	last  string
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(_ context.Context, subject, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = subject + "|" + message
	return f.err
}

func (f *fakeNotifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestDispatcher_FansOut(t *testing.T) {
	ok := &fakeNotifier{name: "ntfy"}
	bad := &fakeNotifier{name: "email", err: errors.New("smtp down")}

	var mu sync.Mutex
	results := map[string]error{}
	d := NewDispatcher(DispatcherConfig{
		Notifiers: []Notifier{ok, bad},
		OnResult: func(r Result) {
			mu.Lock()
			results[r.Notifier] = r.Err
			mu.Unlock()
		},
	})

	err := d.Dispatch(context.Background(), "subject", "body")
	if err == nil || !strings.Contains(err.Error(), "email") {
		t.Fatalf("Expected joined error naming email, got %v", err)
	}
	if ok.Calls() != 1 || bad.Calls() != 1 {
		t.Errorf("Expected one call each, got %d and %d", ok.Calls(), bad.Calls())
	}
	if results["ntfy"] != nil || results["email"] == nil {
		t.Errorf("Unexpected results: %v", results)
	}
}

func TestDispatcher_BreakerStopsFailingNotifier(t *testing.T) {
	bad := &fakeNotifier{name: "telegram", err: errors.New("502")}
	d := NewDispatcher(DispatcherConfig{
		Notifiers:        []Notifier{bad},
		BreakerThreshold: 2,
		BreakerCooldown:  time.Hour,
	})

	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), "s", "m")
	}
	if bad.Calls() != 2 {
		t.Errorf("Expected breaker to stop calls after 2 failures, got %d calls", bad.Calls())
	}
	if state := d.States()["telegram"]; state != "OPEN" {
		t.Errorf("Expected telegram breaker OPEN, got %q", state)
	}
}

func TestDispatcher_NotifyContactAsync(t *testing.T) {
	n := &fakeNotifier{name: "ntfy"}
	d := NewDispatcher(DispatcherConfig{Notifiers: []Notifier{n}})

	d.NotifyContact(contact.Message{
		ID:        "abc",
		Name:      "Jane",
		Email:     "jane@example.com",
		Message:   "Love the new single",
		CreatedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	d.Wait()

	if n.Calls() != 1 {
		t.Fatalf("Expected one delivery, got %d", n.Calls())
	}
	if !strings.Contains(n.last, "New message from Jane") || !strings.Contains(n.last, "jane@example.com") {
		t.Errorf("Unexpected delivery %q", n.last)
	}
}

func TestDispatcher_NoNotifiers(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{})
	if d.Len() != 0 {
		t.Errorf("Expected no notifiers, got %d", d.Len())
	}
	d.NotifyContact(contact.Message{Name: "x"})
	d.Wait()
	if err := d.Dispatch(context.Background(), "s", "m"); err != nil {
		t.Errorf("Expected nil error with no notifiers, got %v", err)
	}
}
