package receipt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"secretlink/internal/domain"
)

type recordedRequest struct {
	path    string
	headers http.Header
	body    string
}

func newRecordingServer(t *testing.T, status int) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.path = r.URL.Path
		rec.headers = r.Header.Clone()
		rec.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestDispatch_Webhook(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK)

	d := NewHTTPDispatcher(Config{WebhookBaseURL: srv.URL}, zap.NewNop())

	err := d.Dispatch(context.Background(), Receipt{
		Channel: domain.ReceiptChannelWebhook,
		Target:  "my-topic",
		Alias:   "some-alias",
		Locale:  "en",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if rec.path != "/my-topic" {
		t.Errorf("path = %q, want /my-topic", rec.path)
	}
	if got := rec.headers.Get("Title"); got != "Secret has been viewed" {
		t.Errorf("Title header = %q", got)
	}
	if got := rec.headers.Get("Priority"); got != "urgent" {
		t.Errorf("Priority header = %q", got)
	}
	if got := rec.headers.Get("Tags"); got != "fire" {
		t.Errorf("Tags header = %q", got)
	}
	if !strings.Contains(rec.body, "some-alias") {
		t.Errorf("body %q does not mention the alias", rec.body)
	}
}

func TestDispatch_WebhookLocalizedTemplate(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK)

	d := NewHTTPDispatcher(Config{WebhookBaseURL: srv.URL}, zap.NewNop())

	err := d.Dispatch(context.Background(), Receipt{
		Channel: domain.ReceiptChannelWebhook,
		Target:  "my-topic",
		Alias:   "some-alias",
		Locale:  "de",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got := rec.headers.Get("Title"); got != "Geheimnis zerstört" {
		t.Errorf("Title header = %q", got)
	}
}

func TestDispatch_UnknownLocaleFallsBackToEnglish(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK)

	d := NewHTTPDispatcher(Config{WebhookBaseURL: srv.URL}, zap.NewNop())

	err := d.Dispatch(context.Background(), Receipt{
		Channel: domain.ReceiptChannelWebhook,
		Target:  "my-topic",
		Alias:   "some-alias",
		Locale:  "xx",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got := rec.headers.Get("Title"); got != "Secret has been viewed" {
		t.Errorf("Title header = %q", got)
	}
}

func TestDispatch_Email(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK)

	d := NewHTTPDispatcher(Config{
		EmailEndpoint: srv.URL,
		APIKey:        "key-123",
	}, zap.NewNop())

	err := d.Dispatch(context.Background(), Receipt{
		Channel: domain.ReceiptChannelEmail,
		Target:  "a@example.com",
		Alias:   "some-alias",
		Locale:  "en",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got := rec.headers.Get("X-API-KEY"); got != "key-123" {
		t.Errorf("X-API-KEY header = %q", got)
	}
	if got := rec.headers.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type header = %q", got)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(rec.body), &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload["to"] != "a@example.com" {
		t.Errorf("to = %q", payload["to"])
	}
	if payload["subject"] != "Secret has been viewed" {
		t.Errorf("subject = %q", payload["subject"])
	}
	if !strings.Contains(payload["text"], "some-alias") {
		t.Errorf("text %q does not mention the alias", payload["text"])
	}
}

func TestDispatch_SMS(t *testing.T) {
	srv, rec := newRecordingServer(t, http.StatusOK)

	d := NewHTTPDispatcher(Config{SMSEndpoint: srv.URL}, zap.NewNop())

	err := d.Dispatch(context.Background(), Receipt{
		Channel: domain.ReceiptChannelSMS,
		Target:  "41790000000",
		Alias:   "some-alias",
		Locale:  "en",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(rec.body), &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload["to"] != "+41790000000" {
		t.Errorf("to = %q, want +41790000000", payload["to"])
	}
}

func TestDispatch_ProviderErrorIsReturned(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusBadGateway)

	d := NewHTTPDispatcher(Config{WebhookBaseURL: srv.URL}, zap.NewNop())

	err := d.Dispatch(context.Background(), Receipt{
		Channel: domain.ReceiptChannelWebhook,
		Target:  "my-topic",
		Alias:   "some-alias",
	})
	if err == nil {
		t.Error("expected an error from a 502 response")
	}
}

func TestDispatch_UnknownChannel(t *testing.T) {
	d := NewHTTPDispatcher(Config{}, zap.NewNop())

	err := d.Dispatch(context.Background(), Receipt{Channel: "pigeon"})
	if err == nil {
		t.Error("expected an error for an unknown channel")
	}
}

func TestDispatch_UnconfiguredChannel(t *testing.T) {
	d := NewHTTPDispatcher(Config{}, zap.NewNop())

	err := d.Dispatch(context.Background(), Receipt{
		Channel: domain.ReceiptChannelEmail,
		Target:  "a@example.com",
	})
	if err == nil {
		t.Error("expected an error when the email endpoint is not configured")
	}
}
