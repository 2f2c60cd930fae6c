package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testAlert() *Alert {
	return &Alert{
		ID:        "alert-1",
		Label:     "2024-03-05 09.15.02",
		StartedAt: time.Date(2024, 3, 5, 9, 15, 2, 0, time.UTC),
		Business:  42.5,
		Mean:      10,
		StdDev:    3,
		Threshold: 18.5,
	}
}

func TestWebhookNotifier_Notify_Success(t *testing.T) {
	var received webhookPayload
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(WebhookConfig{URL: srv.URL})
	if err := notifier.Notify(context.Background(), testAlert(), "triggered"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received.EventType != "triggered" {
		t.Errorf("event_type = %q, want %q", received.EventType, "triggered")
	}
	if received.Alert.ID != "alert-1" {
		t.Errorf("alert.id = %q, want %q", received.Alert.ID, "alert-1")
	}
	if received.Alert.Label != "2024-03-05 09.15.02" {
		t.Errorf("alert.label = %q, want interval label", received.Alert.Label)
	}
	if headers.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", headers.Get("Content-Type"))
	}
}

func TestWebhookNotifier_Notify_HMACSignature(t *testing.T) {
	secret := "test-secret-key"
	var receivedSig string
	var receivedBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSig = r.Header.Get("X-Signature")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(WebhookConfig{URL: srv.URL, Secret: secret})
	if err := notifier.Notify(context.Background(), testAlert(), "triggered"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(receivedBody)
	want := hex.EncodeToString(mac.Sum(nil))
	if receivedSig != want {
		t.Errorf("X-Signature = %q, want %q", receivedSig, want)
	}
}

func TestWebhookNotifier_Notify_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(WebhookConfig{URL: srv.URL})
	if err := notifier.Notify(context.Background(), testAlert(), "triggered"); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestWebhookNotifier_CustomHeaders(t *testing.T) {
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(WebhookConfig{
		URL:     srv.URL,
		Headers: map[string]string{"X-Custom": "value"},
	})
	if err := notifier.Notify(context.Background(), testAlert(), "triggered"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers.Get("X-Custom") != "value" {
		t.Errorf("X-Custom = %q, want %q", headers.Get("X-Custom"), "value")
	}
}
