package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPSender_Success(t *testing.T) {
	var got sendRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer ts.Close()

	s := NewHTTPSender(SenderConfig{URL: ts.URL, Token: "secret", Channel: "sms"})

	err := s.Send(context.Background(), "+5511999990000", "Pague R$ 150,00", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if got.Channel != "sms" || got.Recipient != "+5511999990000" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
}

func TestHTTPSender_ProviderRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid number"}`))
	}))
	defer ts.Close()

	s := NewHTTPSender(SenderConfig{URL: ts.URL, Channel: "whatsapp"})

	err := s.Send(context.Background(), "bad", "msg", "")
	if err == nil {
		t.Fatal("expected error on success=false")
	}
	if !strings.Contains(err.Error(), "invalid number") {
		t.Fatalf("provider error should surface, got %v", err)
	}
}

func TestHTTPSender_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	s := NewHTTPSender(SenderConfig{URL: ts.URL, Channel: "email"})

	if err := s.Send(context.Background(), "a@b.c", "msg", "subject"); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestHTTPSender_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	s := NewHTTPSender(SenderConfig{URL: ts.URL, Channel: "sms"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Send(ctx, "x", "msg", ""); err == nil {
		t.Fatal("expected error when context is already cancelled")
	}
}
