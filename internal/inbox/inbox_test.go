package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yndnr/mobsession-go/internal/core/domain"
)

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"plain", "Use 123456 to verify your account", "123456", true},
		{"spaced", "Your code is 123 456.", "123456", true},
		{"dashed", "code: 987-654", "987654", true},
		{"too short", "code 12345", "", false},
		{"embedded in longer number", "ref 12345678", "", false},
		{"none", "hello", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractCode(tt.text)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ExtractCode(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLatestCode(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		msgs   []Message
		want   string
		wantOK bool
	}{
		{
			name: "newest message wins regardless of order",
			msgs: []Message{
				{Body: "old 111111", ReceivedAt: now.Add(-time.Hour)},
				{Body: "new 222222", ReceivedAt: now},
				{Body: "older 333333", ReceivedAt: now.Add(-time.Minute)},
			},
			want: "222222", wantOK: true,
		},
		{
			name: "code in subject",
			msgs: []Message{{Subject: "444 555 is your code", ReceivedAt: now}},
			want: "444555", wantOK: true,
		},
		{
			name: "newest message without code does not fall back",
			msgs: []Message{
				{Body: "Your code is 111111", ReceivedAt: now.Add(-time.Hour)},
				{Body: "Your verification code is on its way", ReceivedAt: now},
			},
		},
		{name: "no messages"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := latestCode(tt.msgs)
			if code != tt.want || ok != tt.wantOK {
				t.Errorf("latestCode() = %q, %v; want %q, %v", code, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	if _, err := newHTTPClient(Config{}); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("empty base url error = %v, want ErrMissingArgument", err)
	}
	c, err := newHTTPClient(Config{BaseURL: "sms.local:8080/"})
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL != "http://sms.local:8080" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}

func TestPhonePool(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/numbers":
			_ = json.NewEncoder(w).Encode(map[string]any{"numbers": []string{"+15550001", "+15550002"}})
		case "/numbers/+15550001/messages":
			_ = json.NewEncoder(w).Encode(map[string]any{"messages": []Message{
				{From: "Instagram", Body: "123 456 is your code", ReceivedAt: time.Now()},
			}})
		case "/numbers/+15550002/messages":
			_ = json.NewEncoder(w).Encode(map[string]any{"messages": []Message{}})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"unknown number"}`))
		}
	}))
	defer srv.Close()

	pool, err := NewPhonePool(Config{BaseURL: srv.URL, Token: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	phones, err := pool.GetPhones(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(phones) != 2 {
		t.Errorf("GetPhones() = %v", phones)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}

	code, err := pool.GetLastVerificationCode(ctx, "+15550001")
	if err != nil {
		t.Fatal(err)
	}
	if code != "123456" {
		t.Errorf("code = %q, want 123456", code)
	}

	if _, err := pool.GetLastVerificationCode(ctx, "+15550002"); !errors.Is(err, domain.ErrVerificationCodeNotFound) {
		t.Errorf("empty inbox error = %v, want ErrVerificationCodeNotFound", err)
	}
	if _, err := pool.GetLastVerificationCode(ctx, "+19999999"); !errors.Is(err, domain.ErrVerificationCodeNotFound) {
		t.Errorf("unknown number error = %v, want ErrVerificationCodeNotFound", err)
	}
	if _, err := pool.GetLastVerificationCode(ctx, ""); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("empty number error = %v, want ErrMissingArgument", err)
	}
}

func TestPhonePool_GatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	pool, err := NewPhonePool(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.GetPhones(context.Background()); !errors.Is(err, domain.ErrSideChannelUnavailable) {
		t.Errorf("error = %v, want ErrSideChannelUnavailable", err)
	}

	srv.Close()
	if _, err := pool.GetPhones(context.Background()); !errors.Is(err, domain.ErrSideChannelUnavailable) {
		t.Errorf("closed gateway error = %v, want ErrSideChannelUnavailable", err)
	}
}

func TestMailbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice@example.com" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/mailboxes/alice@example.com/messages" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []Message{
			{Subject: "Verify your account", Body: "Enter 654321", ReceivedAt: time.Now()},
		}})
	}))
	defer srv.Close()

	factory := MailboxFactory(Config{BaseURL: srv.URL})
	box, err := factory("alice@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	code, err := box.GetLastVerificationCode(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if code != "654321" {
		t.Errorf("code = %q, want 654321", code)
	}

	bad, err := factory("alice@example.com", "wrong")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bad.GetLastVerificationCode(context.Background()); !errors.Is(err, domain.ErrSideChannelUnavailable) {
		t.Errorf("unauthorized error = %v, want ErrSideChannelUnavailable", err)
	}

	if _, err := factory("", "pw"); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("empty address error = %v, want ErrMissingArgument", err)
	}
}

func TestPhonePool_NotFoundMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no such route"}`))
	}))
	defer srv.Close()

	pool, err := NewPhonePool(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// A gateway without a numbers endpoint is misconfigured, not empty.
	if _, err := pool.GetPhones(ctx); !errors.Is(err, domain.ErrSideChannelUnavailable) {
		t.Errorf("GetPhones() error = %v, want ErrSideChannelUnavailable", err)
	}
	if _, err := pool.GetLastVerificationCode(ctx, "+15550001"); !errors.Is(err, domain.ErrVerificationCodeNotFound) {
		t.Errorf("GetLastVerificationCode() error = %v, want ErrVerificationCodeNotFound", err)
	}
}

func TestMailbox_NewestWithoutCode(t *testing.T) {
	now := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []Message{
			{Body: "Your code is 111111", ReceivedAt: now.Add(-time.Hour)},
			{Body: "Your verification code is on its way", ReceivedAt: now},
		}})
	}))
	defer srv.Close()

	box, err := NewMailbox(Config{BaseURL: srv.URL}, "alice@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if code, err := box.GetLastVerificationCode(context.Background()); !errors.Is(err, domain.ErrVerificationCodeNotFound) {
		t.Errorf("GetLastVerificationCode() = %q, %v; want ErrVerificationCodeNotFound", code, err)
	}
}
