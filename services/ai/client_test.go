package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-model",
		Timeout: 2 * time.Second,
	})
}

func TestCompleteChoicesShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Photosynthesis converts light into chemical energy."}}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	answer, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "What is photosynthesis?"}}, Params{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if answer != "Photosynthesis converts light into chemical energy." {
		t.Errorf("answer = %q", answer)
	}
}

func TestCompleteErrorShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"insufficient credits","code":402}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	answer, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Params{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if answer != "Error: insufficient credits" {
		t.Errorf("answer = %q, want provider error surfaced as text", answer)
	}
}

func TestCompleteUnknownShapeFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"unexpected":"payload"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	answer, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Params{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if answer != FallbackAnswer {
		t.Errorf("answer = %q, want %q", answer, FallbackAnswer)
	}
}

func TestCompleteTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := newTestClient(srv.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Params{})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestCompleteMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Params{})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestCompleteContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, []Message{{Role: "user", Content: "hi"}}, Params{})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}
