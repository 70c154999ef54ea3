package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry = RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	return cfg
}

func TestNew_Validation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 0

	if _, err := New(cfg); err == nil {
		t.Error("Expected error for zero timeout, got nil")
	}

	if _, err := New(DefaultConfig()); err != nil {
		t.Errorf("Unexpected error for default config: %v", err)
	}
}

func TestFetchPage_Success(t *testing.T) {
	var gotQuery url.Values
	var gotHeader http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"products": [{"goodsNo": "1"}]}`))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Headers["Cookie"] = "SESSION=abc"
	cfg.Params = map[string]string{"msectid": "1548240"}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	body, err := c.FetchPage(context.Background(), Endpoint{URL: server.URL}, 3, 60)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if len(body) == 0 {
		t.Error("Empty body returned")
	}

	if got := gotQuery.Get("page"); got != "3" {
		t.Errorf("page param = %q, want %q", got, "3")
	}
	if got := gotQuery.Get("size"); got != "60" {
		t.Errorf("size param = %q, want %q", got, "60")
	}
	if got := gotQuery.Get("msectid"); got != "1548240" {
		t.Errorf("msectid param = %q, want %q", got, "1548240")
	}
	if got := gotHeader.Get("Cookie"); got != "SESSION=abc" {
		t.Errorf("Cookie header = %q, want %q", got, "SESSION=abc")
	}
	if gotHeader.Get("User-Agent") == "" {
		t.Error("User-Agent header not set")
	}
}

func TestFetchPage_OffsetMode(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"products": []}`))
	}))
	defer server.Close()

	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ep := Endpoint{URL: server.URL, Offset: true, SizeParam: "limit"}
	if _, err := c.FetchPage(context.Background(), ep, 3, 60); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	// Page 3 at size 60 starts at item 120.
	if got := gotQuery.Get("offset"); got != "120" {
		t.Errorf("offset param = %q, want %q", got, "120")
	}
	if got := gotQuery.Get("limit"); got != "60" {
		t.Errorf("limit param = %q, want %q", got, "60")
	}
	if gotQuery.Has("page") {
		t.Error("page param sent in offset mode")
	}
}

func TestFetchPage_PreservesEndpointQuery(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ep := Endpoint{URL: server.URL + "/cate.gs?msectid=1548240"}
	if _, err := c.FetchPage(context.Background(), ep, 1, 60); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if got := gotQuery.Get("msectid"); got != "1548240" {
		t.Errorf("msectid param = %q, want %q", got, "1548240")
	}
}

func TestFetchPage_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"products": []}`))
	}))
	defer server.Close()

	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.FetchPage(context.Background(), Endpoint{URL: server.URL}, 1, 60); err != nil {
		t.Fatalf("FetchPage after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("request count = %d, want 3", got)
	}
}

func TestFetchPage_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.FetchPage(context.Background(), Endpoint{URL: server.URL}, 1, 60)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
	if statusErr.Class != ErrorClassClient {
		t.Errorf("Class = %q, want %q", statusErr.Class, ErrorClassClient)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("request count = %d, want 1 (no retry on 4xx)", got)
	}
}

func TestFetchPage_RetryExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.FetchPage(context.Background(), Endpoint{URL: server.URL}, 1, 60)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error = %v, want ErrRetryExhausted", err)
	}
}

func TestFetchPage_RateLimitRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := c.FetchPage(context.Background(), Endpoint{URL: server.URL}, 1, 60); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorClass
	}{
		{code: http.StatusTooManyRequests, want: ErrorClassRateLimit},
		{code: http.StatusNotFound, want: ErrorClassClient},
		{code: http.StatusForbidden, want: ErrorClassClient},
		{code: http.StatusInternalServerError, want: ErrorClassServer},
		{code: http.StatusBadGateway, want: ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.code); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
