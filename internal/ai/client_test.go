package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testServerSequence(t *testing.T, statuses []int, headers []http.Header, bodyOK any) *ipv4Server {
	t.Helper()
	var idx int32
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		if headers != nil && i < len(headers) && headers[i] != nil {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		if st >= 200 && st < 300 {
			w.WriteHeader(st)
			_ = json.NewEncoder(w).Encode(bodyOK)
			return
		}
		w.WriteHeader(st)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	}))
}

func TestGenerateRetriesOn429(t *testing.T) {
	okBody := GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}}}
	srv := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"0"}}, {}}, okBody)
	defer srv.Close()

	c := NewClient(srv.URL+"/chat/completions", "test", 2*time.Second, 3, 10*time.Millisecond, 100*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRetryAfterHonored(t *testing.T) {
	okBody := GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}}}
	// Ask server to instruct a 1-second Retry-After, then succeed.
	srv := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"1"}}, {}}, okBody)
	defer srv.Close()

	c := NewClient(srv.URL+"/chat/completions", "test", 5*time.Second, 3, 0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 900*time.Millisecond { // allow some scheduling variance
		t.Fatalf("expected at least ~1s delay due to Retry-After, got %v", elapsed)
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	// Server returns 400 with X-Request-Id header
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/chat/completions", "test", 2*time.Second, 1, 10*time.Millisecond, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Generate(ctx, GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestStreamParsesDeltas(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		// Send two delta events then DONE
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hello \"}}]}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n")
		fmt.Fprintf(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/chat/completions", "test", 5*time.Second, 1, 0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var out string
	err := c.GenerateStream(ctx, GenerateRequest{Model: "test", Messages: []Message{{Role: "user", Content: "hi"}}}, func(d string) { out += d })
	if err != nil {
		t.Fatalf("GenerateStream error: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("unexpected stream accumulation: %q", out)
	}
}

func TestStreamFallsBackToMessageContent(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, ": keep-alive\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"message\":{\"content\":\"第一段\"}}]}\n\n")
		fmt.Fprintf(w, "data: not json\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"第二段\"}}]}\n\n")
		fmt.Fprintf(w, "data: [DONE]\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/chat/completions", "test", 5*time.Second, 1, 0, 0)
	var parts []string
	err := c.GenerateStream(context.Background(), GenerateRequest{Model: "test", Messages: []Message{{Role: "user", Content: "hi"}}}, func(d string) { parts = append(parts, d) })
	if err != nil {
		t.Fatalf("GenerateStream error: %v", err)
	}
	if strings.Join(parts, "|") != "第一段|第二段" {
		t.Fatalf("unexpected parts: %q", parts)
	}
}

func TestGenerateSendsProfileSettings(t *testing.T) {
	var (
		got  map[string]any
		auth string
	)
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"delta": map[string]any{"content": "delta only"}}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/text/chatcompletion_v2", "sk-abc", 2*time.Second, 1, 0, 0)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:       "minimax-text-01",
		Messages:    []Message{{Role: "user", Name: "user", Content: "hi"}},
		Temperature: 0.1,
		TopP:        0.95,
		MaxTokens:   2048,
		Stream:      true,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content() != "delta only" {
		t.Fatalf("expected delta fallback, got %q", resp.Content())
	}
	if auth != "Bearer sk-abc" {
		t.Fatalf("unexpected Authorization %q", auth)
	}
	if got["top_p"] != 0.95 || got["temperature"] != 0.1 || got["max_tokens"] != float64(2048) {
		t.Fatalf("unexpected payload %v", got)
	}
	if got["stream"] != false {
		t.Fatalf("non-streaming call must send stream=false, got %v", got["stream"])
	}
	msgs := got["messages"].([]any)
	if msgs[0].(map[string]any)["name"] != "user" {
		t.Fatalf("expected message name to be sent, got %v", msgs[0])
	}
}

func TestGenerateClassifiesErrors(t *testing.T) {
	cases := []struct {
		status int
		body   any
		check  func(error) bool
	}{
		{http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "invalid key"}}, func(err error) bool {
			var e *AuthError
			return errors.As(err, &e)
		}},
		{http.StatusNotFound, map[string]any{"error": map[string]any{"code": "model_not_found", "message": "no such model"}}, func(err error) bool {
			var e *ModelNotFoundError
			return errors.As(err, &e)
		}},
		{http.StatusPaymentRequired, map[string]any{"error": "insufficient balance"}, func(err error) bool {
			var e *QuotaExceededError
			return errors.As(err, &e)
		}},
		{http.StatusBadGateway, map[string]any{"error": map[string]any{"message": "upstream"}}, func(err error) bool {
			var e *ServerError
			return errors.As(err, &e)
		}},
	}
	for _, tc := range cases {
		var hits int32
		srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(tc.status)
			_ = json.NewEncoder(w).Encode(tc.body)
		}))
		c := NewClient(srv.URL, "test", 2*time.Second, 2, time.Millisecond, 2*time.Millisecond)
		_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
		srv.Close()
		if !tc.check(err) {
			t.Errorf("status %d: unexpected error type %T: %v", tc.status, err, err)
		}
		wantHits := int32(1)
		if tc.status >= 500 {
			wantHits = 2
		}
		if atomic.LoadInt32(&hits) != wantHits {
			t.Errorf("status %d: expected %d attempts, got %d", tc.status, wantHits, hits)
		}
	}
}

func TestGenerateMalformedBody(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "test", 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var me *MalformedResponseError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedResponseError, got %T %v", err, err)
	}
}

func TestGenerateUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c := NewClient("http://"+addr+"/chat/completions", "test", time.Second, 1, 0, 0)
	_, err = c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %T %v", err, err)
	}
}

func TestValidateMissingKey(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/chat/completions", "", time.Second, 1, 0, 0)
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}}); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected missing api key error, got %v", err)
	}
}

func TestGenerateSendsZeroTemperature(t *testing.T) {
	var got map[string]any
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", 2*time.Second, 1, 0, 0)
	if _, err := c.Generate(context.Background(), GenerateRequest{
		Model:    "m",
		Messages: []Message{{Role: "user", Content: "hi"}},
	}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	temp, ok := got["temperature"]
	if !ok || temp != float64(0) {
		t.Fatalf("temperature 0 must be sent explicitly, payload %v", got)
	}
	if _, ok := got["top_p"]; !ok {
		t.Fatalf("top_p must be sent explicitly, payload %v", got)
	}
}

func TestGenerateBackoffStopsOnCancel(t *testing.T) {
	var hits int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// The backoff between attempts is far longer than the test deadline.
	c := NewClient(srv.URL, "test", 2*time.Second, 3, 10*time.Second, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := c.Generate(ctx, GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("cancel during backoff took %v", elapsed)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single attempt before cancel, got %d", n)
	}
}

func TestErrorNamesEndpointHost(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "invalid key"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/chat/completions", "test", 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T %v", err, err)
	}
	host := strings.TrimPrefix(srv.URL, "http://")
	if ae.Host != host || !strings.Contains(err.Error(), host+" rejected the API key") {
		t.Fatalf("error should name %s: %v", host, err)
	}
}
