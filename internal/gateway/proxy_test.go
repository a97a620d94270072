package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"request-guard/middleware/guard"
	"request-guard/middleware/guard/domain"
)

func newGuard(max int) *guard.Guard {
	return guard.New(guard.Options{Mode: domain.ModeProduction, MaxRequests: max, SweepProbability: -1})
}

func TestProxy_ForwardsAllowedRequests(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "1")
		_, _ = io.WriteString(w, "hello "+r.URL.Path)
	}))
	defer upstream.Close()

	target, _ := url.Parse(upstream.URL)
	h := New(target, newGuard(10), nil)

	r := httptest.NewRequest(http.MethodGet, "http://gw.local/greet", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "hello /greet" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if w.Header().Get("X-Upstream") != "1" {
		t.Fatalf("expected upstream header")
	}
}

func TestProxy_UnsafeMethodNeedsOrigin(t *testing.T) {
	calls := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer upstream.Close()

	target, _ := url.Parse(upstream.URL)
	h := New(target, newGuard(10), nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://gw.local/items", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	r := httptest.NewRequest(http.MethodPost, "http://gw.local/items", nil)
	r.Header.Set("Origin", "http://gw.local")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with same-host origin, got %d", w.Code)
	}
	if calls != 1 {
		t.Fatalf("expected upstream called once, got %d", calls)
	}
}

func TestProxy_UpstreamFailureIsSanitized(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target, _ := url.Parse(upstream.URL)
	upstream.Close()

	h := New(target, newGuard(10), nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://gw.local/x", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["code"] != "INTERNAL_ERROR" || body["error"] != "An error occurred. Please try again." {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestProxy_RateLimited(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	target, _ := url.Parse(upstream.URL)
	h := New(target, newGuard(1), nil)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		r := httptest.NewRequest(http.MethodGet, "http://gw.local/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.7")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i+1, want, w.Code)
		}
	}
}
