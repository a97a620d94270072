package guard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"request-guard/middleware/guard/domain"
	"request-guard/middleware/guard/infra"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGuard(mode domain.Mode, max int) (*Guard, *infra.MemoryWindowStore, *fixedClock) {
	store := infra.NewMemoryWindowStore()
	clk := &fixedClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	g := New(Options{
		Store:            store,
		Mode:             mode,
		MaxRequests:      max,
		Window:           time.Minute,
		SweepProbability: -1,
		Now:              clk.Now,
	})
	return g, store, clk
}

func newRequest(method, origin string) *http.Request {
	r := httptest.NewRequest(method, "http://example.com/api/projects", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return out
}

func okHandler(calls *int) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		*calls++
		w.Header().Set("X-Handler", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "created")
		return nil
	}
}

func TestWrap_SuccessIsReturnedVerbatim(t *testing.T) {
	g, _, _ := newTestGuard(domain.ModeProduction, 10)
	calls := 0
	h := g.Wrap(okHandler(&calls), WithRateLimitKey("projects:post"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest(http.MethodPost, "http://example.com"))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w.Body.String() != "created" {
		t.Fatalf("expected body untouched, got %q", w.Body.String())
	}
	if w.Header().Get("X-Handler") != "yes" {
		t.Fatalf("expected handler header to survive")
	}
	if calls != 1 {
		t.Fatalf("expected handler called once, got %d", calls)
	}
}

func TestWrap_RateLimitRejectsWithoutCallingHandler(t *testing.T) {
	g, _, clk := newTestGuard(domain.ModeProduction, 2)
	calls := 0
	h := g.Wrap(okHandler(&calls), WithoutOriginCheck())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest(http.MethodGet, ""))
		if w.Code != http.StatusCreated {
			t.Fatalf("expected request %d to pass, got %d", i+1, w.Code)
		}
	}

	clk.Advance(20 * time.Second)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest(http.MethodGet, ""))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if calls != 2 {
		t.Fatalf("expected handler to stay at 2 calls, got %d", calls)
	}
	if got := w.Header().Get("Retry-After"); got != "40" {
		t.Fatalf("expected Retry-After=40, got %q", got)
	}
	body := decodeBody(t, w)
	if body["error"] != "Rate limit exceeded" {
		t.Fatalf("unexpected error message %v", body["error"])
	}
	if body["retryAfter"] != float64(40) {
		t.Fatalf("expected retryAfter=40, got %v", body["retryAfter"])
	}
}

func TestWrap_RateLimitKeySeparatesOperations(t *testing.T) {
	g, store, _ := newTestGuard(domain.ModeProduction, 1)
	calls := 0
	get := g.Wrap(okHandler(&calls), WithoutOriginCheck(), WithRateLimitKey("projects:get"))
	stats := g.Wrap(okHandler(&calls), WithoutOriginCheck(), WithRateLimitKey("projects:stats"))

	for _, h := range []http.Handler{get, stats} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, newRequest(http.MethodGet, ""))
		if w.Code != http.StatusCreated {
			t.Fatalf("expected each operation to have its own budget, got %d", w.Code)
		}
	}

	if _, ok := store.Peek("1.2.3.4:projects:get"); !ok {
		t.Fatalf("expected window for key 1.2.3.4:projects:get")
	}
	if _, ok := store.Peek("1.2.3.4:projects:stats"); !ok {
		t.Fatalf("expected window for key 1.2.3.4:projects:stats")
	}
}

func TestWrap_TwoCallsIncrementByTwo(t *testing.T) {
	g, store, clk := newTestGuard(domain.ModeProduction, 100)
	calls := 0
	h := g.Wrap(okHandler(&calls), WithoutOriginCheck())

	h.ServeHTTP(httptest.NewRecorder(), newRequest(http.MethodGet, ""))
	first, _ := store.Peek("1.2.3.4")
	clk.Advance(time.Millisecond)
	h.ServeHTTP(httptest.NewRecorder(), newRequest(http.MethodGet, ""))
	second, _ := store.Peek("1.2.3.4")

	if second.Count-first.Count != 1 || second.Count != 2 {
		t.Fatalf("expected count 1 -> 2, got %d -> %d", first.Count, second.Count)
	}
	if !first.ResetAt.Equal(second.ResetAt) {
		t.Fatalf("expected ResetAt unchanged")
	}
}

func TestWrap_OriginStrictRequiresHeader(t *testing.T) {
	g, _, _ := newTestGuard(domain.ModeProduction, 10)
	calls := 0

	strict := g.Wrap(okHandler(&calls))
	w := httptest.NewRecorder()
	strict.ServeHTTP(w, newRequest(http.MethodPost, ""))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "Invalid request origin" {
		t.Fatalf("unexpected body %v", body)
	}
	if calls != 0 {
		t.Fatalf("expected handler not called")
	}

	open := g.Wrap(okHandler(&calls), WithoutOriginCheck())
	w = httptest.NewRecorder()
	open.ServeHTTP(w, newRequest(http.MethodPost, ""))
	if w.Code != http.StatusCreated || calls != 1 {
		t.Fatalf("expected handler to run without origin check, got %d calls=%d", w.Code, calls)
	}
}

func TestWrap_OriginMatching(t *testing.T) {
	cases := []struct {
		mode   domain.Mode
		origin string
		want   int
	}{
		{domain.ModeProduction, "https://example.com", http.StatusCreated},
		{domain.ModeProduction, "https://evil.com", http.StatusForbidden},
		{domain.ModeProduction, "http://localhost:3000", http.StatusForbidden},
		{domain.ModeDevelopment, "http://localhost:3000", http.StatusCreated},
		{domain.ModeDevelopment, "%%%", http.StatusForbidden},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%s %s", c.mode, c.origin), func(t *testing.T) {
			g, _, _ := newTestGuard(c.mode, 10)
			calls := 0
			w := httptest.NewRecorder()
			g.Wrap(okHandler(&calls)).ServeHTTP(w, newRequest(http.MethodPost, c.origin))
			if w.Code != c.want {
				t.Fatalf("expected %d, got %d", c.want, w.Code)
			}
		})
	}
}

func TestWrap_RelaxedAndMethodAwareOrigin(t *testing.T) {
	g, _, _ := newTestGuard(domain.ModeProduction, 10)
	calls := 0

	relaxed := g.Wrap(okHandler(&calls), WithRelaxedOriginCheck())
	w := httptest.NewRecorder()
	relaxed.ServeHTTP(w, newRequest(http.MethodPost, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected relaxed mode to accept missing origin, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	relaxed.ServeHTTP(w, newRequest(http.MethodPost, "https://evil.com"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected relaxed mode to reject foreign origin, got %d", w.Code)
	}

	byMethod := g.Wrap(okHandler(&calls), WithMethodAwareOriginCheck())
	w = httptest.NewRecorder()
	byMethod.ServeHTTP(w, newRequest(http.MethodGet, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected GET without origin to pass, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	byMethod.ServeHTTP(w, newRequest(http.MethodDelete, ""))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected DELETE without origin to be rejected, got %d", w.Code)
	}
}

func failing(err error) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error { return err }
}

func TestWrap_HandlerErrorsAreClassified(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
		public string
	}{
		{errors.New("user not authenticated"), 401, "AUTH_REQUIRED", "Authentication required"},
		{errors.New("project not found"), 404, "NOT_FOUND", "Resource not found"},
		{errors.New("you do not have permission to delete"), 403, "PERMISSION_DENIED", "You do not have permission to perform this action"},
		{errors.New("schema mismatch on name"), 400, "VALIDATION_ERROR", "Invalid input data"},
		{errors.New("pq: connection reset by peer"), 500, "INTERNAL_ERROR", "An error occurred. Please try again."},
		{domain.NewError(domain.KindNotFound, "gone"), 404, "NOT_FOUND", "Resource not found"},
	}

	for _, c := range cases {
		t.Run(c.err.Error(), func(t *testing.T) {
			g, _, _ := newTestGuard(domain.ModeProduction, 10)
			w := httptest.NewRecorder()
			g.Wrap(failing(c.err), WithoutOriginCheck()).ServeHTTP(w, newRequest(http.MethodGet, ""))

			if w.Code != c.status {
				t.Fatalf("expected %d, got %d", c.status, w.Code)
			}
			body := decodeBody(t, w)
			if body["code"] != c.code {
				t.Fatalf("expected code %s, got %v", c.code, body["code"])
			}
			if body["error"] != c.public {
				t.Fatalf("expected public message %q, got %v", c.public, body["error"])
			}
			if _, ok := body["details"]; ok {
				t.Fatalf("expected no details in production")
			}
		})
	}
}

func TestWrap_NonProductionExposesRawError(t *testing.T) {
	g, _, _ := newTestGuard(domain.ModeDevelopment, 10)
	w := httptest.NewRecorder()
	g.Wrap(failing(errors.New("pq: connection reset by peer")), WithoutOriginCheck()).
		ServeHTTP(w, newRequest(http.MethodGet, ""))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "pq: connection reset by peer" {
		t.Fatalf("expected raw message, got %v", body["error"])
	}
	if body["code"] != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %v", body["code"])
	}
	if d, _ := body["details"].(string); !strings.Contains(d, "*errors.errorString") {
		t.Fatalf("expected details with error chain, got %q", d)
	}
}

func TestWrap_PanicIsRecovered(t *testing.T) {
	g, _, _ := newTestGuard(domain.ModeProduction, 10)
	h := g.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		var m map[string]int
		m["boom"]++
		return nil
	}, WithoutOriginCheck())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest(http.MethodGet, ""))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := decodeBody(t, w)
	// runtime.Error é um error: cai na classificação normal
	if body["code"] != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %v", body["code"])
	}

	h = g.Wrap(func(w http.ResponseWriter, r *http.Request) error { panic(42) }, WithoutOriginCheck())
	w = httptest.NewRecorder()
	h.ServeHTTP(w, newRequest(http.MethodGet, ""))
	body = decodeBody(t, w)
	if body["code"] != "UNKNOWN_ERROR" || body["error"] != "An unexpected error occurred" {
		t.Fatalf("expected UNKNOWN_ERROR, got %v", body)
	}
}

func TestWrap_ErrorAfterWriteKeepsHandlerResponse(t *testing.T) {
	g, _, _ := newTestGuard(domain.ModeProduction, 10)
	h := g.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusAccepted)
		return errors.New("late failure")
	}, WithoutOriginCheck())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest(http.MethodGet, ""))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected handler status to stand, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected no error body appended, got %q", w.Body.String())
	}
}

func TestWrap_RecordsStats(t *testing.T) {
	stats := infra.NewMemoryStatsStore()
	g := New(Options{Stats: stats, MaxRequests: 1, SweepProbability: -1})

	ok := g.Wrap(func(w http.ResponseWriter, r *http.Request) error { return nil }, WithoutOriginCheck(), WithRateLimitKey("a"))
	ok.ServeHTTP(httptest.NewRecorder(), newRequest(http.MethodGet, ""))
	ok.ServeHTTP(httptest.NewRecorder(), newRequest(http.MethodGet, ""))

	g.Wrap(failing(errors.New("not found")), WithoutOriginCheck(), WithRateLimitKey("b")).
		ServeHTTP(httptest.NewRecorder(), newRequest(http.MethodGet, ""))
	g.Wrap(failing(nil), WithRateLimitKey("c")).
		ServeHTTP(httptest.NewRecorder(), newRequest(http.MethodPost, "https://evil.com"))

	total := stats.Total()
	if total.Allowed != 1 || total.RateLimited != 1 || total.HandlerErrors != 1 || total.OriginRejected != 1 {
		t.Fatalf("unexpected totals %+v", total)
	}
	if stats.ByCode()[domain.KindNotFound] != 1 {
		t.Fatalf("expected NOT_FOUND counted once, got %v", stats.ByCode())
	}
}

func TestWrap_RateLimitHeaders(t *testing.T) {
	clk := &fixedClock{t: time.Unix(1_800_000_000, 0)}
	g := New(Options{MaxRequests: 3, Window: time.Minute, AddRateLimitHeaders: true, Now: clk.Now, SweepProbability: -1})

	w := httptest.NewRecorder()
	g.Wrap(failing(nil), WithoutOriginCheck()).ServeHTTP(w, newRequest(http.MethodGet, ""))

	if got := w.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("expected X-RateLimit-Limit=3, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("expected X-RateLimit-Remaining=2, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Reset"); got != "1800000060" {
		t.Fatalf("expected X-RateLimit-Reset=1800000060, got %q", got)
	}
}

func TestMiddleware_WrapsPlainHandler(t *testing.T) {
	g, _, _ := newTestGuard(domain.ModeProduction, 10)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := g.Middleware(WithMethodAwareOriginCheck())(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newRequest(http.MethodGet, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
