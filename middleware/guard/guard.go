package guard

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"request-guard/middleware/guard/application"
	"request-guard/middleware/guard/domain"
	"request-guard/middleware/guard/infra"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HandlerFunc é o handler protegido. Pode devolver erro de qualquer formato
// (ou dar panic): o guard classifica e responde.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

type Options struct {
	// Store nil usa um infra.MemoryWindowStore novo (registro do processo).
	Store domain.WindowStore
	Stats domain.StatsStore

	Logger *zap.Logger
	Mode   domain.Mode

	Window           time.Duration
	MaxRequests      int
	SweepProbability float64

	KeyFn               KeyFunc
	AddRateLimitHeaders bool

	// MarkerRules nil usa application.DefaultMarkerRules.
	MarkerRules []application.MarkerRule

	// RejectLogInterval limita logs de 429/403 (o resto é descartado).
	RejectLogInterval time.Duration

	Now  func() time.Time
	Rand func() float64
}

// Guard é compartilhado entre todas as rotas: o registro de janelas é um só.
type Guard struct {
	rate       application.RateService
	origin     application.OriginPolicy
	classifier application.Classifier

	stats      domain.StatsStore
	logger     *zap.Logger
	keyFn      KeyFunc
	addHeaders bool

	rejectLog *rate.Sometimes
}

func New(opts Options) *Guard {
	if opts.Store == nil {
		opts.Store = infra.NewMemoryWindowStore()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc("", false)
	}
	if opts.RejectLogInterval <= 0 {
		opts.RejectLogInterval = 10 * time.Second
	}

	return &Guard{
		rate: application.RateService{
			Store:            opts.Store,
			Window:           opts.Window,
			MaxRequests:      opts.MaxRequests,
			SweepProbability: opts.SweepProbability,
			Now:              opts.Now,
			Rand:             opts.Rand,
		},
		origin:     application.OriginPolicy{Mode: opts.Mode},
		classifier: application.Classifier{Mode: opts.Mode, Rules: opts.MarkerRules},
		stats:      opts.Stats,
		logger:     opts.Logger,
		keyFn:      opts.KeyFn,
		addHeaders: opts.AddRateLimitHeaders,
		rejectLog:  &rate.Sometimes{First: 5, Interval: opts.RejectLogInterval},
	}
}

type originMode int

const (
	originStrict originMode = iota
	originRelaxed
	originOff
	originByMethod
)

type routeConfig struct {
	origin   originMode
	routeKey string
}

// RouteOption configura uma rota específica. Sem opções: origem estrita e
// chave de rate limit só pelo cliente.
type RouteOption func(*routeConfig)

// WithRateLimitKey separa o orçamento por operação lógica (ex: "projects:post").
func WithRateLimitKey(key string) RouteOption {
	return func(c *routeConfig) { c.routeKey = key }
}

// WithoutOriginCheck desliga a validação de origem (rotas só de leitura).
func WithoutOriginCheck() RouteOption {
	return func(c *routeConfig) { c.origin = originOff }
}

// WithRelaxedOriginCheck aceita Origin ausente, mas valida quando presente.
func WithRelaxedOriginCheck() RouteOption {
	return func(c *routeConfig) { c.origin = originRelaxed }
}

// WithMethodAwareOriginCheck: GET/HEAD/OPTIONS no modo relaxado, demais métodos no estrito.
func WithMethodAwareOriginCheck() RouteOption {
	return func(c *routeConfig) { c.origin = originByMethod }
}

func (c routeConfig) originFor(method string) (check, strict bool) {
	switch c.origin {
	case originOff:
		return false, false
	case originRelaxed:
		return true, false
	case originByMethod:
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return true, false
		}
		return true, true
	default:
		return true, true
	}
}

// Wrap protege h. É o único ponto de entrada do guard.
func (g *Guard) Wrap(h HandlerFunc, opts ...RouteOption) http.Handler {
	cfg := routeConfig{origin: originStrict}
	for _, opt := range opts {
		opt(&cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := domain.Key(rateKey(g.keyFn(r), cfg.routeKey))

		// 1) rate limit
		dec, err := g.rate.Decide(r.Context(), key)
		if err != nil {
			g.logger.Warn("rate limit store unavailable, allowing request",
				zap.String("key", string(key)), zap.Error(err))
		}
		if g.addHeaders && dec.Limit > 0 && !dec.ResetAt.IsZero() {
			w.Header().Set("X-RateLimit-Limit", formatInt(dec.Limit))
			w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining()))
			w.Header().Set("X-RateLimit-Reset", formatInt64(dec.ResetAt.Unix()))
		}
		if !dec.Allowed {
			g.record(r, key, domain.OutcomeRateLimited, domain.KindRateLimited)
			g.rejectLog.Do(func() {
				g.logger.Warn("rate limit exceeded",
					zap.String("key", string(key)), zap.Int("count", dec.Count), zap.Int("retry_after", dec.RetryAfter))
			})
			w.Header().Set("Retry-After", formatInt(dec.RetryAfter))
			WriteJSON(w, http.StatusTooManyRequests, rateLimitBody{Error: "Rate limit exceeded", RetryAfter: dec.RetryAfter})
			return
		}

		// 2) origem
		if check, strict := cfg.originFor(r.Method); check {
			host := r.Host
			if host == "" {
				host = r.Header.Get("Host")
			}
			if err := g.origin.Check(r.Header.Get("Origin"), host, strict); err != nil {
				g.record(r, key, domain.OutcomeOriginRejected, domain.KindOriginRejected)
				g.rejectLog.Do(func() {
					g.logger.Warn("origin rejected",
						zap.String("key", string(key)), zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
				})
				WriteJSON(w, http.StatusForbidden, messageBody{Error: "Invalid request origin"})
				return
			}
		}

		// 3) handler
		g.invoke(w, r, key, h)
	})
}

// Middleware adapta o guard para handlers net/http comuns. Sem retorno de
// erro, só panics são normalizados.
func (g *Guard) Middleware(opts ...RouteOption) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.Wrap(func(w http.ResponseWriter, r *http.Request) error {
			next.ServeHTTP(w, r)
			return nil
		}, opts...)
	}
}

func (g *Guard) invoke(w http.ResponseWriter, r *http.Request, key domain.Key, h HandlerFunc) {
	sw := &statusWriter{ResponseWriter: w}

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		// convenção do net/http para abortar a resposta; não é erro do handler.
		if v == http.ErrAbortHandler {
			panic(v)
		}
		ce := g.classifier.ClassifyPanic(v, debug.Stack())
		g.logger.Error("handler panic",
			zap.String("key", string(key)), zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.String("code", string(ce.Kind)), zap.Any("panic", v), zap.Stack("stack"))
		g.fail(sw, r, key, ce)
	}()

	if err := h(sw, r); err != nil {
		ce := g.classifier.Classify(err)
		g.logger.Error("handler error",
			zap.String("key", string(key)), zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.String("code", string(ce.Kind)), zap.Error(err))
		g.fail(sw, r, key, ce)
		return
	}

	g.record(r, key, domain.OutcomeAllowed, "")
}

func (g *Guard) fail(sw *statusWriter, r *http.Request, key domain.Key, ce domain.ClassifiedError) {
	g.record(r, key, domain.OutcomeHandlerError, ce.Kind)

	if sw.started() {
		g.logger.Warn("handler failed after writing response; error body dropped",
			zap.String("path", r.URL.Path), zap.Int("status", sw.status), zap.String("code", string(ce.Kind)))
		return
	}

	WriteJSON(sw, ce.Status(), ErrorBody{
		Error:   ce.PublicMessage,
		Code:    string(ce.Kind),
		Details: ce.DebugDetail,
	})
}

func (g *Guard) record(r *http.Request, key domain.Key, outcome domain.Outcome, code domain.Kind) {
	if g.stats == nil {
		return
	}
	// best-effort: contexto próprio para não perder o registro se o cliente cancelar.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), time.Second)
	defer cancel()

	err := g.stats.Record(ctx, domain.StatsEvent{
		Key:     key,
		Outcome: outcome,
		Code:    code,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
	if err != nil {
		g.logger.Debug("stats record failed", zap.Error(err))
	}
}
