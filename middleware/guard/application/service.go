package application

import (
	"context"
	"math"
	"math/rand"
	"time"

	"request-guard/middleware/guard/domain"
)

const (
	DefaultWindow           = 60 * time.Second
	DefaultMaxRequests      = 100
	DefaultSweepProbability = 0.01
)

// RateService concentra a regra de janela fixa.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Janela fixa é intencional: na virada de janela um cliente consegue até
// 2×MaxRequests num intervalo deslizante de Window. Não trocar por sliding
// window/token bucket sem avisar quem depende desse comportamento.
type RateService struct {
	Store       domain.WindowStore
	Window      time.Duration
	MaxRequests int
	// SweepProbability é a chance de, a cada chamada, varrer janelas velhas
	// (ResetAt < now-2×Window). 0 usa o padrão (1%), negativo desliga.
	SweepProbability float64

	Now  func() time.Time
	Rand func() float64
}

func (s RateService) window() time.Duration {
	if s.Window <= 0 {
		return DefaultWindow
	}
	return s.Window
}

func (s RateService) limit() int {
	if s.MaxRequests <= 0 {
		return DefaultMaxRequests
	}
	return s.MaxRequests
}

func (s RateService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Decide registra uma requisição para key e decide se ela passa.
//
// Se o store falhar, a decisão é allow (fail-open) e o erro é devolvido para
// quem chamou registrar.
func (s RateService) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	limit := s.limit()
	if s.Store == nil {
		return domain.Decision{Allowed: true, Limit: limit}, nil
	}

	now := s.now()
	window := s.window()

	w, err := s.Store.Hit(ctx, key, now, window)
	if err != nil {
		return domain.Decision{Allowed: true, Limit: limit}, err
	}

	s.maybeSweep(ctx, now, window)

	dec := domain.Decision{
		Allowed: w.Count <= limit,
		Count:   w.Count,
		Limit:   limit,
		ResetAt: w.ResetAt,
	}
	if !dec.Allowed {
		dec.RetryAfter = RetryAfterSeconds(now, w.ResetAt)
	}
	return dec, nil
}

func (s RateService) maybeSweep(ctx context.Context, now time.Time, window time.Duration) {
	sweeper, ok := s.Store.(domain.Sweeper)
	if !ok {
		return
	}

	p := s.SweepProbability
	if p == 0 {
		p = DefaultSweepProbability
	}
	if p < 0 {
		return
	}

	roll := rand.Float64
	if s.Rand != nil {
		roll = s.Rand
	}
	if roll() >= p {
		return
	}

	// best-effort: falha de limpeza não afeta a decisão.
	_, _ = sweeper.Sweep(ctx, now.Add(-2*window))
}

// RetryAfterSeconds é o tempo até resetAt em segundos inteiros, arredondado
// pra cima. Nunca menor que 1.
func RetryAfterSeconds(now, resetAt time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
