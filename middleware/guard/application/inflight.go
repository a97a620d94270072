package application

import (
	"context"
	"time"

	"request-guard/middleware/guard/domain"
)

// InflightService decide se uma requisição entra, esperando no máximo Wait.
// Wait <= 0 espera até o contexto da requisição acabar.
type InflightService struct {
	Pool domain.SlotPool
	Wait time.Duration
}

func (s InflightService) Enter(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.Wait <= 0 {
		return s.Pool.Acquire(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.Wait)
	defer cancel()
	return s.Pool.Acquire(waitCtx)
}
