package infra

import (
	"context"

	"request-guard/middleware/guard/domain"
)

type chanSlots struct {
	sem chan struct{}
}

// NewChanSlots cria um semáforo de capacidade max sobre channel.
func NewChanSlots(max int) domain.SlotPool {
	return &chanSlots{sem: make(chan struct{}, max)}
}

func (p *chanSlots) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
