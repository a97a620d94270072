package infra

import (
	"context"
	"sync"
	"time"

	"request-guard/middleware/guard/domain"
)

// MemoryWindowStore é o registro de janelas do processo.
//
// Cardinalidade de chaves não tem teto: só a varredura (probabilística no
// guard ou periódica via StartJanitor) limita o crescimento. Com
// X-Forwarded-For forjado isso vira memória sem limite determinístico; em
// produção exposta prefira RedisWindowStore.
type MemoryWindowStore struct {
	mu      sync.Mutex
	entries map[domain.Key]domain.Window
}

func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{entries: make(map[domain.Key]domain.Window)}
}

// Hit implementa domain.WindowStore.
func (s *MemoryWindowStore) Hit(_ context.Context, key domain.Key, now time.Time, window time.Duration) (domain.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.entries[key]
	if !ok || w.Expired(now) {
		w = domain.Window{Count: 0, ResetAt: now.Add(window)}
	}
	w.Count++
	s.entries[key] = w
	return w, nil
}

// Sweep implementa domain.Sweeper.
func (s *MemoryWindowStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, w := range s.entries {
		if w.ResetAt.Before(cutoff) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Peek devolve a janela atual sem incrementar.
func (s *MemoryWindowStore) Peek(key domain.Key) (domain.Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.entries[key]
	return w, ok
}

func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor inicia uma goroutine que varre janelas velhas (ResetAt
// anterior a now-2×window) a cada every. Pare cancelando o contexto.
func StartJanitor(ctx context.Context, sweeper domain.Sweeper, every, window time.Duration) {
	if sweeper == nil || every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				_, _ = sweeper.Sweep(ctx, now.Add(-2*window))
			}
		}
	}()
}
