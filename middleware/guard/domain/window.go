package domain

// Camada de domínio do rate limit (janela fixa).
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

type Key string

// Window é o estado de uma janela fixa para uma chave.
//
// Invariante: a janela só é válida enquanto now < ResetAt. Depois disso ela é
// substituída (Count=0, novo ResetAt) no próximo Hit.
type Window struct {
	Count   int
	ResetAt time.Time
}

// Expired informa se a janela já venceu em now.
func (w Window) Expired(now time.Time) bool {
	return w.ResetAt.IsZero() || !now.Before(w.ResetAt)
}

// WindowStore guarda as janelas por chave.
//
// Hit precisa ser atômico por chave: resetar (se vencida) + incrementar e
// devolver o estado já incrementado. A implementação pode ser em memória
// (mutex) ou externa (Redis + script Lua).
type WindowStore interface {
	Hit(ctx context.Context, key Key, now time.Time, window time.Duration) (Window, error)
}

// Sweeper é implementado por stores que precisam de limpeza explícita.
// Remove janelas com ResetAt anterior a cutoff e retorna quantas removeu.
// Stores com TTL nativo (Redis) não precisam implementar.
type Sweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

type Decision struct {
	Allowed bool
	Count   int
	Limit   int
	ResetAt time.Time
	// RetryAfter é o número inteiro de segundos (arredondado pra cima) até
	// ResetAt. Só é preenchido quando bloqueia.
	RetryAfter int
}

// Remaining é quanto ainda cabe na janela atual (nunca negativo).
func (d Decision) Remaining() int {
	if d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}
