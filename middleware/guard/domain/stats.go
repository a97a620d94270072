package domain

import (
	"context"
	"time"
)

type Outcome string

const (
	OutcomeAllowed        Outcome = "allowed"
	OutcomeRateLimited    Outcome = "rate_limited"
	OutcomeOriginRejected Outcome = "origin_rejected"
	OutcomeHandlerError   Outcome = "handler_error"
)

// StatsEvent representa o resultado de uma passagem pelo guard.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings genéricas.
// Code só é preenchido quando Outcome != allowed.
//
// Observação: cuidado com cardinalidade (ex.: salvar Key/Path sem controle pode
// explodir o número de séries/chaves em uma base como Redis/Prometheus).
type StatsEvent struct {
	Key     Key
	Outcome Outcome
	Code    Kind

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do guard.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O guard trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
