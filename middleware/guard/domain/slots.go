package domain

import "context"

// SlotPool limita quantas requisições ficam em andamento ao mesmo tempo.
// Acquire bloqueia até haver vaga ou ctx encerrar; release deve ser chamado
// exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
