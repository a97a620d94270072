package domain

import (
	"errors"
	"fmt"
)

// Kind é o conjunto fechado de categorias de erro que o guard devolve.
// O valor string é o "code" do corpo JSON.
type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	KindAuthRequired     Kind = "AUTH_REQUIRED"
	KindNotFound         Kind = "NOT_FOUND"
	KindInternal         Kind = "INTERNAL_ERROR"
	KindUnknown          Kind = "UNKNOWN_ERROR"

	// Produzidos pelo próprio guard, nunca chegam ao handler.
	KindRateLimited    Kind = "RATE_LIMITED"
	KindOriginRejected Kind = "ORIGIN_REJECTED"
)

var ErrRateLimited = errors.New("rate limit exceeded")
var ErrOriginRejected = errors.New("invalid request origin")

// Kinder é implementado por erros que já sabem sua categoria.
// O guard usa Kind() antes de cair no casamento por substring.
type Kinder interface {
	Kind() Kind
}

// Error é o erro "etiquetado" que handlers podem devolver.
type Error struct {
	K   Kind
	Msg string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.K)
	}
}

func (e *Error) Kind() Kind    { return e.K }
func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, msg string) error {
	return &Error{K: kind, Msg: msg}
}

func Errorf(kind Kind, format string, args ...any) error {
	return &Error{K: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap etiqueta err com kind mantendo a cadeia (errors.Is/As continuam funcionando).
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{K: kind, Msg: msg, Err: err}
}

// KindOf devolve a categoria declarada em algum ponto da cadeia de err.
func KindOf(err error) (Kind, bool) {
	var k Kinder
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	return "", false
}

// ClassifiedError é o erro já normalizado, pronto para serializar.
//
// Invariante: DebugDetail é sempre vazio em modo produção.
type ClassifiedError struct {
	Kind          Kind
	PublicMessage string
	DebugDetail   string
}

// Status é o código HTTP associado à categoria.
func (c ClassifiedError) Status() int {
	return StatusFor(c.Kind)
}

// StatusFor mapeia Kind para status HTTP (sem importar net/http).
func StatusFor(k Kind) int {
	switch k {
	case KindValidation:
		return 400
	case KindAuthRequired:
		return 401
	case KindPermissionDenied, KindOriginRejected:
		return 403
	case KindNotFound:
		return 404
	case KindRateLimited:
		return 429
	default:
		return 500
	}
}
