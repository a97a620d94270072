package application

import (
	"errors"
	"fmt"
	"strings"

	"request-guard/middleware/guard/domain"
)

// MarkersVersion identifica a lista de marcadores abaixo. Ela define status
// HTTP visíveis para clientes: qualquer mudança na lista incrementa a versão.
const MarkersVersion = "1"

// MarkerRule associa frases (casamento case-insensitive por substring) a uma
// categoria. As regras são avaliadas em ordem; a primeira que casar vence.
type MarkerRule struct {
	Kind    domain.Kind
	Markers []string
}

// DefaultMarkerRules devolve uma cópia nova da lista padrão.
func DefaultMarkerRules() []MarkerRule {
	return []MarkerRule{
		{Kind: domain.KindValidation, Markers: []string{"zoderror", "schema", "validation", "invalid input"}},
		{Kind: domain.KindPermissionDenied, Markers: []string{"permission", "not authorized", "forbidden"}},
		{Kind: domain.KindAuthRequired, Markers: []string{"not authenticated", "unauthenticated", "session"}},
		{Kind: domain.KindNotFound, Markers: []string{"not found"}},
	}
}

var publicMessages = map[domain.Kind]string{
	domain.KindValidation:       "Invalid input data",
	domain.KindPermissionDenied: "You do not have permission to perform this action",
	domain.KindAuthRequired:     "Authentication required",
	domain.KindNotFound:         "Resource not found",
	domain.KindInternal:         "An error occurred. Please try again.",
	domain.KindUnknown:          "An unexpected error occurred",
}

// PublicMessage é a mensagem segura para o cliente em produção.
func PublicMessage(k domain.Kind) string {
	if msg, ok := publicMessages[k]; ok {
		return msg
	}
	return publicMessages[domain.KindInternal]
}

// Classifier transforma qualquer erro do handler num ClassifiedError.
type Classifier struct {
	Mode domain.Mode
	// Rules nil usa DefaultMarkerRules.
	Rules []MarkerRule
}

// WithRule devolve um Classifier com rule adicionada ao fim da lista.
func (c Classifier) WithRule(rule MarkerRule) Classifier {
	rules := c.Rules
	if rules == nil {
		rules = DefaultMarkerRules()
	}
	c.Rules = append(append([]MarkerRule(nil), rules...), rule)
	return c
}

// KindFor resolve a categoria: primeiro o Kind declarado na cadeia do erro,
// depois os marcadores na mensagem, senão INTERNAL_ERROR.
func (c Classifier) KindFor(err error) domain.Kind {
	if err == nil {
		return domain.KindInternal
	}
	if k, ok := domain.KindOf(err); ok {
		return k
	}

	msg := strings.ToLower(err.Error())
	rules := c.Rules
	if rules == nil {
		rules = DefaultMarkerRules()
	}
	for _, rule := range rules {
		for _, m := range rule.Markers {
			if m != "" && strings.Contains(msg, strings.ToLower(m)) {
				return rule.Kind
			}
		}
	}
	return domain.KindInternal
}

func (c Classifier) Classify(err error) domain.ClassifiedError {
	kind := c.KindFor(err)
	if c.Mode.IsProduction() {
		return domain.ClassifiedError{Kind: kind, PublicMessage: PublicMessage(kind)}
	}

	msg := PublicMessage(kind)
	if err != nil {
		msg = err.Error()
	}
	return domain.ClassifiedError{Kind: kind, PublicMessage: msg, DebugDetail: errorChain(err)}
}

// ClassifyPanic trata o valor recuperado de um panic. Valores que não são
// error viram UNKNOWN_ERROR.
func (c Classifier) ClassifyPanic(v any, stack []byte) domain.ClassifiedError {
	if err, ok := v.(error); ok {
		ce := c.Classify(err)
		if ce.DebugDetail != "" && len(stack) > 0 {
			ce.DebugDetail += "\n" + string(stack)
		}
		return ce
	}

	if c.Mode.IsProduction() {
		return domain.ClassifiedError{Kind: domain.KindUnknown, PublicMessage: PublicMessage(domain.KindUnknown)}
	}
	return domain.ClassifiedError{
		Kind:          domain.KindUnknown,
		PublicMessage: fmt.Sprint(v),
		DebugDetail:   string(stack),
	}
}

// errorChain descreve a cadeia de wrap: "tipo: mensagem" por nível.
func errorChain(err error) string {
	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		if b.Len() > 0 {
			b.WriteString("\n  caused by ")
		}
		fmt.Fprintf(&b, "%T: %s", e, e.Error())
	}
	return b.String()
}
