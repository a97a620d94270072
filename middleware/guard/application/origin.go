package application

import (
	"fmt"
	"net/url"
	"strings"

	"request-guard/middleware/guard/domain"
)

// OriginPolicy valida o header Origin contra o Host da requisição
// (proteção simples contra CSRF).
type OriginPolicy struct {
	Mode domain.Mode
}

// Check devolve nil se a origem é aceita.
//
// strict=true: Origin ausente é rejeitado (rotas que mudam estado).
// strict=false: Origin ausente passa (curl, server-to-server), mas um Origin
// presente continua sendo validado.
//
// Origin malformado é rejeitado, nunca tratado como ausente.
func (p OriginPolicy) Check(origin, host string, strict bool) error {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		if strict {
			return fmt.Errorf("%w: missing origin", domain.ErrOriginRejected)
		}
		return nil
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: malformed origin %q", domain.ErrOriginRejected, origin)
	}

	if host != "" && u.Host == host {
		return nil
	}

	// localhost só em desenvolvimento. Nunca em produção.
	if p.Mode.IsDevelopment() {
		if strings.Contains(u.Host, "localhost") || strings.Contains(u.Host, "127.0.0.1") {
			return nil
		}
	}

	return fmt.Errorf("%w: origin %q does not match host %q", domain.ErrOriginRejected, u.Host, host)
}
