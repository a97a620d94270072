// Package gateway coloca o guard na frente de um upstream HTTP
// (proxy reverso de host único).
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"request-guard/middleware/guard"

	"go.uber.org/zap"
)

type proxyErrKey struct{}

// errSlot guarda o erro de transporte reportado pelo ReverseProxy para o
// handler devolvê-lo ao guard.
type errSlot struct{ err error }

// New devolve o proxy protegido. Métodos seguros usam origem relaxada e os
// demais exigem Origin.
func New(target *url.URL, g *guard.Guard, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(_ http.ResponseWriter, r *http.Request, err error) {
		if slot, ok := r.Context().Value(proxyErrKey{}).(*errSlot); ok {
			slot.err = err
			return
		}
		logger.Error("proxy error without guard slot", zap.Error(err))
	}

	return g.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		slot := &errSlot{}
		ctx := context.WithValue(r.Context(), proxyErrKey{}, slot)
		proxy.ServeHTTP(w, r.WithContext(ctx))
		if slot.err != nil {
			return fmt.Errorf("upstream %s: %w", target.Host, slot.err)
		}
		return nil
	}, guard.WithMethodAwareOriginCheck())
}
