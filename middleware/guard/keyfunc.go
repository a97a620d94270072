package guard

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient é a chave usada quando não dá pra descobrir o endereço do cliente.
const UnknownClient = "unknown"

// KeyFunc devolve o identificador do cliente para o rate limit.
type KeyFunc func(r *http.Request) string

// DefaultKeyFunc monta a KeyFunc padrão.
//
// Ordem: keyHeader (se configurado), primeiro IP do X-Forwarded-For,
// X-Real-IP, RemoteAddr (só se useRemoteAddr) e por fim UnknownClient.
func DefaultKeyFunc(keyHeader string, useRemoteAddr bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		// pega o primeiro valor (cliente original)
		for _, h := range []string{"X-Forwarded-For", "X-Real-IP"} {
			if v := r.Header.Get(h); v != "" {
				first, _, _ := strings.Cut(v, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		if useRemoteAddr {
			host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
			if err == nil && host != "" {
				return host
			}
			if r.RemoteAddr != "" {
				return r.RemoteAddr
			}
		}
		return UnknownClient
	}
}

// rateKey junta o cliente com o nome lógico da operação, se houver.
func rateKey(client, routeKey string) string {
	if routeKey == "" {
		return client
	}
	return client + ":" + routeKey
}
