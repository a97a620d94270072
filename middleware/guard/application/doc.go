// Package application contém os casos de uso do guard: decisão de rate limit
// em janela fixa, validação de origem e classificação de erros.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: RateService.Decide(ctx, key) retorna uma Decision (allow/deny + retry-after).
package application
