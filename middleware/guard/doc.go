// Package guard fornece o Request Guard: um wrapper net/http que aplica, em
// ordem, rate limit por janela fixa, validação de origem (CSRF) e
// normalização de erros do handler.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (janela fixa, origem, classificação de erro) sem net/http
//   - infra: implementações concretas (store em memória/Redis, estatísticas)
//   - guard (este pacote): wiring HTTP, extração de chave e tradução para status/headers/JSON
//
// Fluxo por requisição:
//
//   1) Extrai o endereço do cliente (X-Forwarded-For/X-Real-IP) e monta a chave
//   2) Pede a decisão de rate limit; se estourou responde 429 + Retry-After
//   3) Se a rota exige, valida Origin contra Host; se falhar responde 403
//   4) Chama o handler; erro ou panic vira JSON {error, code, details?}
//
// Nada que o handler lance passa do guard.
package guard
