// Package domain define contratos e tipos de domínio do guard: janelas de rate
// limit, erros classificados, modo de execução e estatísticas.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura.
package domain
