// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryWindowStore: janela fixa por chave em memória (mutex + varredura)
//   - RedisWindowStore: janela fixa em Redis (INCR + PEXPIRE atômicos via Lua)
//   - MemoryStatsStore / RedisStatsStore / PrometheusStatsStore: estatísticas do guard
package infra
