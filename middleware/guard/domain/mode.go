package domain

import "strings"

// Mode é o modo de execução do processo. Controla o detalhe de erro
// devolvido ao cliente e a liberação de origens localhost.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
	ModeTest        Mode = "test"
)

// ParseMode aceita os nomes usuais (production/prod, development/dev, test).
// Valor vazio ou desconhecido vira produção: na dúvida, não vaza detalhe.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return ModeDevelopment
	case "test", "testing":
		return ModeTest
	default:
		return ModeProduction
	}
}

func (m Mode) IsProduction() bool {
	return m != ModeDevelopment && m != ModeTest
}

func (m Mode) IsDevelopment() bool { return m == ModeDevelopment }

func (m Mode) String() string {
	if m.IsProduction() {
		return string(ModeProduction)
	}
	return string(m)
}
