package projects

import "strings"

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"`", "&#x60;",
	"/", "&#x2F;",
)

// SanitizeText escapa caracteres com significado em HTML antes de gravar.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	return htmlEscaper.Replace(s)
}
