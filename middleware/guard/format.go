// utilitário pequeno para formatação rápida/consistente de valores numéricos em headers.

package guard

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatInt64(v int64) string { return strconv.FormatInt(v, 10) }
