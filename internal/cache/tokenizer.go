package cache

import (
	"fmt"
	"strings"
)

// tokenizeQuotedFields splits a cache line into its double-quoted
// fields. Unlike a shell lexer, there is no escape mechanism and no
// unquoted-word support: every field must be a complete "..." token,
// and a quote may contain spaces verbatim. This is deliberately
// narrower than a general shell tokenizer — the wire format has no
// escaping to get wrong.
func tokenizeQuotedFields(line string) ([]string, error) {
	var fields []string
	i := 0
	for i < len(line) {
		if line[i] == ' ' || line[i] == '\t' {
			i++
			continue
		}
		if line[i] != '"' {
			return nil, fmt.Errorf("cache: expected quoted field at %q", line[i:])
		}
		end := strings.IndexByte(line[i+1:], '"')
		if end < 0 {
			return nil, fmt.Errorf("cache: unterminated quoted field")
		}
		fields = append(fields, line[i+1:i+1+end])
		i = i + 1 + end + 1
	}
	return fields, nil
}

func writeQuotedFields(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('"')
		b.WriteString(f)
		b.WriteByte('"')
	}
}
