// Package convert holds small type-coercion helpers. The DAT parser
// reads every field off the wire as XML attribute text and uses
// ToUint64 as a tolerant path to the Go type the rest of the codebase
// expects.
package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// ToUint64 parses a DAT size attribute, which is always decimal text
// but occasionally empty on malformed catalogs. An unparsable value
// yields 0 rather than an error: a missing size never blocks identity
// resolution, which runs entirely on CRC32/MD5/SHA-1.
func ToUint64(s string) uint64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ToString converts common scalar types to string. No package in the
// repository calls it.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
