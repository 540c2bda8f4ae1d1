// Package datname holds the small filename conventions shared by the
// cache and header-rule lookups: both need to treat two catalog files
// that differ only by a trailing release-date suffix as "the same
// catalog".
package datname

import (
	"path/filepath"
	"regexp"
	"strings"
)

// dateSuffix matches a trailing parenthesised date — "(20240512)" or
// "(2024-05-12)" — immediately before the extension, the convention
// used by the DAT-producing groups this format comes from.
var dateSuffix = regexp.MustCompile(`\s*\((\d{4}-\d{2}-\d{2}|\d{8})\)$`)

// StripDateSuffix removes a trailing release-date suffix from a
// catalog's base filename (extension included), leaving the stable
// part of the name used for cache-path derivation and header-rule
// lookup.
func StripDateSuffix(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	base = dateSuffix.ReplaceAllString(base, "")
	return base + ext
}

// StripDateSuffixNoExt is StripDateSuffix without the extension, used
// when the caller is about to substitute its own (e.g. ".xml" for a
// header rule file).
func StripDateSuffixNoExt(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return dateSuffix.ReplaceAllString(base, "")
}
