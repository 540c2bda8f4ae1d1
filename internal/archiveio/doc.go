// Package archiveio: see archiveio.go, zip.go, sevenzip.go, rar.go.
//
// ListWithCRC is the fast path used when no header rule is active: for
// zip and 7z it reads the CRC32 already recorded in the archive's
// directory without decompressing anything. rar carries no such
// directory-level CRC, so it returns ErrUnsupported there and callers
// fall back to Extract followed by hashengine.Hash per entry.
package archiveio
