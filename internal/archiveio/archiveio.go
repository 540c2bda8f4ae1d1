// Package archiveio lists, extracts, and writes the archive formats
// the reconciler deals with: zip for writing and reading, 7z and rar
// for reading only.
package archiveio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies an archive's on-disk encoding by extension.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatSevenZip
	FormatRar
)

// ErrUnsupported is returned by operations a format cannot perform —
// currently only rar's lack of a crc-only fast listing.
var ErrUnsupported = fmt.Errorf("archiveio: unsupported for this format")

// ErrUnreadable wraps a failure to open or read an archive's entries.
var ErrUnreadable = fmt.Errorf("archiveio: archive unreadable")

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return FormatZip
	case ".7z":
		return FormatSevenZip
	case ".rar":
		return FormatRar
	default:
		return FormatUnknown
	}
}

// IsArchive reports whether path has a recognised archive extension.
func IsArchive(path string) bool {
	return formatOf(path) != FormatUnknown
}

// ListWithCRC maps each non-directory entry's path within the archive
// to its uppercase, zero-padded CRC32 (empty for a zero-size entry).
// rar archives don't expose a CRC without decompressing, so this
// returns ErrUnsupported for them; callers fall back to Extract+hash.
func ListWithCRC(archivePath string) (map[string]string, error) {
	switch formatOf(archivePath) {
	case FormatZip:
		return listZipWithCRC(archivePath)
	case FormatSevenZip:
		return listSevenZipWithCRC(archivePath)
	case FormatRar:
		return nil, ErrUnsupported
	default:
		return nil, fmt.Errorf("archiveio: unrecognised archive %s", archivePath)
	}
}

// ListPaths returns the ordered list of entry paths within an archive.
func ListPaths(archivePath string) ([]string, error) {
	switch formatOf(archivePath) {
	case FormatZip:
		return listZipPaths(archivePath)
	case FormatSevenZip:
		return listSevenZipPaths(archivePath)
	case FormatRar:
		return listRarPaths(archivePath)
	default:
		return nil, fmt.Errorf("archiveio: unrecognised archive %s", archivePath)
	}
}

// Extract unpacks every entry of archivePath into destinationDir,
// recreating the archive's internal directory structure and
// preserving timestamps and permissions where the format reports them.
func Extract(archivePath, destinationDir string) error {
	if err := os.MkdirAll(destinationDir, 0o755); err != nil {
		return fmt.Errorf("archiveio: mkdir %s: %w", destinationDir, err)
	}
	switch formatOf(archivePath) {
	case FormatZip:
		return extractZip(archivePath, destinationDir)
	case FormatSevenZip:
		return extractSevenZip(archivePath, destinationDir)
	case FormatRar:
		return extractRar(archivePath, destinationDir)
	default:
		return fmt.Errorf("archiveio: unrecognised archive %s", archivePath)
	}
}
