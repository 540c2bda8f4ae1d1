package archiveio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

// rar doesn't expose a per-entry CRC without decompressing, so there
// is no listSevenZipWithCRC-style fast path; ListWithCRC returns
// ErrUnsupported for rar archives at the archiveio.go dispatch layer.

func listRarPaths(path string) ([]string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer r.Close()

	var out []string
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		if header.IsDir {
			continue
		}
		out = append(out, header.Name)
	}
	return out, nil
}

func extractRar(path, destDir string) error {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer r.Close()

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}

		target := filepath.Join(destDir, header.Name)
		if header.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, r); err != nil {
			out.Close()
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		if err := out.Close(); err != nil {
			return err
		}
		_ = os.Chtimes(target, header.ModificationTime, header.ModificationTime)
	}
	return nil
}
