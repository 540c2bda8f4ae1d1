package archiveio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

func listSevenZipWithCRC(path string) (map[string]string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer r.Close()

	out := make(map[string]string, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out[f.Name] = crcString(f.CRC32, f.UncompressedSize)
	}
	return out, nil
}

func listSevenZipPaths(path string) ([]string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer r.Close()

	var out []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out = append(out, f.Name)
	}
	return out, nil
}

func extractSevenZip(path, destDir string) error {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, f.Mode()); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractSevenZipEntry(f, target); err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		_ = os.Chtimes(target, f.Modified, f.Modified)
	}
	return nil
}

func extractSevenZipEntry(f *sevenzip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
