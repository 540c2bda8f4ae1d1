package archiveio

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

func listZipWithCRC(path string) (map[string]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer r.Close()

	out := make(map[string]string, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out[f.Name] = crcString(f.CRC32, f.UncompressedSize64)
	}
	return out, nil
}

func listZipPaths(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
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

func extractZip(path, destDir string) error {
	r, err := zip.OpenReader(path)
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
		if err := extractZipEntry(f, target); err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		_ = os.Chtimes(target, f.Modified, f.Modified)
	}
	return nil
}

func extractZipEntry(f *zip.File, target string) error {
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

// WriteZip packs files (absolute paths under root) into a new deflate
// zip at outPath, with in-archive paths computed relative to root.
func WriteZip(outPath string, files []string, root string, level int) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("archiveio: mkdir for %s: %w", outPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("archiveio: create %s: %w", outPath, err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	w.RegisterCompressor(zip.Deflate, func(dst io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(dst, level)
	})
	defer w.Close()

	for _, file := range files {
		if err := writeZipEntry(w, file, root); err != nil {
			return fmt.Errorf("archiveio: pack %s: %w", file, err)
		}
	}

	return w.Close()
}

func writeZipEntry(w *zip.Writer, file, root string) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}

	archivePath := strings.TrimPrefix(file, root)
	archivePath = strings.TrimPrefix(archivePath, string(filepath.Separator))
	archivePath = filepath.ToSlash(archivePath)

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = archivePath
	header.Method = zip.Deflate

	writer, err := w.CreateHeader(header)
	if err != nil {
		return err
	}

	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(writer, in)
	return err
}

func crcString(crc uint32, size uint64) string {
	if size == 0 {
		return ""
	}
	return fmt.Sprintf("%08X", crc)
}
