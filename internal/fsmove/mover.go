package fsmove

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Mover abstracts the local filesystem operations the reconciler needs
// when relocating files between the romset, backup, scratch, and
// staging directories. The indirection exists so internal/reconcile can be
// exercised against a mock instead of a real filesystem, the same role
// the teacher's storage.Client interface plays for MinIO calls.
type Mover interface {
	// Move relocates src to dst, creating dst's parent directories as
	// needed. It must succeed across directory trees even when they sit
	// on different filesystems.
	Move(src, dst string) error
	// Copy duplicates src to dst, creating dst's parent directories as
	// needed, without removing src.
	Copy(src, dst string) error
	MkdirAll(path string) error
	RemoveAll(path string) error
	Exists(path string) (bool, error)
	// RemoveEmptyDirs walks root bottom-up and deletes any directory
	// left with no entries, stopping at (and leaving) root itself.
	RemoveEmptyDirs(root string) error
}

// OSMover is the real Mover, backed directly by the os and io packages.
type OSMover struct{}

// NewOSMover returns the default, filesystem-backed Mover.
func NewOSMover() Mover {
	return OSMover{}
}

func (OSMover) Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("move %s -> %s: %w", src, dst, err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// os.Rename fails across filesystems/devices; fall back to copy+remove.
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("move %s -> %s: %w", src, dst, err)
	}
	return os.Remove(src)
}

func (OSMover) Copy(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return copyFile(src, dst)
}

func (OSMover) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OSMover) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (OSMover) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (OSMover) RemoveEmptyDirs(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(root, e.Name())
		if err := (OSMover{}).RemoveEmptyDirs(sub); err != nil {
			return err
		}
		remaining, err := os.ReadDir(sub)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			if err := os.Remove(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
