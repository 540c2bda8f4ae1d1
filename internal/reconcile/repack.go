package reconcile

import (
	"fmt"
	"os"
	"path/filepath"

	"romorganizer/internal/archiveio"

	"go.uber.org/zap"
)

// extractions tracks, for the duration of one scan/rebuild run, which
// sets have already been extracted into the scratch tree, so the same
// archive is never extracted twice.
type extractions struct {
	scratchRoot string
	extracted   map[string]bool
}

func newExtractions(scratchRoot string) *extractions {
	return &extractions{scratchRoot: scratchRoot, extracted: map[string]bool{}}
}

func (e *extractions) dir(setName string) string {
	return filepath.Join(e.scratchRoot, setName)
}

// ensureExtracted extracts archivePath's set into the scratch tree the
// first time it's asked for; later calls for the same set are no-ops,
// so an archive already extracted (or merged into) is never re-read.
func (e *extractions) ensureExtracted(setName, archivePath string) error {
	if e.extracted[setName] {
		return nil
	}
	if _, err := os.Stat(archivePath); err != nil {
		if os.IsNotExist(err) {
			e.extracted[setName] = true
			return nil
		}
		return err
	}
	if err := archiveio.Extract(archivePath, e.dir(setName)); err != nil {
		return fmt.Errorf("%w: %v", archiveio.ErrUnreadable, err)
	}
	e.extracted[setName] = true
	return nil
}

// filesInSet lists every regular file currently staged for setName.
func (e *extractions) filesInSet(setName string) ([]string, error) {
	root := e.dir(setName)
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// repackTouchedSets rewrites the romset archive for every set named in
// touched from whatever currently sits in its scratch subtree. A set
// left with no files has its archive removed entirely rather than
// rewritten as an empty zip (an explicit implementer decision — see
// DESIGN.md).
func (r *Reconciler) repackTouchedSets(romsetDir string, ex *extractions, touched map[string]bool, logger *zap.Logger) error {
	for setName := range touched {
		files, err := ex.filesInSet(setName)
		if err != nil {
			return fmt.Errorf("reconcile: list scratch files for %s: %w", setName, err)
		}

		archivePath := filepath.Join(romsetDir, setName+".zip")
		if len(files) == 0 {
			if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reconcile: remove emptied archive %s: %w", archivePath, err)
			}
			logger.Info("set has no remaining matched files, archive removed", zap.String("set", setName))
			continue
		}

		if err := archiveio.WriteZip(archivePath, files, ex.dir(setName), r.ZipLevel); err != nil {
			return fmt.Errorf("reconcile: repack %s: %w", setName, err)
		}
		logger.Info("repacked set", zap.String("set", setName), zap.Int("files", len(files)))
	}
	return nil
}
