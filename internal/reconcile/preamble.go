package reconcile

import (
	"fmt"
	"os"
	"path/filepath"

	"romorganizer/internal/cache"
	"romorganizer/internal/dat"
	"romorganizer/internal/headerrule"

	"go.uber.org/zap"
)

// ErrInputNotFound is returned when the catalog or romset directory is
// missing; both scan and rebuild treat this as fatal at entry.
var ErrInputNotFound = fmt.Errorf("reconcile: input not found")

func validateInputs(catalogPath, folderPath string) error {
	if _, err := os.Stat(catalogPath); err != nil {
		return fmt.Errorf("%w: catalog %s: %v", ErrInputNotFound, catalogPath, err)
	}
	info, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("%w: folder %s: %v", ErrInputNotFound, folderPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInputNotFound, folderPath)
	}
	return nil
}

// bootstrapCache loads the cache for catalogPath, creating it if
// absent, and refreshes it against idx when the catalog has changed
// and the caller confirms.
func (r *Reconciler) bootstrapCache(paths Paths, folderPath string, idx *dat.Index) (*cache.Cache, error) {
	catalogFilename := filepath.Base(paths.CatalogPath)
	cachePath := cache.PathFor(paths.CacheDir, paths.CatalogPath)

	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		return cache.Create(cachePath, catalogFilename, folderPath)
	}

	c, err := cache.Load(cachePath)
	if err != nil {
		return nil, err
	}

	if c.HasUpdate(catalogFilename) {
		r.Logger.Info("catalog changed since last cache write",
			zap.String("cached_catalog", c.Header.CatalogFilename),
			zap.String("current_catalog", catalogFilename))
		if r.ConfirmUpdate() {
			c.UpdateAgainstDat(idx, catalogFilename)
			if err := c.Save(); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

func loadCatalogAndRule(paths Paths) (*dat.Index, *headerrule.Rule, error) {
	idx, err := dat.Load(paths.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	rule, err := headerrule.LoadForCatalog(paths.HeadersDir, paths.DatsRoot, paths.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	return idx, rule, nil
}
