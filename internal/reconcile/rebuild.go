package reconcile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"romorganizer/internal/archiveio"
	"romorganizer/internal/cache"
	"romorganizer/internal/dat"
	"romorganizer/internal/hashengine"

	"go.uber.org/zap"
)

// Rebuild absorbs the staging directory into the romset: every archive
// under StagingDir is recursively extracted (an archive nested inside
// another archive is itself extracted), every resulting file is
// hashed and matched against the catalog, and matches are merged into
// their target set's archive. A matched file already Passed in the
// romset is discarded. A new match is moved into its target set only
// when removeStaging is set and its SHA-1 isn't a catalog duplicate;
// otherwise it's copied, leaving the original behind for a later run —
// a duplicated SHA-1 may still be needed to rebuild a sibling identity,
// and removeStaging=false means the operator wants matched files kept
// in StagingDir. Files that match nothing are deleted, never silently
// repacked. removeStaging, when true, wipes StagingDir once absorption
// finishes; otherwise every file left over from a copy decision is
// restored at the top level of StagingDir and only the empty
// directories absorption leaves behind are pruned.
func (r *Reconciler) Rebuild(paths Paths, removeStaging bool) (Summary, error) {
	if err := validateInputs(paths.CatalogPath, paths.RomsetDir); err != nil {
		return Summary{}, err
	}
	if err := validateInputs(paths.CatalogPath, paths.StagingDir); err != nil {
		return Summary{}, err
	}

	idx, _, err := loadCatalogAndRule(paths)
	if err != nil {
		return Summary{}, err
	}
	c, err := r.bootstrapCache(paths, paths.RomsetDir, idx)
	if err != nil {
		return Summary{}, err
	}
	idx.ResetPool()

	stagingScratch := filepath.Join(paths.ScratchDir, "staging")
	if err := recursivelyExpand(stagingScratch, paths.StagingDir); err != nil {
		return Summary{}, err
	}

	files, err := walkFiles(stagingScratch)
	if err != nil {
		return Summary{}, err
	}

	ex := newExtractions(paths.ScratchDir)
	touched := map[string]bool{}
	passed := c.PassedIdentities()

	for _, path := range files {
		if err := r.absorbStagedFile(paths, idx, ex, c, passed, touched, path, removeStaging); err != nil {
			return Summary{}, err
		}
	}

	if err := r.repackTouchedSets(paths.RomsetDir, ex, touched, r.Logger); err != nil {
		return Summary{}, err
	}

	if removeStaging {
		if err := r.Mover.RemoveAll(paths.StagingDir); err != nil {
			return Summary{}, err
		}
		if err := r.Mover.MkdirAll(paths.StagingDir); err != nil {
			return Summary{}, err
		}
		if err := r.Mover.RemoveAll(stagingScratch); err != nil {
			return Summary{}, err
		}
	} else {
		if err := r.restoreSurvivingStaged(stagingScratch, paths.StagingDir); err != nil {
			return Summary{}, err
		}
		if err := r.Mover.RemoveEmptyDirs(paths.StagingDir); err != nil {
			return Summary{}, err
		}
		if err := r.Mover.RemoveAll(stagingScratch); err != nil {
			return Summary{}, err
		}
	}

	summary := countStatus(c, idx)
	c.UpdateCounts(summary.SetsHave, summary.SetsTotal, summary.RomsHave, summary.RomsTotal)
	if err := c.Save(); err != nil {
		return Summary{}, err
	}

	return summary, nil
}

// restoreSurvivingStaged moves every file still sitting in
// stagingScratch (an unmatched file is always deleted during
// absorption, so whatever remains here is a matched file that was
// copied, not moved, into its target set) back under stagingDir at
// its path relative to stagingScratch, so removeStaging=false keeps
// matched files rather than discarding them in scratch. Expansion
// flattens every staged file to its base name (numbered on collision),
// so a file comes back at the top level of stagingDir, not in the
// subdirectory or archive it was staged in; archives and discarded
// files are not restored.
func (r *Reconciler) restoreSurvivingStaged(stagingScratch, stagingDir string) error {
	files, err := walkFiles(stagingScratch)
	if err != nil {
		return err
	}
	for _, path := range files {
		rel, err := filepath.Rel(stagingScratch, path)
		if err != nil {
			return err
		}
		if err := r.Mover.Move(path, filepath.Join(stagingDir, rel)); err != nil {
			return err
		}
	}
	return nil
}

// absorbStagedFile hashes one staged file, resolves it against the
// catalog, and either discards it (already held), merges it into its
// target set's scratch subtree (new match), or deletes it (no match).
//
// Hashing always runs over the whole file: unlike Scan, Rebuild never
// consults a header rule.
func (r *Reconciler) absorbStagedFile(paths Paths, idx *dat.Index, ex *extractions, c *cache.Cache, passed map[dat.Identity]bool, touched map[string]bool, path string, removeStaging bool) error {
	hashes, err := hashengine.Hash(path, nil)
	if err != nil {
		return err
	}

	currentName := filepath.Base(path)
	sha1Fn := func() (string, error) { return hashes.SHA1, nil }
	id, ok, sha1Duplicate, err := resolveIdentity(idx, hashes.CRC32, currentName, sha1Fn)
	if err != nil && !errors.Is(err, errNoIdentityLeft) {
		return err
	}

	if !ok {
		r.Logger.Info("staged file matches nothing in the catalog, discarding", zap.String("path", path))
		return os.Remove(path)
	}

	if passed[id] {
		r.Logger.Info("staged file already held, discarding", zap.String("set", id.SetName), zap.String("rom", id.RomName))
		return os.Remove(path)
	}

	targetDir := ex.dir(id.SetName)
	if err := r.ensureTargetExtracted(paths, ex, id.SetName); err != nil {
		return err
	}
	dst := filepath.Join(targetDir, id.RomName)

	// Move iff staging is being emptied and this SHA-1 isn't a catalog
	// duplicate; otherwise copy and let restoreSurvivingStaged return
	// the original to StagingDir once absorption finishes. A duplicate
	// SHA-1 is copied regardless of removeStaging because a sibling
	// identity sharing the same physical bytes may still need it on a
	// later run.
	if removeStaging && !sha1Duplicate {
		if err := r.Mover.Move(path, dst); err != nil {
			return err
		}
	} else if err := r.Mover.Copy(path, dst); err != nil {
		return err
	}

	touched[id.SetName] = true
	c.AddOrReplace(cache.Entry{
		SetName: id.SetName, RomName: id.RomName,
		CRC32: hashes.CRC32, MD5: hashes.MD5, SHA1: hashes.SHA1,
		Status: cache.Passed,
	})
	passed[id] = true
	return nil
}

// ensureTargetExtracted makes sure a target set's existing romset
// archive, if any, is already extracted into scratch before a matched
// staged file is merged into it, so repacking doesn't drop whatever
// that archive already held.
func (r *Reconciler) ensureTargetExtracted(paths Paths, ex *extractions, setName string) error {
	archivePath := filepath.Join(paths.RomsetDir, setName+".zip")
	return ex.ensureExtracted(setName, archivePath)
}

// recursivelyExpand moves every plain file under srcRoot to the top
// level of destRoot, extracting any archive it encounters into a
// "<name>.contents" directory under destRoot (then deleting the
// archive itself) and recursing into the result, so an archive nested
// inside another archive is fully unwrapped before matching begins.
// srcRoot is left holding only directory structure once this returns.
func recursivelyExpand(destRoot, srcRoot string) error {
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return err
	}
	return expandDir(destRoot, srcRoot)
}

func expandDir(destRoot, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := expandDir(destRoot, path); err != nil {
				return err
			}
			continue
		}

		if archiveio.IsArchive(path) {
			nested := filepath.Join(destRoot, e.Name()+".contents")
			if err := archiveio.Extract(path, nested); err != nil {
				return err
			}
			if err := expandDir(destRoot, nested); err != nil {
				return err
			}
			if err := os.Remove(path); err != nil {
				return err
			}
			continue
		}

		dst := uniquePath(filepath.Join(destRoot, e.Name()))
		if err := moveIntoScratch(path, dst); err != nil {
			return err
		}
	}
	return nil
}

// uniquePath appends a numeric suffix until path doesn't collide with
// an existing scratch file, since two distinct staged archives can
// legitimately contain files with the same base name.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	for i := 1; ; i++ {
		candidate := stem + "." + strconv.Itoa(i) + ext
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func moveIntoScratch(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
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
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func walkFiles(root string) ([]string, error) {
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
