package reconcile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"romorganizer/internal/archiveio"
	"romorganizer/internal/cache"
	"romorganizer/internal/dat"
	"romorganizer/internal/hashengine"
	"romorganizer/internal/headerrule"

	"go.uber.org/zap"
)

// resolved is one file found during Phase A, already resolved to a
// catalog identity.
type resolved struct {
	currentSet  string
	currentPath string // path within currentSet's scratch extraction
	id          dat.Identity
	hashes      hashengine.Result
}

// Scan reconciles the romset directory against the catalog without
// touching the staging directory: every archive already in RomsetDir
// is read, its files are identified against the catalog by hash, and
// any file sitting under the wrong set or name is relocated via the
// scratch directory. Unidentified files are backed up rather than
// deleted or left in place.
func (r *Reconciler) Scan(paths Paths) (Summary, error) {
	if err := validateInputs(paths.CatalogPath, paths.RomsetDir); err != nil {
		return Summary{}, err
	}

	idx, rule, err := loadCatalogAndRule(paths)
	if err != nil {
		return Summary{}, err
	}
	c, err := r.bootstrapCache(paths, paths.RomsetDir, idx)
	if err != nil {
		return Summary{}, err
	}
	idx.ResetPool()

	archives, err := listArchives(paths.RomsetDir)
	if err != nil {
		return Summary{}, err
	}

	ex := newExtractions(paths.ScratchDir)
	touched := map[string]bool{}
	found := map[dat.Identity]bool{}
	keep := map[string]map[string]bool{} // setName -> scratch-relative paths to retain

	retain := func(setName, relPath string) {
		if keep[setName] == nil {
			keep[setName] = map[string]bool{}
		}
		keep[setName][relPath] = true
	}

	for _, archivePath := range archives {
		setName := setNameOf(archivePath)
		entries, hadUnmatched, err := r.identifyArchive(idx, rule, archivePath, setName, ex)
		if err != nil {
			return Summary{}, err
		}
		if hadUnmatched {
			// An archive that matches nothing in the catalog is never
			// referenced from `entries`, so it would otherwise survive
			// untouched — extracted but never backed up or repacked.
			touched[setName] = true
		}

		for _, e := range entries {
			found[e.id] = true
			if e.currentSet == e.id.SetName && filepath.ToSlash(e.currentPath) == e.id.RomName {
				retain(e.currentSet, e.currentPath)
				c.AddOrReplace(cache.Entry{
					SetName: e.id.SetName, RomName: e.id.RomName,
					CRC32: e.hashes.CRC32, MD5: cache.NotCompared, SHA1: sha1OrNotCompared(e.hashes.SHA1),
					Status: cache.Passed,
				})
				continue
			}

			if err := r.relocate(ex, e); err != nil {
				return Summary{}, err
			}
			touched[e.currentSet] = true
			touched[e.id.SetName] = true
			retain(e.id.SetName, e.id.RomName)
			c.AddOrReplace(cache.Entry{
				SetName: e.id.SetName, RomName: e.id.RomName,
				CRC32: e.hashes.CRC32, MD5: cache.NotCompared, SHA1: sha1OrNotCompared(e.hashes.SHA1),
				Status: cache.Passed,
			})
		}
	}

	if err := r.backupUnclaimed(paths.BackupDir, ex, touched, keep); err != nil {
		return Summary{}, err
	}

	synthesizeMissing(c, idx, found)

	if err := r.repackTouchedSets(paths.RomsetDir, ex, touched, r.Logger); err != nil {
		return Summary{}, err
	}

	summary := countStatus(c, idx)
	c.UpdateCounts(summary.SetsHave, summary.SetsTotal, summary.RomsHave, summary.RomsTotal)
	if err := c.Save(); err != nil {
		return Summary{}, err
	}

	return summary, nil
}

func listArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if archiveio.IsArchive(path) {
			out = append(out, path)
		}
	}
	return out, nil
}

func setNameOf(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sha1OrNotCompared(sha1 string) string {
	if sha1 == "" {
		return cache.NotCompared
	}
	return sha1
}

// identifyArchive resolves every file inside archivePath to a catalog
// identity. When no header rule is active it prefers the format's fast
// CRC listing; with a rule, or when the format can't provide one (rar)
// or the listing fails, it extracts the archive into scratch and
// hashes each file.
// hadUnmatched reports whether archivePath holds at least one file
// that doesn't resolve to any catalog identity; callers must still
// inspect (and repack or remove) such an archive even though no
// resolved entry comes back for it.
func (r *Reconciler) identifyArchive(idx *dat.Index, rule *headerrule.Rule, archivePath, setName string, ex *extractions) (entries []resolved, hadUnmatched bool, err error) {
	if rule == nil {
		crcs, err := archiveio.ListWithCRC(archivePath)
		if err == nil {
			return r.identifyFromCRCList(idx, rule, archivePath, setName, crcs, ex)
		}
		if !errors.Is(err, archiveio.ErrUnsupported) {
			r.Logger.Warn("fast CRC listing failed, falling back to extract+hash",
				zap.String("archive", archivePath), zap.Error(err))
		}
	}

	if err := ex.ensureExtracted(setName, archivePath); err != nil {
		return nil, false, err
	}
	return r.identifyFromScratch(idx, rule, setName, ex)
}

// identifyFromCRCList resolves identities using an archive's fast CRC
// listing. The archive is extracted into scratch unconditionally, since
// even a file that resolves to nothing in the catalog must land in
// scratch for backupUnclaimed to pick up.
func (r *Reconciler) identifyFromCRCList(idx *dat.Index, rule *headerrule.Rule, archivePath, setName string, crcs map[string]string, ex *extractions) (entries []resolved, hadUnmatched bool, err error) {
	if err := ex.ensureExtracted(setName, archivePath); err != nil {
		return nil, false, err
	}

	var out []resolved
	for entryPath, crc := range crcs {
		currentName := filepath.ToSlash(entryPath)

		var hashes hashengine.Result
		hashes.CRC32 = crc

		sha1Fn := func() (string, error) {
			full, err := hashengine.Hash(filepath.Join(ex.dir(setName), entryPath), rule)
			if err != nil {
				return "", err
			}
			hashes = full
			hashes.CRC32 = crc
			return full.SHA1, nil
		}

		id, ok, _, err := resolveIdentity(idx, crc, currentName, sha1Fn)
		if err != nil && !errors.Is(err, errNoIdentityLeft) {
			return nil, false, err
		}
		if !ok {
			r.Logger.Info("unmatched file in romset", zap.String("set", setName), zap.String("path", entryPath))
			hadUnmatched = true
			continue
		}
		out = append(out, resolved{currentSet: setName, currentPath: entryPath, id: id, hashes: hashes})
	}
	return out, hadUnmatched, nil
}

// identifyFromScratch resolves identities for every file already
// extracted into scratch for setName, computing the full hash triple
// up front (used whenever a header rule is active, for rar, and as the
// fallback for any format whose fast listing failed).
func (r *Reconciler) identifyFromScratch(idx *dat.Index, rule *headerrule.Rule, setName string, ex *extractions) (entries []resolved, hadUnmatched bool, err error) {
	files, err := ex.filesInSet(setName)
	if err != nil {
		return nil, false, err
	}

	var out []resolved
	root := ex.dir(setName)
	for _, path := range files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, false, err
		}
		hashes, err := hashengine.Hash(path, rule)
		if err != nil {
			return nil, false, err
		}

		sha1Fn := func() (string, error) { return hashes.SHA1, nil }
		id, ok, _, err := resolveIdentity(idx, hashes.CRC32, filepath.ToSlash(rel), sha1Fn)
		if err != nil && !errors.Is(err, errNoIdentityLeft) {
			return nil, false, err
		}
		if !ok {
			r.Logger.Info("unmatched file in romset", zap.String("set", setName), zap.String("path", rel))
			hadUnmatched = true
			continue
		}
		out = append(out, resolved{currentSet: setName, currentPath: rel, id: id, hashes: hashes})
	}
	return out, hadUnmatched, nil
}

// relocate moves e's already-extracted file from its current set's
// scratch subtree into the scratch subtree of its resolved identity,
// merging into whatever that target set's archive already contains.
func (r *Reconciler) relocate(ex *extractions, e resolved) error {
	src := filepath.Join(ex.dir(e.currentSet), e.currentPath)
	dst := filepath.Join(ex.dir(e.id.SetName), e.id.RomName)
	if src == dst {
		return nil
	}
	return r.Mover.Move(src, dst)
}

// backupUnclaimed moves every file left in a touched set's scratch
// subtree that isn't in keep — a file whose set was disturbed by a
// relocation but which itself matched nothing, or was superseded by a
// same-named incoming file — into backupDir, so a repack never
// silently reabsorbs an unidentified file into a catalog-named
// archive.
func (r *Reconciler) backupUnclaimed(backupDir string, ex *extractions, touched map[string]bool, keep map[string]map[string]bool) error {
	for setName := range touched {
		root := ex.dir(setName)
		files, err := ex.filesInSet(setName)
		if err != nil {
			return err
		}
		for _, path := range files {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if keep[setName][rel] {
				continue
			}
			dst := filepath.Join(backupDir, setName, rel)
			if err := r.Mover.Move(path, dst); err != nil {
				return err
			}
			r.Logger.Info("backed up unclaimed file", zap.String("set", setName), zap.String("path", rel))
		}
	}
	return nil
}

// synthesizeMissing records a Missing cache entry for every catalog
// identity that no physical file resolved to during this scan and
// that the cache doesn't already carry as Passed.
func synthesizeMissing(c *cache.Cache, idx *dat.Index, found map[dat.Identity]bool) {
	passed := c.PassedIdentities()
	for _, e := range idx.Entries {
		id := e.Identity()
		if found[id] || passed[id] {
			continue
		}
		c.AddOrReplace(cache.Entry{
			SetName: id.SetName, RomName: id.RomName,
			CRC32: cache.NotCompared, MD5: cache.NotCompared, SHA1: cache.NotCompared,
			Status: cache.Missing,
		})
	}
}

// countStatus derives the have/total tuple from the catalog and the
// cache's current Passed set. A set counts as "have" only when every
// rom it lists in the catalog is Passed.
func countStatus(c *cache.Cache, idx *dat.Index) Summary {
	passed := c.PassedIdentities()

	romsTotal := len(idx.Entries)
	romsHave := 0
	setTotalRoms := map[string]int{}
	setHaveRoms := map[string]int{}
	var setOrder []string
	seenSet := map[string]bool{}

	for _, e := range idx.Entries {
		if !seenSet[e.SetName] {
			seenSet[e.SetName] = true
			setOrder = append(setOrder, e.SetName)
		}
		setTotalRoms[e.SetName]++
		if passed[e.Identity()] {
			romsHave++
			setHaveRoms[e.SetName]++
		}
	}

	setsHave := 0
	for _, s := range setOrder {
		if setHaveRoms[s] == setTotalRoms[s] {
			setsHave++
		}
	}

	return Summary{
		SetsHave:  setsHave,
		SetsTotal: len(setOrder),
		RomsHave:  romsHave,
		RomsTotal: romsTotal,
	}
}
