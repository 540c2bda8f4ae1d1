package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"romorganizer/internal/archiveio"
	"romorganizer/internal/cache"
	"romorganizer/internal/fsmove"
)

const gameCatalog = `<?xml version="1.0"?>
<datafile>
  <game name="Game A">
    <rom name="a.bin" size="9" crc="CBF43926" md5="" sha1=""/>
  </game>
  <game name="Game B">
    <rom name="b.bin" size="9" crc="E8B7BE43" md5="" sha1=""/>
  </game>
</datafile>`

// crc32("123456789") == CBF43926, Game A's CRC above; payloadA is used
// throughout so that CRC is real. Game B's E8B7BE43 is crc32("a"),
// which no test stages, so Game B stays Missing.
const payloadA = "123456789"

func newTestPaths(t *testing.T) Paths {
	t.Helper()
	root := t.TempDir()
	catalogPath := filepath.Join(root, "dats", "game catalog.dat")
	require.NoError(t, os.MkdirAll(filepath.Dir(catalogPath), 0o755))
	require.NoError(t, os.WriteFile(catalogPath, []byte(gameCatalog), 0o644))

	paths := Paths{
		CatalogPath: catalogPath,
		DatsRoot:    filepath.Join(root, "dats"),
		RomsetDir:   filepath.Join(root, "romset"),
		BackupDir:   filepath.Join(root, "backup"),
		ScratchDir:  filepath.Join(root, "scratch"),
		HeadersDir:  filepath.Join(root, "headers"),
		CacheDir:    filepath.Join(root, "cache"),
		StagingDir:  filepath.Join(root, "staging"),
	}
	for _, d := range []string{paths.RomsetDir, paths.BackupDir, paths.ScratchDir, paths.HeadersDir, paths.CacheDir, paths.StagingDir} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	return paths
}

func newTestReconciler() *Reconciler {
	return New(fsmove.NewOSMover(), zap.NewNop(), func() bool { return true }, 6)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeZipOf(t *testing.T, archivePath string, fileNameToContent map[string]string) {
	t.Helper()
	stage := t.TempDir()
	var files []string
	for name, content := range fileNameToContent {
		p := filepath.Join(stage, name)
		writeFile(t, p, content)
		files = append(files, p)
	}
	require.NoError(t, archiveio.WriteZip(archivePath, files, stage, 6))
}

func TestScanLeavesCorrectlyNamedSetAlone(t *testing.T) {
	paths := newTestPaths(t)
	writeZipOf(t, filepath.Join(paths.RomsetDir, "Game A.zip"), map[string]string{"a.bin": payloadA})

	r := newTestReconciler()
	summary, err := r.Scan(paths)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SetsHave)
	assert.Equal(t, 2, summary.SetsTotal)
	assert.Equal(t, 1, summary.RomsHave)
	assert.Equal(t, 2, summary.RomsTotal)

	c, err := cache.Load(cache.PathFor(paths.CacheDir, paths.CatalogPath))
	require.NoError(t, err)
	entry, ok := c.Get("Game A", "a.bin")
	require.True(t, ok)
	assert.Equal(t, cache.Passed, entry.Status)
}

func TestScanRenamesMisnamedFileIntoCorrectSet(t *testing.T) {
	paths := newTestPaths(t)
	// Right content, wrong set archive and wrong internal name.
	writeZipOf(t, filepath.Join(paths.RomsetDir, "Wrong Name.zip"), map[string]string{"wrong.bin": payloadA})

	r := newTestReconciler()
	summary, err := r.Scan(paths)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RomsHave)

	renamed := filepath.Join(paths.RomsetDir, "Game A.zip")
	entries, err := archiveio.ListPaths(renamed)
	require.NoError(t, err)
	assert.Contains(t, entries, "a.bin")

	_, err = os.Stat(filepath.Join(paths.RomsetDir, "Wrong Name.zip"))
	assert.True(t, os.IsNotExist(err), "source archive should be emptied and removed")
}

func TestScanBacksUpUnmatchedFileInTouchedSet(t *testing.T) {
	paths := newTestPaths(t)
	writeZipOf(t, filepath.Join(paths.RomsetDir, "Wrong Name.zip"), map[string]string{
		"wrong.bin":   payloadA, // matches Game A, triggers a relocation
		"garbage.bin": "nonsense content not in the catalog",
	})

	r := newTestReconciler()
	_, err := r.Scan(paths)
	require.NoError(t, err)

	backedUp := filepath.Join(paths.BackupDir, "Wrong Name", "garbage.bin")
	content, err := os.ReadFile(backedUp)
	require.NoError(t, err)
	assert.Equal(t, "nonsense content not in the catalog", string(content))
}

func TestScanBacksUpWhollyUnmatchedArchive(t *testing.T) {
	paths := newTestPaths(t)
	writeZipOf(t, filepath.Join(paths.RomsetDir, "Junk.zip"), map[string]string{
		"junk.bin": "nonsense content not in the catalog",
	})

	r := newTestReconciler()
	_, err := r.Scan(paths)
	require.NoError(t, err)

	backedUp := filepath.Join(paths.BackupDir, "Junk", "junk.bin")
	content, err := os.ReadFile(backedUp)
	require.NoError(t, err, "an archive matching nothing in the catalog must still be backed up")
	assert.Equal(t, "nonsense content not in the catalog", string(content))

	_, err = os.Stat(filepath.Join(paths.RomsetDir, "Junk.zip"))
	assert.True(t, os.IsNotExist(err), "the emptied archive should be removed")
}

func TestRebuildMergesStagedMatchIntoRomset(t *testing.T) {
	paths := newTestPaths(t)
	writeFile(t, filepath.Join(paths.StagingDir, "a.bin"), payloadA)

	r := newTestReconciler()
	summary, err := r.Rebuild(paths, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RomsHave)

	entries, err := archiveio.ListPaths(filepath.Join(paths.RomsetDir, "Game A.zip"))
	require.NoError(t, err)
	assert.Contains(t, entries, "a.bin")

	remaining, err := os.ReadDir(paths.StagingDir)
	require.NoError(t, err)
	assert.Empty(t, remaining, "staging must be emptied when removeStaging is set")
}

func TestRebuildDiscardsUnmatchedStagedFile(t *testing.T) {
	paths := newTestPaths(t)
	writeFile(t, filepath.Join(paths.StagingDir, "nope.bin"), "not in the catalog")

	r := newTestReconciler()
	summary, err := r.Rebuild(paths, false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RomsHave)

	_, err = os.Stat(filepath.Join(paths.StagingDir, "nope.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestRebuildUnwrapsNestedArchiveInStaging(t *testing.T) {
	paths := newTestPaths(t)
	nested := filepath.Join(paths.StagingDir, "inner.zip")
	writeZipOf(t, nested, map[string]string{"a.bin": payloadA})

	r := newTestReconciler()
	summary, err := r.Rebuild(paths, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RomsHave)
}

func TestRebuildCopiesMatchedFileWhenStagingIsKept(t *testing.T) {
	paths := newTestPaths(t)
	writeFile(t, filepath.Join(paths.StagingDir, "a.bin"), payloadA)

	r := newTestReconciler()
	summary, err := r.Rebuild(paths, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RomsHave)

	entries, err := archiveio.ListPaths(filepath.Join(paths.RomsetDir, "Game A.zip"))
	require.NoError(t, err)
	assert.Contains(t, entries, "a.bin")

	content, err := os.ReadFile(filepath.Join(paths.StagingDir, "a.bin"))
	require.NoError(t, err, "a matched file must be copied, not moved, when removeStaging is false")
	assert.Equal(t, payloadA, string(content))
}

func TestRebuildDiscardsStagedFileAlreadyHeld(t *testing.T) {
	paths := newTestPaths(t)
	writeZipOf(t, filepath.Join(paths.RomsetDir, "Game A.zip"), map[string]string{"a.bin": payloadA})

	r := newTestReconciler()
	_, err := r.Scan(paths)
	require.NoError(t, err)

	writeFile(t, filepath.Join(paths.StagingDir, "dup.bin"), payloadA)
	summary, err := r.Rebuild(paths, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RomsHave)

	entries, err := archiveio.ListPaths(filepath.Join(paths.RomsetDir, "Game A.zip"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the already-held file must not be duplicated in the archive")
}
