package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"romorganizer/internal/dat"
)

func TestTokenizeQuotedFieldsAllowsSpaces(t *testing.T) {
	fields, err := tokenizeQuotedFields(`"Game A" "files/a bin.bin" "DEADBEEF" "-" "-" "Passed"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Game A", "files/a bin.bin", "DEADBEEF", "-", "-", "Passed"}, fields)
}

func TestTokenizeQuotedFieldsRejectsUnterminated(t *testing.T) {
	_, err := tokenizeQuotedFields(`"Game A" "unterminated`)
	assert.Error(t, err)
}

func TestCreateLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.cache")
	c, err := Create(path, "sample.dat", "/romset")
	require.NoError(t, err)

	c.AddOrReplace(Entry{SetName: "Game A", RomName: "a.bin", CRC32: "DEADBEEF", MD5: NotCompared, SHA1: NotCompared, Status: Passed})
	c.UpdateCounts(1, 2, 1, 3)
	require.NoError(t, c.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sample.dat", loaded.Header.CatalogFilename)
	assert.Equal(t, 1, loaded.Header.SetsHave)
	assert.Equal(t, 3, loaded.Header.RomsTotal)

	entry, ok := loaded.Get("Game A", "a.bin")
	require.True(t, ok)
	assert.Equal(t, Passed, entry.Status)
	assert.Equal(t, NotCompared, entry.MD5)
}

func TestLoadRejectsBadSignature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cache")
	require.NoError(t, os.WriteFile(path, []byte("not a cache\n\"a\" \"b\"\n\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestAddOrReplaceUpsertsByIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.cache")
	c, err := Create(path, "sample.dat", "/romset")
	require.NoError(t, err)

	c.AddOrReplace(Entry{SetName: "Game A", RomName: "a.bin", CRC32: "111", Status: Missing})
	c.AddOrReplace(Entry{SetName: "Game A", RomName: "a.bin", CRC32: "222", Status: Passed})

	require.Len(t, c.Entries, 1)
	entry, _ := c.Get("Game A", "a.bin")
	assert.Equal(t, "222", entry.CRC32)
	assert.Equal(t, Passed, entry.Status)
}

func TestHasUpdateComparesFilenameOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.cache")
	c, err := Create(path, "sample (20240101).dat", "/romset")
	require.NoError(t, err)

	assert.False(t, c.HasUpdate("sample (20240101).dat"))
	assert.True(t, c.HasUpdate("sample (20240601).dat"))
}

func TestUpdateAgainstDatIsIdempotentAndRespectsNotComparedSentinel(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "sample.dat")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`<?xml version="1.0"?>
<datafile>
  <game name="Game A">
    <rom name="a.bin" size="1" crc="AAAAAAAA" md5="M1" sha1="S1"/>
  </game>
  <game name="Game B">
    <rom name="b.bin" size="1" crc="BBBBBBBB" md5="M2" sha1="S2"/>
  </game>
</datafile>`), 0o644))
	idx, err := dat.Load(catalogPath)
	require.NoError(t, err)

	path := filepath.Join(dir, "sample.cache")
	c, err := Create(path, "sample.dat", "/romset")
	require.NoError(t, err)

	// Verified only by CRC32 (md5/sha1 not compared): must survive
	// UpdateAgainstDat even though its md5/sha1 fields don't match the
	// catalog's, because "-" means "do not compare".
	c.AddOrReplace(Entry{SetName: "Game A", RomName: "a.bin", CRC32: "AAAAAAAA", MD5: NotCompared, SHA1: NotCompared, Status: Passed})
	// Stale entry referring to a catalog identity that no longer matches.
	c.AddOrReplace(Entry{SetName: "Game B", RomName: "b.bin", CRC32: "STALE", MD5: "M2", SHA1: "S2", Status: Passed})

	c.UpdateAgainstDat(idx, "sample.dat")
	require.NoError(t, c.Save())
	firstRun, err := os.ReadFile(path)
	require.NoError(t, err)

	require.Len(t, c.Entries, 1)
	_, stillThere := c.Get("Game A", "a.bin")
	assert.True(t, stillThere)
	_, stale := c.Get("Game B", "b.bin")
	assert.False(t, stale)
	assert.Equal(t, 0, c.Header.SetsHave)

	c.UpdateAgainstDat(idx, "sample.dat")
	require.NoError(t, c.Save())
	secondRun, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, firstRun, secondRun)
}

func TestSaveIsAtomicViaTempFileRename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.cache")
	c, err := Create(path, "sample.dat", "/romset")
	require.NoError(t, err)

	require.NoError(t, c.Save())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not remain after a successful save")
}
