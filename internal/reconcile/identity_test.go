package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"romorganizer/internal/dat"
)

const identityCatalog = `<?xml version="1.0"?>
<datafile>
  <game name="Game A">
    <rom name="a.bin" size="1" crc="AAAAAAAA" md5="MA" sha1="SA"/>
  </game>
  <game name="Game B (dup crc, unique sha1)">
    <rom name="b.bin" size="1" crc="CAFEBABE" md5="MB" sha1="SB"/>
  </game>
  <game name="Game C (dup crc, unique sha1)">
    <rom name="c.bin" size="1" crc="CAFEBABE" md5="MC" sha1="SC"/>
  </game>
  <game name="Game D (dup crc and sha1)">
    <rom name="d.bin" size="1" crc="DEADBEEF" md5="MD" sha1="SD"/>
  </game>
  <game name="Game E (dup crc and sha1)">
    <rom name="e.bin" size="1" crc="DEADBEEF" md5="ME" sha1="SD"/>
  </game>
</datafile>`

func loadIdentityCatalog(t *testing.T) *dat.Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.dat")
	require.NoError(t, os.WriteFile(path, []byte(identityCatalog), 0o644))
	idx, err := dat.Load(path)
	require.NoError(t, err)
	return idx
}

func TestResolveIdentityUniqueCRCNeedsNoSHA1(t *testing.T) {
	idx := loadIdentityCatalog(t)
	called := false
	id, found, sha1Duplicate, err := resolveIdentity(idx, "AAAAAAAA", "a.bin", func() (string, error) {
		called = true
		return "", nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, sha1Duplicate)
	assert.False(t, called)
	assert.Equal(t, dat.Identity{SetName: "Game A", RomName: "a.bin"}, id)
}

func TestResolveIdentityDuplicateCRCUniqueSHA1(t *testing.T) {
	idx := loadIdentityCatalog(t)
	id, found, sha1Duplicate, err := resolveIdentity(idx, "CAFEBABE", "c.bin", func() (string, error) {
		return "SC", nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, sha1Duplicate, "sha1 was consulted but is unique in the catalog, not a duplicate")
	assert.Equal(t, dat.Identity{SetName: "Game C (dup crc, unique sha1)", RomName: "c.bin"}, id)
}

func TestResolveIdentityDuplicateSHA1PrefersOwnNameThenFallsBack(t *testing.T) {
	idx := loadIdentityCatalog(t)

	// Own name "e.bin" matches Game E's listing; must be claimed first
	// even though Game D appears first in the catalog.
	id, found, _, err := resolveIdentity(idx, "DEADBEEF", "e.bin", func() (string, error) { return "SD", nil })
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, dat.Identity{SetName: "Game E (dup crc and sha1)", RomName: "e.bin"}, id)

	// The only remaining candidate is claimed next regardless of name.
	id2, found2, _, err := resolveIdentity(idx, "DEADBEEF", "anything.bin", func() (string, error) { return "SD", nil })
	require.NoError(t, err)
	require.True(t, found2)
	assert.Equal(t, dat.Identity{SetName: "Game D (dup crc and sha1)", RomName: "d.bin"}, id2)

	// Pool now exhausted: a third physical copy can't be resolved.
	_, found3, sha1Duplicate, err := resolveIdentity(idx, "DEADBEEF", "d.bin", func() (string, error) { return "SD", nil })
	assert.False(t, found3)
	assert.True(t, sha1Duplicate)
	assert.ErrorIs(t, err, errNoIdentityLeft)
}

func TestResolveIdentityUnknownCRCIsNotFound(t *testing.T) {
	idx := loadIdentityCatalog(t)
	_, found, sha1Duplicate, err := resolveIdentity(idx, "00000000", "x.bin", func() (string, error) {
		t.Fatal("sha1 should not be consulted for a non-duplicate, unknown crc")
		return "", nil
	})
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, sha1Duplicate)
}

func TestResolveIdentityPropagatesSHA1Error(t *testing.T) {
	idx := loadIdentityCatalog(t)
	boom := assert.AnError
	_, _, _, err := resolveIdentity(idx, "CAFEBABE", "c.bin", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
}
