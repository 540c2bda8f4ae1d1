// Package cache persists per-catalog reconciliation state: which
// catalog entries have been verified present (and against which
// hashes) and which are still missing.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"romorganizer/internal/dat"
	"romorganizer/internal/datname"
)

// Signature is the fixed first line of every cache file.
const Signature = "romorganizer cache version 1.0"

// Status is a CacheEntry's reconciliation state.
type Status string

const (
	Passed  Status = "Passed"
	Missing Status = "Missing"
)

// NotCompared is the wire-format sentinel for "this hash was not
// consulted"; it is never held in memory outside of an Entry's MD5/SHA1
// field, which is itself just a string carrying this value or a real
// hash.
const NotCompared = "-"

// Entry is one reconciliation record, keyed by (SetName, RomName).
type Entry struct {
	SetName string
	RomName string
	CRC32   string
	MD5     string
	SHA1    string
	Status  Status
}

// Identity returns e's (set_name, rom_name) key.
func (e Entry) Identity() dat.Identity {
	return dat.Identity{SetName: e.SetName, RomName: e.RomName}
}

// Header is the cache document's second line.
type Header struct {
	CatalogFilename string
	FolderPath      string
	SetsHave        int
	SetsTotal       int
	RomsHave        int
	RomsTotal       int
}

// Cache is a loaded, mutable cache document.
type Cache struct {
	path    string
	Header  Header
	Entries []Entry

	byIdentity map[dat.Identity]int // index into Entries
}

// ErrCorrupt wraps a cache file that fails to parse.
var ErrCorrupt = fmt.Errorf("cache: corrupt")

// PathFor derives the cache file's path for a catalog: same base name
// (date suffix stripped) under cacheDir, with a ".cache" extension.
func PathFor(cacheDir, catalogPath string) string {
	stem := datname.StripDateSuffixNoExt(filepath.Base(catalogPath))
	return filepath.Join(cacheDir, stem+".cache")
}

// Create writes and returns a brand-new, empty cache for a catalog.
func Create(path, catalogFilename, folderPath string) (*Cache, error) {
	c := &Cache{
		path: path,
		Header: Header{
			CatalogFilename: catalogFilename,
			FolderPath:      folderPath,
		},
		byIdentity: map[dat.Identity]int{},
	}
	if err := c.Save(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses the cache file at path.
func Load(path string) (*Cache, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", path, err)
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("%w: %s: too few lines", ErrCorrupt, path)
	}
	if lines[0] != Signature {
		return nil, fmt.Errorf("%w: %s: bad signature", ErrCorrupt, path)
	}

	headerFields, err := tokenizeQuotedFields(lines[1])
	if err != nil || len(headerFields) != 6 {
		return nil, fmt.Errorf("%w: %s: bad header record", ErrCorrupt, path)
	}

	header := Header{
		CatalogFilename: headerFields[0],
		FolderPath:      headerFields[1],
	}
	header.SetsHave, _ = strconv.Atoi(headerFields[2])
	header.SetsTotal, _ = strconv.Atoi(headerFields[3])
	header.RomsHave, _ = strconv.Atoi(headerFields[4])
	header.RomsTotal, _ = strconv.Atoi(headerFields[5])

	c := &Cache{
		path:       path,
		Header:     header,
		byIdentity: map[dat.Identity]int{},
	}

	for i := 3; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		fields, err := tokenizeQuotedFields(lines[i])
		if err != nil || len(fields) != 6 {
			return nil, fmt.Errorf("%w: %s: bad entry on line %d", ErrCorrupt, path, i+1)
		}
		entry := Entry{
			SetName: fields[0],
			RomName: fields[1],
			CRC32:   fields[2],
			MD5:     fields[3],
			SHA1:    fields[4],
			Status:  Status(fields[5]),
		}
		c.append(entry)
	}

	return c, nil
}

func (c *Cache) append(e Entry) {
	c.byIdentity[e.Identity()] = len(c.Entries)
	c.Entries = append(c.Entries, e)
}

// Get returns the entry for (set, rom), if any.
func (c *Cache) Get(set, rom string) (Entry, bool) {
	i, ok := c.byIdentity[dat.Identity{SetName: set, RomName: rom}]
	if !ok {
		return Entry{}, false
	}
	return c.Entries[i], true
}

// AddOrReplace upserts each entry by (SetName, RomName) identity,
// replacing any existing entry with the same identity in place and
// appending genuinely new ones, preserving catalog order of insertion
// modulo identity replacement.
func (c *Cache) AddOrReplace(entries ...Entry) {
	for _, e := range entries {
		id := e.Identity()
		if i, ok := c.byIdentity[id]; ok {
			c.Entries[i] = e
			continue
		}
		c.append(e)
	}
}

// HasUpdate reports whether the cached header's catalog filename
// differs from catalogFilename — the signal that the catalog on disk
// has been replaced. It compares filenames only, not content; an
// identically-named catalog with different content is not detected.
func (c *Cache) HasUpdate(catalogFilename string) bool {
	return c.Header.CatalogFilename != catalogFilename
}

// UpdateAgainstDat keeps exactly the entries whose identity and
// hashes still match idx, drops the rest, and resets the header to
// zeroed counts under the catalog's current filename. It is
// idempotent: running it twice against the same idx yields the same
// cache contents.
func (c *Cache) UpdateAgainstDat(idx *dat.Index, catalogFilename string) {
	kept := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		catalogEntry, ok := idx.HashOf(e.SetName, e.RomName)
		if !ok || catalogEntry.CRC32 != e.CRC32 {
			continue
		}
		if e.MD5 != NotCompared && catalogEntry.MD5 != e.MD5 {
			continue
		}
		if e.SHA1 != NotCompared && catalogEntry.SHA1 != e.SHA1 {
			continue
		}
		kept = append(kept, e)
	}

	c.Entries = kept
	c.byIdentity = map[dat.Identity]int{}
	for i, e := range c.Entries {
		c.byIdentity[e.Identity()] = i
	}

	c.Header.CatalogFilename = catalogFilename
	c.Header.SetsHave = 0
	c.Header.SetsTotal = 0
	c.Header.RomsHave = 0
	c.Header.RomsTotal = 0
}

// UpdateCounts overwrites the header's status counts.
func (c *Cache) UpdateCounts(setsHave, setsTotal, romsHave, romsTotal int) {
	c.Header.SetsHave = setsHave
	c.Header.SetsTotal = setsTotal
	c.Header.RomsHave = romsHave
	c.Header.RomsTotal = romsTotal
}

// PassedIdentities returns the set of identities currently Passed.
func (c *Cache) PassedIdentities() map[dat.Identity]bool {
	out := map[dat.Identity]bool{}
	for _, e := range c.Entries {
		if e.Status == Passed {
			out[e.Identity()] = true
		}
	}
	return out
}

// Save rewrites the cache file atomically: the new content is written
// to a sibling temp file and committed with os.Rename, so readers
// never observe a partially written cache and a crash mid-write loses
// only the pending update, never the prior good state.
func (c *Cache) Save() error {
	var b strings.Builder
	b.WriteString(Signature)
	b.WriteByte('\n')
	writeQuotedFields(&b, []string{
		c.Header.CatalogFilename,
		c.Header.FolderPath,
		strconv.Itoa(c.Header.SetsHave),
		strconv.Itoa(c.Header.SetsTotal),
		strconv.Itoa(c.Header.RomsHave),
		strconv.Itoa(c.Header.RomsTotal),
	})
	b.WriteByte('\n')
	b.WriteByte('\n')
	for _, e := range c.Entries {
		writeQuotedFields(&b, []string{e.SetName, e.RomName, e.CRC32, e.MD5, e.SHA1, string(e.Status)})
		b.WriteByte('\n')
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("cache: mkdir: %w", err)
	}
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("cache: write temp: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("cache: commit: %w", err)
	}
	return nil
}
