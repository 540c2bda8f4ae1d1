// Package dat parses a DAT catalog and builds the duplicate-aware
// identity index the reconciler resolves every scanned file against.
package dat

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"romorganizer/internal/convert"
)

// Identity names a catalog entry by the pair the rest of the system
// treats as its primary key.
type Identity struct {
	SetName string
	RomName string
}

// Entry is one rom row of the catalog.
type Entry struct {
	SetName string
	RomName string
	Size    uint64
	CRC32   string
	MD5     string
	SHA1    string
}

// Identity returns e's (set_name, rom_name) key.
func (e Entry) Identity() Identity {
	return Identity{SetName: e.SetName, RomName: e.RomName}
}

// Kind selects which hash family a lookup runs against.
type Kind int

const (
	CRC Kind = iota
	SHA1
)

// xml schema, grounded on the bodgit/rom and shumatech/gorom DAT
// parsers: <datafile><game name="..."><rom name="..." size="..." crc="..." md5="..." sha1="..."/></game></datafile>.
type xmlDatafile struct {
	Games []xmlGame `xml:"game"`
}

type xmlGame struct {
	Name string    `xml:"name,attr"`
	Roms []xmlRom  `xml:"rom"`
}

type xmlRom struct {
	Name string `xml:"name,attr"`
	Size string `xml:"size,attr"`
	CRC  string `xml:"crc,attr"`
	MD5  string `xml:"md5,attr"`
	SHA1 string `xml:"sha1,attr"`
}

// ErrSchema wraps catalog parse failures that are fatal to the caller.
var ErrSchema = fmt.Errorf("dat: malformed catalog")

func normalizeRomName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// Load parses the catalog at path and builds its duplicate index.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dat: open catalog: %w", err)
	}
	defer f.Close()

	var doc xmlDatafile
	dec := xml.NewDecoder(f)
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	var entries []Entry
	for _, g := range doc.Games {
		if g.Name == "" {
			return nil, fmt.Errorf("%w: game with no name", ErrSchema)
		}
		for _, r := range g.Roms {
			entries = append(entries, Entry{
				SetName: g.Name,
				RomName: normalizeRomName(r.Name),
				Size:    convert.ToUint64(r.Size),
				CRC32:   strings.ToUpper(r.CRC),
				MD5:     strings.ToUpper(r.MD5),
				SHA1:    strings.ToUpper(r.SHA1),
			})
		}
	}

	return build(entries), nil
}
