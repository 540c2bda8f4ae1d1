package dat

// Index is the duplicate-aware view over a loaded catalog. It is built
// once per catalog load and then partially mutated during a scan: the
// sha1 free pool shrinks as the reconciler claims identities for
// physically-identical files (see ClaimSHA1).
type Index struct {
	// Entries preserves DAT order.
	Entries []Entry

	crc32Dup map[string]bool
	sha1Dup  map[string]bool

	// firstByCRC32 and firstBySHA1 record the first (DAT-order) identity
	// for each hash value, used by NameOf.
	firstByCRC32 map[string]Identity
	firstBySHA1  map[string]Identity

	byIdentity map[Identity]Entry

	// sha1Pool is the mutable duplicate-SHA1 free pool: for each
	// duplicated SHA-1, the identities still unclaimed during the
	// current scan. It is reset by ResetPool before each run.
	sha1Pool map[string][]Identity
}

func build(entries []Entry) *Index {
	idx := &Index{
		Entries:      entries,
		crc32Dup:     map[string]bool{},
		sha1Dup:      map[string]bool{},
		firstByCRC32: map[string]Identity{},
		firstBySHA1:  map[string]Identity{},
		byIdentity:   map[Identity]Entry{},
	}

	crcCount := map[string]int{}
	sha1Count := map[string]int{}
	for _, e := range entries {
		crcCount[e.CRC32]++
		sha1Count[e.SHA1]++
	}
	for h, n := range crcCount {
		if n > 1 {
			idx.crc32Dup[h] = true
		}
	}
	for h, n := range sha1Count {
		if n > 1 {
			idx.sha1Dup[h] = true
		}
	}

	for _, e := range entries {
		id := e.Identity()
		idx.byIdentity[id] = e
		if _, ok := idx.firstByCRC32[e.CRC32]; !ok {
			idx.firstByCRC32[e.CRC32] = id
		}
		if _, ok := idx.firstBySHA1[e.SHA1]; !ok {
			idx.firstBySHA1[e.SHA1] = id
		}
	}

	idx.ResetPool()
	return idx
}

// ResetPool rebuilds the duplicate-SHA1 free pool to its full state.
// Call it once at the start of every scan, before any claims happen.
func (idx *Index) ResetPool() {
	idx.sha1Pool = map[string][]Identity{}
	for _, e := range idx.Entries {
		if idx.sha1Dup[e.SHA1] {
			idx.sha1Pool[e.SHA1] = append(idx.sha1Pool[e.SHA1], e.Identity())
		}
	}
}

// InDat reports whether hash is present in the catalog under kind.
func (idx *Index) InDat(hash string, kind Kind) bool {
	_, ok := idx.lookup(hash, kind)
	return ok
}

// IsCRCDuplicate reports whether crc32 appears on more than one entry.
func (idx *Index) IsCRCDuplicate(crc32 string) bool {
	return idx.crc32Dup[crc32]
}

// IsSHA1Duplicate reports whether sha1 appears on more than one entry.
func (idx *Index) IsSHA1Duplicate(sha1 string) bool {
	return idx.sha1Dup[sha1]
}

// NameOf returns the first (DAT-order) identity matching hash.
func (idx *Index) NameOf(hash string, kind Kind) (Identity, bool) {
	return idx.lookup(hash, kind)
}

func (idx *Index) lookup(hash string, kind Kind) (Identity, bool) {
	var m map[string]Identity
	switch kind {
	case CRC:
		m = idx.firstByCRC32
	case SHA1:
		m = idx.firstBySHA1
	}
	id, ok := m[hash]
	return id, ok
}

// HashOf returns the catalog entry for (set, rom).
func (idx *Index) HashOf(set, rom string) (Entry, bool) {
	e, ok := idx.byIdentity[Identity{SetName: set, RomName: rom}]
	return e, ok
}

// ClaimSHA1 resolves a duplicated SHA-1 to a single identity, consuming
// it from the free pool so that a later file with the same SHA-1
// receives a different identity. preferredRomName, when it occurs
// among the pool's remaining candidates, is claimed first; otherwise
// the first remaining candidate (DAT order) is claimed.
func (idx *Index) ClaimSHA1(sha1, preferredRomName string) (Identity, bool) {
	pool := idx.sha1Pool[sha1]
	if len(pool) == 0 {
		return Identity{}, false
	}

	claimIndex := 0
	for i, id := range pool {
		if id.RomName == preferredRomName {
			claimIndex = i
			break
		}
	}

	claimed := pool[claimIndex]
	idx.sha1Pool[sha1] = append(pool[:claimIndex], pool[claimIndex+1:]...)
	return claimed, true
}
