package reconcile

import "romorganizer/internal/dat"

// resolveIdentity implements §4.6's identity-resolution algorithm: CRC32
// decides the identity outright unless it is ambiguous in the catalog,
// in which case SHA-1 breaks the tie, and when even the SHA-1 is
// ambiguous the duplicate-SHA-1 free pool assigns one identity per
// physical copy, preferring a copy's own current name first.
//
// sha1 is called lazily so callers avoid computing SHA-1 when CRC32
// alone already resolves the identity.
//
// found is false when crc32 (and, if consulted, the SHA-1) has no
// match in the catalog at all — a genuinely unknown file, which the
// caller treats as unmatched rather than as a pool-exhaustion error.
//
// sha1Duplicate is true only when the identity was resolved by
// claiming from the duplicate-SHA-1 free pool — i.e. the catalog
// itself lists more than one rom under this SHA-1. It is false when
// CRC32 alone resolved the identity or SHA-1 was consulted but is
// unique in the catalog, even though SHA-1 was computed in both
// cases.
func resolveIdentity(idx *dat.Index, crc32, currentRomName string, sha1 func() (string, error)) (id dat.Identity, found, sha1Duplicate bool, err error) {
	if !idx.IsCRCDuplicate(crc32) {
		id, ok := idx.NameOf(crc32, dat.CRC)
		return id, ok, false, nil
	}

	hash, err := sha1()
	if err != nil {
		return dat.Identity{}, false, false, err
	}

	if !idx.IsSHA1Duplicate(hash) {
		id, ok := idx.NameOf(hash, dat.SHA1)
		return id, ok, false, nil
	}

	id, ok := idx.ClaimSHA1(hash, currentRomName)
	if !ok {
		// The free pool is exhausted: more physical copies exist than
		// the catalog lists under this SHA-1. There is nowhere
		// canonical left to put this file; the caller treats it like
		// an unmatched entry.
		return dat.Identity{}, false, true, errNoIdentityLeft
	}
	return id, true, true, nil
}

var errNoIdentityLeft = &noIdentityLeftError{}

type noIdentityLeftError struct{}

func (*noIdentityLeftError) Error() string {
	return "reconcile: duplicate-sha1 free pool exhausted for this hash"
}
