// Package dat: see dat.go and index.go.
//
// # Duplicate handling
//
// A catalog entry is identified by CRC32 first; when a CRC32 is shared
// by more than one entry, SHA-1 breaks the tie; when the SHA-1 is
// itself shared, the reconciler claims one identity at a time from the
// Index's free pool (ClaimSHA1), so that N physically identical files
// land on N distinct catalog listings instead of colliding on one.
package dat
