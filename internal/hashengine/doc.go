// Package hashengine: see hashengine.go.
//
// # Header skipping
//
// When a HeaderRule is supplied, Hash first buffers just enough of the
// file's prefix to check every (offset, expected) pair plus the rule's
// start_offset. If they all hold, the returned size and hash values
// cover only bytes [start_offset:]; otherwise the whole file is
// hashed and the buffered prefix is folded in rather than re-read.
package hashengine
