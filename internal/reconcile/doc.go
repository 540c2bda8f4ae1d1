// Package reconcile drives the two top-level operations against a
// catalog: Scan, which brings an existing romset directory in line
// with the catalog in place, and Rebuild, which absorbs a staging
// directory of newly acquired files into it. Both share the same
// identity-resolution rules (see identity.go) and the same
// extract-merge-repack machinery (see repack.go) over a Mover.
package reconcile
