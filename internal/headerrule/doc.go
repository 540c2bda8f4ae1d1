// Package headerrule: see headerrule.go.
//
// # Lookup convention
//
// A rule for a catalog lives under the headers root at the same
// relative path as the catalog under the dats root, with any
// release-date suffix stripped and a ".xml" extension. A missing file
// just means header skipping is disabled for that catalog, not an
// error.
package headerrule
