// Package cache: see cache.go and tokenizer.go.
//
// # Wire format
//
// Line 1 is a fixed signature. Line 2 is a six-field header record.
// Line 3 is blank. Every line after that is one Entry as six quoted
// fields. A field value of "-" in MD5 or SHA1 means that hash was not
// consulted when the entry was recorded; UpdateAgainstDat treats it as
// "do not compare" rather than as a real hash to check.
//
// # Atomicity
//
// Save always writes to a sibling "<path>.tmp" and commits with
// os.Rename, never to a fixed-name temp file in the working directory.
package cache
