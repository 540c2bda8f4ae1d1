// Package fsmove provides the filesystem relocation operations the
// reconciler performs against the romset, backup, scratch, and staging
// directories.
//
// # Mover Interface
//
// The Mover interface abstracts move/copy/mkdir/remove so that
// internal/reconcile can be tested against a mock (see fsmove/mocks)
// instead of a real filesystem.
//
// # Usage
//
//	mover := fsmove.NewOSMover()
//	err := mover.Move(archivedPath, backupPath)
package fsmove
