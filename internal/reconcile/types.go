package reconcile

import (
	"romorganizer/internal/fsmove"

	"go.uber.org/zap"
)

// Paths names every directory and file a scan or rebuild touches.
type Paths struct {
	CatalogPath string // the DAT file being reconciled against
	DatsRoot    string // root the catalog lives under, for header-rule lookup
	RomsetDir   string
	BackupDir   string
	ScratchDir  string
	HeadersDir  string
	CacheDir    string
	StagingDir  string // rebuild only
}

// Summary is the status-count tuple written into the cache header and
// reported back to the caller.
type Summary struct {
	SetsHave  int
	SetsTotal int
	RomsHave  int
	RomsTotal int
}

// Reconciler drives the scan and rebuild state machines. It holds no
// mutable state of its own between runs; DatIndex and Cache are loaded
// fresh by each call and passed explicitly through the phases.
type Reconciler struct {
	Mover  fsmove.Mover
	Logger *zap.Logger

	// ConfirmUpdate is asked whether to refresh the cache when the
	// catalog on disk has changed. It must never block inside library
	// code on its own — only the caller's implementation may read a
	// terminal, a flag, or a fixed test answer.
	ConfirmUpdate func() bool

	// ZipLevel is the deflate level used when repacking archives.
	ZipLevel int
}

// New returns a Reconciler. confirmUpdate and logger must not be nil;
// pass zap.NewNop() for a silent logger in tests.
func New(mover fsmove.Mover, logger *zap.Logger, confirmUpdate func() bool, zipLevel int) *Reconciler {
	return &Reconciler{
		Mover:         mover,
		Logger:        logger,
		ConfirmUpdate: confirmUpdate,
		ZipLevel:      zipLevel,
	}
}
