package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"romorganizer/internal/config"
	"romorganizer/internal/fsmove"
	"romorganizer/internal/history"
	"romorganizer/internal/logging"
	"romorganizer/internal/reconcile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// loadConfig reads .env from --config plus the environment and builds
// the logger it specifies.
func loadConfig() (*config.Config, *zap.Logger, string, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, "", fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(&cfg.Log)
	if err != nil {
		return nil, nil, "", fmt.Errorf("build logger: %w", err)
	}
	runID := uuid.NewString()
	return cfg, logging.WithRun(logger, runID), runID, nil
}

// pathsFor resolves every directory a run touches, given the catalog
// being reconciled against. ScratchDir is namespaced under a
// UUID-suffixed subdirectory unique to runID, so two runs launched
// concurrently against the same romset never share (and corrupt) each
// other's extraction scratch space.
func pathsFor(cfg *config.Config, catalogPath, runID string) reconcile.Paths {
	return reconcile.Paths{
		CatalogPath: catalogPath,
		DatsRoot:    cfg.Directories.Dats,
		RomsetDir:   cfg.Directories.Romset,
		BackupDir:   cfg.Directories.Backup,
		ScratchDir:  filepath.Join(cfg.Directories.Scratch, runID),
		HeadersDir:  cfg.Directories.Headers,
		CacheDir:    cfg.Directories.Romset,
		StagingDir:  cfg.Directories.Staging,
	}
}

// newReconciler wires a Reconciler from config. When assumeYes is
// true, a stale cache is refreshed without prompting; otherwise the
// operator is asked on stdin.
func newReconciler(cfg *config.Config, logger *zap.Logger, assumeYes bool) *reconcile.Reconciler {
	confirm := func() bool { return assumeYes || confirmOnStdin() }
	return reconcile.New(fsmove.NewOSMover(), logger, confirm, cfg.Archive.CompressionLevel)
}

func confirmOnStdin() bool {
	fmt.Print("catalog has changed since the cache was last written, refresh it? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func summaryLine(s reconcile.Summary) string {
	return fmt.Sprintf("sets %d/%d, roms %d/%d", s.SetsHave, s.SetsTotal, s.RomsHave, s.RomsTotal)
}

// cleanupScratch removes this run's UUID-suffixed scratch subdirectory
// once scan/rebuild has finished with it. A failure here is logged,
// not returned, since the reconciliation outcome itself already
// happened by the time cleanup runs.
func cleanupScratch(paths reconcile.Paths, logger *zap.Logger) {
	if err := os.RemoveAll(paths.ScratchDir); err != nil {
		logger.Warn("failed to remove run scratch directory", zap.String("path", paths.ScratchDir), zap.Error(err))
	}
}

// recordRun appends the outcome of a scan or rebuild to the history
// store. A failure to record is logged, not returned — losing a
// history entry must never be conflated with a failed reconciliation.
func recordRun(cfg *config.Config, logger *zap.Logger, op history.Operation, paths reconcile.Paths, start time.Time, summary reconcile.Summary, runErr error) {
	db, err := history.Connect(cfg.History)
	if err != nil {
		logger.Warn("history store unavailable", zap.Error(err))
		return
	}

	run := history.Run{
		StartedAt:  start,
		Duration:   time.Since(start),
		Operation:  op,
		DatPath:    paths.CatalogPath,
		FolderPath: paths.RomsetDir,
		SetsHave:   summary.SetsHave,
		SetsTotal:  summary.SetsTotal,
		RomsHave:   summary.RomsHave,
		RomsTotal:  summary.RomsTotal,
	}
	if runErr != nil {
		run.Err = runErr.Error()
	}

	if err := history.NewStore(db).Record(run); err != nil {
		logger.Warn("failed to record run history", zap.Error(err))
	}
}
