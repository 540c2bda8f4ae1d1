package cmd

import (
	"time"

	"romorganizer/internal/history"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scanCatalogPath string
	scanAssumeYes   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Reconcile the romset directory against a catalog in place",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanCatalogPath, "catalog", "", "path to the DAT catalog (required)")
	scanCmd.Flags().BoolVarP(&scanAssumeYes, "yes", "y", false, "refresh a stale cache without prompting")
	_ = scanCmd.MarkFlagRequired("catalog")
	RootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, _ []string) error {
	cfg, logger, runID, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	paths := pathsFor(cfg, scanCatalogPath, runID)
	defer cleanupScratch(paths, logger)
	r := newReconciler(cfg, logger, scanAssumeYes)

	start := time.Now()
	summary, runErr := r.Scan(paths)
	recordRun(cfg, logger, history.OperationScan, paths, start, summary, runErr)
	if runErr != nil {
		return runErr
	}

	logger.Info("scan complete", zap.String("summary", summaryLine(summary)))
	return nil
}
