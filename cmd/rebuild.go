package cmd

import (
	"time"

	"romorganizer/internal/history"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rebuildCatalogPath   string
	rebuildAssumeYes     bool
	rebuildRemoveStaging bool
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Absorb the staging directory into the romset",
	RunE:  runRebuild,
}

func init() {
	rebuildCmd.Flags().StringVar(&rebuildCatalogPath, "catalog", "", "path to the DAT catalog (required)")
	rebuildCmd.Flags().BoolVarP(&rebuildAssumeYes, "yes", "y", false, "refresh a stale cache without prompting")
	rebuildCmd.Flags().BoolVar(&rebuildRemoveStaging, "remove-staging", true, "empty the staging directory once absorbed")
	_ = rebuildCmd.MarkFlagRequired("catalog")
	RootCmd.AddCommand(rebuildCmd)
}

func runRebuild(_ *cobra.Command, _ []string) error {
	cfg, logger, runID, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	paths := pathsFor(cfg, rebuildCatalogPath, runID)
	defer cleanupScratch(paths, logger)
	r := newReconciler(cfg, logger, rebuildAssumeYes)

	start := time.Now()
	summary, runErr := r.Rebuild(paths, rebuildRemoveStaging)
	recordRun(cfg, logger, history.OperationRebuild, paths, start, summary, runErr)
	if runErr != nil {
		return runErr
	}

	logger.Info("rebuild complete", zap.String("summary", summaryLine(summary)))
	return nil
}
