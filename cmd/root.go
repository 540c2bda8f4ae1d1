package cmd

import (
	"fmt"
	"os"

	"romorganizer/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "romorganizer",
	Short: "Reconcile a folder of archives against a DAT catalog",
	Long: `romorganizer verifies and reorganizes a folder of zip/7z/rar archives
against a declarative catalog (DAT), renaming, merging, and moving
files by content hash rather than by filename.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory to load .env from")
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Default to console format and debug level to get ISO8601
		// timestamps (DevConfig) instead of epoch (ProdConfig) for this
		// fallback reporter.
		cfg := &logging.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logging.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
