// Package config provides configuration management for romorganizer.
//
// It utilizes Viper for loading configuration from environment variables
// and a local .env file; no config.yaml or other config file is read.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Directories: the six local paths the reconciler operates on
//   - Archive: repack compression level
//   - Log: logging level and format
//   - History: run-history sqlite path
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Directories.Romset)
package config
