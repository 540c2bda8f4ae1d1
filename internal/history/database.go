package history

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Operation distinguishes the two entry points the reconciler exposes.
type Operation string

const (
	OperationScan    Operation = "scan"
	OperationRebuild Operation = "rebuild"
)

// Run is a single append-only record of a scan or rebuild invocation.
// It is a side channel for operator visibility; nothing in the
// reconciliation logic ever reads it back.
type Run struct {
	ID         uint `gorm:"primarykey"`
	StartedAt  time.Time
	Duration   time.Duration
	Operation  Operation
	DatPath    string
	FolderPath string
	SetsHave   int
	SetsTotal  int
	RomsHave   int
	RomsTotal  int
	Err        string
}

// Connect opens (creating if necessary) the sqlite-backed history store
// and ensures its schema is current.
func Connect(cfg Config) (*gorm.DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrate history store: %w", err)
	}

	return db, nil
}
