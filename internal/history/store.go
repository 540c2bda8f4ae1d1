package history

import "gorm.io/gorm"

// Store records completed reconciliation runs.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-connected database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Record appends a run to the log, including its Err text if any;
// Record itself never fails loudly enough to abort a caller's run, since
// losing a history entry must never be treated the same as a failed
// reconciliation — it returns its own error for the caller to log.
func (s *Store) Record(run Run) error {
	return s.db.Create(&run).Error
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	var runs []Run
	err := s.db.Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}
