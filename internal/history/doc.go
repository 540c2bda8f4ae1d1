// Package history keeps an append-only log of past scan and rebuild
// runs in a local sqlite database, for operator visibility only.
//
// It provides a thin wrapper around GORM to open the database and keep
// its schema current.
//
// # Usage
//
//	db, err := history.Connect(cfg.History)
//	if err != nil {
//	    log.Fatal("history store unavailable", err)
//	}
//	store := history.NewStore(db)
//	store.Record(history.Run{Operation: history.OperationScan, ...})
package history
