package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const gcDiscardRatio = 0.5

// BadgerGCWorker periodically reclaims space in the credential store's value
// log. Badger never runs this on its own.
type BadgerGCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

func NewBadgerGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *BadgerGCWorker {
	return &BadgerGCWorker{log: log, db: db, interval: interval}
}

func (w *BadgerGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// One GC call rewrites at most one value log file; loop until
			// Badger reports nothing left to rewrite.
			for {
				if err := w.db.RunValueLogGC(gcDiscardRatio); err != nil {
					if err != badger.ErrNoRewrite {
						w.log.Warn("Value log GC failed", "error", err)
					}
					break
				}
			}
		}
	}
}
