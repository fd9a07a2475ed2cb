package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/corkboard/internal/platform/logger"
)

// SnapshotFn reads through tx.
type SnapshotFn func(ctx context.Context, tx *sql.Tx) error

var snapshotOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// ReadSnapshot runs fn in a read-only repeatable-read transaction so that
// several queries observe the same committed state. An error from fn rolls
// the transaction back and is returned unchanged; a panic in fn rolls back
// and is re-raised.
func ReadSnapshot(ctx context.Context, db TxBeginner, fn SnapshotFn) error {
	tx, err := db.BeginTx(ctx, snapshotOptions)
	if err != nil {
		return fmt.Errorf("%w: begin read snapshot: %w", ErrTransactionFailed, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.FromContext(ctx).Warn("read snapshot rollback failed", "error", rbErr)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	committed = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: end read snapshot: %w", ErrTransactionFailed, err)
	}
	return nil
}
