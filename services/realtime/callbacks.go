package realtime

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const publishTimeout = 5 * time.Second

// RegisterCallbacks makes db announce every committed create, update and
// delete on the broker. Writes inside an explicit db.Transaction are
// announced before the outer commit, so callers wanting exact snapshots
// should not wrap watched writes in one.
func RegisterCallbacks(db *gorm.DB, broker Broker, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	publish := func(op Op) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			if tx.Error != nil || tx.RowsAffected == 0 || tx.Statement.Table == "" {
				return
			}

			ctx, cancel := context.WithTimeout(context.WithoutCancel(tx.Statement.Context), publishTimeout)
			defer cancel()

			change := Change{Collection: tx.Statement.Table, Op: op}
			if err := broker.Publish(ctx, change); err != nil {
				logger.Warn("failed to publish change",
					zap.String("collection", change.Collection),
					zap.String("op", string(op)),
					zap.Error(err))
			}
		}
	}

	const after = "gorm:commit_or_rollback_transaction"
	if err := db.Callback().Create().After(after).Register("realtime:publish_create", publish(OpCreate)); err != nil {
		return fmt.Errorf("failed to register create callback: %w", err)
	}
	if err := db.Callback().Update().After(after).Register("realtime:publish_update", publish(OpUpdate)); err != nil {
		return fmt.Errorf("failed to register update callback: %w", err)
	}
	if err := db.Callback().Delete().After(after).Register("realtime:publish_delete", publish(OpDelete)); err != nil {
		return fmt.Errorf("failed to register delete callback: %w", err)
	}
	return nil
}
