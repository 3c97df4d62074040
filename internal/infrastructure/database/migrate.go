package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
)

//go:embed schema.sql
var schema string

// migrationLockID is the advisory lock key held while the schema applies
const migrationLockID = 0x5ca35e1d

// Migrate applies the embedded schema. Statements are idempotent and run
// under a transaction-scoped advisory lock, so instances booting together
// apply it one at a time.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	err := db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
			return fmt.Errorf("failed to take migration lock: %w", err)
		}
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.logger.Info().Msg("database schema is up to date")
	return nil
}
