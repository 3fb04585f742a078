package db

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schema string

const PriceLogUniqueIndex = "price_log_portfolio_date_only_key"

// Migrate creates the tables if they are missing. The price_log unique
// index is left to EnsurePriceLogUniqueIndex since building it fails while
// duplicate rows exist.
func Migrate(ctx context.Context, exec Executor) error {
	if _, err := exec.ExecContext(ctx, schema); err != nil {
		return ClassifyError("apply schema", err)
	}
	return nil
}

func EnsurePriceLogUniqueIndex(ctx context.Context, exec Executor) error {
	_, err := exec.ExecContext(
		ctx,
		"CREATE UNIQUE INDEX IF NOT EXISTS "+PriceLogUniqueIndex+" ON price_log (portfolio_id, date_only)",
	)
	if err != nil {
		return ClassifyError("create price_log unique index", err)
	}
	return nil
}
