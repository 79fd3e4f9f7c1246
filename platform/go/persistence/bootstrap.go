package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/paroquiaemdia/parish-api/database"
)

// Bootstrap applies the embedded schema DDL in a single transaction, in
// dependency order:
//  1. core/parishes.sql
//  2. core/community.sql
//  3. core/events.sql
//  4. core/tithe.sql
//
// Every statement is idempotent, so the helper is safe to run on startup
// and in tests.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap schema: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.ParishesSQL)...)
	statements = append(statements, splitStatements(sqlassets.CommunitySQL)...)
	statements = append(statements, splitStatements(sqlassets.EventsSQL)...)
	statements = append(statements, splitStatements(sqlassets.TitheSQL)...)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func splitStatements(sql string) []string {
	raw := strings.Split(sql, ";")
	statements := make([]string, 0, len(raw))
	for _, stmt := range raw {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
