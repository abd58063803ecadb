package postgres

import (
	"context"
	_ "embed"
	"time"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL applied by Migrate.
func Schema() string { return schema }

// Migrate creates tables and indexes that do not exist yet. It is safe to
// run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	start := time.Now()
	if _, err := s.db.Pool.Exec(ctx, schema); err != nil {
		return mapErr("migrate", err)
	}
	s.log.Info("schema migrated", logAttrDurationMS, time.Since(start).Milliseconds())
	return nil
}
