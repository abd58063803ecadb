// Package postgres is the PostgreSQL repository.Store. Transactional work
// runs on pgx; listing views are struct-scanned through sqlx over the same
// pool. SQL is built with goqu.
package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/database"
)

const (
	logMsgSQLExecuted = "sql executed: "
	logMsgTxRollback  = "tx rolled back"
	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

var _ repository.Store = (*Store)(nil)

// Store reads committed rows through the pool-backed queries and views.
type Store struct {
	db  *database.DB
	log *slog.Logger
	*queries
	views
}

type Option func(*Store)

// WithLogger sends SQL timing at debug level and rollbacks at warn level to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func New(db *database.DB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	s.queries = &queries{q: db.Pool, log: s.log}
	s.views = views{db: db.SQLX, log: s.log}
	return s
}

// WithTx runs fn in a READ COMMITTED transaction. Row locks taken through
// tx.LockBook and tx.LockLoan serialize competing writers.
func (s *Store) WithTx(ctx context.Context, fn repository.TxFunc) (err error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapErr("begin", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.log.Warn(logMsgTxRollback, logAttrError, rbErr.Error())
			}
		}
	}()

	start := time.Now()
	if err = fn(ctx, &queries{q: tx, log: s.log}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return mapErr("commit", err)
	}
	s.log.Debug("tx committed", logAttrDurationMS, time.Since(start).Milliseconds())
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return mapErr("ping", s.db.Pool.Ping(ctx))
}

func (s *Store) Close() { s.db.Close() }
