package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hgarciaospina/library-management/util/errs"
)

const constraintOneActivePerBook = "loans_one_active_per_book"

// mapErr translates driver errors into the errs taxonomy.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errs.Code(err) != "" {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraintOneActivePerBook:
			return errs.Conflict(errs.ReasonBookOnLoan)
		case pgErr.Code == pgerrcode.ForeignKeyViolation && pgErr.TableName == "loans" && isDelete(op):
			return errs.Conflict(errs.ReasonReferencedByLoan)
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return errs.Conflict(pgErr.ConstraintName)
		case pgerrcode.IsTransactionRollback(pgErr.Code),
			pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return errs.Persistence(op, err, true)
		}
		return errs.Persistence(op, err, false)
	}

	transient := pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded)
	return errs.Persistence(op, err, transient)
}

// mapRowErr is mapErr with missing rows reported as entity not found.
func mapRowErr(op, entity string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NotFound(entity, id)
	}
	return mapErr(op, err)
}

func isDelete(op string) bool { return strings.HasPrefix(op, "delete") }
