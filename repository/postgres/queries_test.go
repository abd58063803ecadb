package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/util/errs"
)

// querierMock records statements; Exec and QueryRow are scripted.
type querierMock struct {
	execFn     func(sql string, args []any) (pgconn.CommandTag, error)
	queryRowFn func(sql string, args []any) pgx.Row
	sqls       []string
}

type rowMock struct {
	scanFn func(dest ...any) error
}

func (r rowMock) Scan(dest ...any) error { return r.scanFn(dest...) }

func (m *querierMock) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.sqls = append(m.sqls, sql)
	return m.execFn(sql, args)
}

func (m *querierMock) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not scripted")
}

func (m *querierMock) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.sqls = append(m.sqls, sql)
	return m.queryRowFn(sql, args)
}

func newQueries(m *querierMock) *queries {
	return &queries{q: m, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestDeleteLoans_SQL(t *testing.T) {
	var gotArgs []any
	m := &querierMock{execFn: func(sql string, args []any) (pgconn.CommandTag, error) {
		gotArgs = args
		return pgconn.NewCommandTag("DELETE 2"), nil
	}}
	n, err := newQueries(m).DeleteLoans(context.Background(), model.LoanFilter{BookID: 5, ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, m.sqls, 1)
	assert.Contains(t, m.sqls[0], `DELETE FROM "loans"`)
	assert.Contains(t, m.sqls[0], `"loans"."book_id" = $1`)
	assert.Contains(t, m.sqls[0], `"loans"."return_date" IS NULL`)
	assert.Equal(t, []any{int64(5)}, gotArgs)

	_, err = newQueries(m).DeleteLoans(context.Background(), model.LoanFilter{MemberLibraryID: 3})
	require.NoError(t, err)
	assert.Contains(t, m.sqls[1], memberLibraryScope)
	assert.Equal(t, []any{int64(3)}, gotArgs)
}

// goqu wraps an IN sub-select in its own parentheses.
const memberLibraryScope = `"loans"."member_id" IN ((SELECT "id" FROM "members" WHERE ("library_id" = $1)))`

func TestCountLoans_MemberLibraryScope(t *testing.T) {
	var gotArgs []any
	m := &querierMock{queryRowFn: func(sql string, args []any) pgx.Row {
		gotArgs = args
		return rowMock{scanFn: func(dest ...any) error {
			*dest[0].(*int64) = 4
			return nil
		}}
	}}
	n, err := newQueries(m).CountLoans(context.Background(), model.LoanFilter{MemberLibraryID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.Len(t, m.sqls, 1)
	assert.Contains(t, m.sqls[0], `SELECT COUNT(*) FROM "loans"`)
	assert.Contains(t, m.sqls[0], memberLibraryScope)
	assert.Equal(t, []any{int64(3)}, gotArgs)
}

func TestSetBookAvailable(t *testing.T) {
	tag := "UPDATE 1"
	m := &querierMock{execFn: func(string, []any) (pgconn.CommandTag, error) {
		return pgconn.NewCommandTag(tag), nil
	}}
	q := newQueries(m)

	require.NoError(t, q.SetBookAvailable(context.Background(), 9, false))
	assert.Contains(t, m.sqls[0], `UPDATE "books" SET "is_available"=$1`)

	tag = "UPDATE 0"
	err := q.SetBookAvailable(context.Background(), 9, true)
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, errs.EntityBook, nf.Entity)
}

func TestExec_MapsDriverErrors(t *testing.T) {
	m := &querierMock{execFn: func(string, []any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "loans"}
	}}
	err := newQueries(m).DeleteMember(context.Background(), 4)
	var ce *errs.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, errs.ReasonReferencedByLoan, ce.Reason)
}

func TestSchema(t *testing.T) {
	s := Schema()
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS libraries",
		"CREATE TABLE IF NOT EXISTS loans",
		constraintOneActivePerBook,
	} {
		assert.Contains(t, s, want)
	}
}
