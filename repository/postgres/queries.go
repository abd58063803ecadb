package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
)

const (
	tableLibraries = "libraries"
	tableBooks     = "books"
	tableMembers   = "members"
	tableLoans     = "loans"
	colID          = "id"
)

var dialect = goqu.Dialect("postgres")

var (
	libraryCols = []any{"id", "name", "address"}
	bookCols    = []any{"id", "title", "author", "isbn", "publication_year", "is_available", "library_id"}
	memberCols  = []any{"id", "first_name", "last_name", "email", "phone_number", "registration_date", "library_id"}
	loanCols    = []any{"id", "book_id", "member_id", "library_id", "loan_date", "due_date", "return_date"}
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements repository.Tx over a querier. Outside a transaction
// only its Lookup half is used.
type queries struct {
	q   querier
	log *slog.Logger
}

var _ repository.Tx = (*queries)(nil)

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (r *queries) one(ctx context.Context, op string, b sqlBuilder, dest ...any) error {
	q, args, err := b.ToSQL()
	if err != nil {
		return errs.Persistence(op, err, false)
	}
	start := time.Now()
	err = r.q.QueryRow(ctx, q, args...).Scan(dest...)
	r.log.Debug(logMsgSQLExecuted+op, logAttrQuery, q, logAttrDurationMS, time.Since(start).Milliseconds())
	return err
}

func (r *queries) exec(ctx context.Context, op string, b sqlBuilder) (int64, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return 0, errs.Persistence(op, err, false)
	}
	start := time.Now()
	tag, err := r.q.Exec(ctx, q, args...)
	r.log.Debug(logMsgSQLExecuted+op, logAttrQuery, q, logAttrDurationMS, time.Since(start).Milliseconds())
	if err != nil {
		return 0, mapErr(op, err)
	}
	return tag.RowsAffected(), nil
}

func collect[T any](ctx context.Context, r *queries, op string, b sqlBuilder) ([]T, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return nil, errs.Persistence(op, err, false)
	}
	start := time.Now()
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	r.log.Debug(logMsgSQLExecuted+op, logAttrQuery, q, logAttrDurationMS, time.Since(start).Milliseconds())
	if err != nil {
		return nil, mapErr(op, err)
	}
	return out, nil
}

func collectOne[T any](ctx context.Context, r *queries, op, entity string, id int64, b sqlBuilder) (*T, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return nil, errs.Persistence(op, err, false)
	}
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, mapRowErr(op, entity, id, err)
	}
	return &v, nil
}

func byID(table string, cols []any, id int64) *goqu.SelectDataset {
	return dialect.From(table).Prepared(true).Select(cols...).Where(goqu.C(colID).Eq(id))
}

// loanWhere turns a filter into conditions on the loans table.
func loanWhere(f model.LoanFilter) []exp.Expression {
	var where []exp.Expression
	if f.LibraryID != 0 {
		where = append(where, goqu.I("loans.library_id").Eq(f.LibraryID))
	}
	if f.BookID != 0 {
		where = append(where, goqu.I("loans.book_id").Eq(f.BookID))
	}
	if f.MemberID != 0 {
		where = append(where, goqu.I("loans.member_id").Eq(f.MemberID))
	}
	if f.MemberLibraryID != 0 {
		where = append(where, goqu.I("loans.member_id").In(
			dialect.From(tableMembers).Select(colID).Where(goqu.C("library_id").Eq(f.MemberLibraryID)),
		))
	}
	if f.ActiveOnly {
		where = append(where, goqu.I("loans.return_date").IsNull())
	}
	return where
}

// Lookup

func (r *queries) LibraryByID(ctx context.Context, id int64) (*model.Library, error) {
	return collectOne[model.Library](ctx, r, "library by id", errs.EntityLibrary, id, byID(tableLibraries, libraryCols, id))
}

func (r *queries) BookByID(ctx context.Context, id int64) (*model.Book, error) {
	return collectOne[model.Book](ctx, r, "book by id", errs.EntityBook, id, byID(tableBooks, bookCols, id))
}

func (r *queries) MemberByID(ctx context.Context, id int64) (*model.Member, error) {
	return collectOne[model.Member](ctx, r, "member by id", errs.EntityMember, id, byID(tableMembers, memberCols, id))
}

func (r *queries) LoanByID(ctx context.Context, id int64) (*model.Loan, error) {
	return collectOne[model.Loan](ctx, r, "loan by id", errs.EntityLoan, id, byID(tableLoans, loanCols, id))
}

func (r *queries) ListLoans(ctx context.Context, f model.LoanFilter) ([]model.Loan, error) {
	ds := dialect.From(tableLoans).Prepared(true).
		Select(loanCols...).
		Where(loanWhere(f)...).
		Order(goqu.C(colID).Asc())
	return collect[model.Loan](ctx, r, "list loans", ds)
}

func (r *queries) CountLoans(ctx context.Context, f model.LoanFilter) (int64, error) {
	ds := dialect.From(tableLoans).Prepared(true).
		Select(goqu.COUNT("*")).
		Where(loanWhere(f)...)
	var n int64
	if err := r.one(ctx, "count loans", ds, &n); err != nil {
		return 0, mapErr("count loans", err)
	}
	return n, nil
}

// Locks

func (r *queries) LockBook(ctx context.Context, id int64) (*model.Book, error) {
	return collectOne[model.Book](ctx, r, "lock book", errs.EntityBook, id,
		byID(tableBooks, bookCols, id).ForUpdate(exp.Wait))
}

func (r *queries) LockLoan(ctx context.Context, id int64) (*model.Loan, error) {
	return collectOne[model.Loan](ctx, r, "lock loan", errs.EntityLoan, id,
		byID(tableLoans, loanCols, id).ForUpdate(exp.Wait))
}

// Loans

func loanRecord(l *model.Loan) goqu.Record {
	var returnDate any
	if l.ReturnDate != nil {
		returnDate = *l.ReturnDate
	}
	return goqu.Record{
		"book_id":     l.BookID,
		"member_id":   l.MemberID,
		"library_id":  l.LibraryID,
		"loan_date":   l.LoanDate,
		"due_date":    l.DueDate,
		"return_date": returnDate,
	}
}

func (r *queries) InsertLoan(ctx context.Context, l *model.Loan) error {
	ds := dialect.Insert(tableLoans).Prepared(true).Rows(loanRecord(l)).Returning(colID)
	return mapErr("insert loan", r.one(ctx, "insert loan", ds, &l.ID))
}

func (r *queries) UpdateLoan(ctx context.Context, l *model.Loan) error {
	ds := dialect.Update(tableLoans).Prepared(true).Set(loanRecord(l)).Where(goqu.C(colID).Eq(l.ID))
	return r.mustAffect(ctx, "update loan", errs.EntityLoan, l.ID, ds)
}

func (r *queries) DeleteLoan(ctx context.Context, id int64) error {
	ds := dialect.Delete(tableLoans).Prepared(true).Where(goqu.C(colID).Eq(id))
	return r.mustAffect(ctx, "delete loan", errs.EntityLoan, id, ds)
}

func (r *queries) DeleteLoans(ctx context.Context, f model.LoanFilter) (int64, error) {
	ds := dialect.Delete(tableLoans).Prepared(true).Where(loanWhere(f)...)
	return r.exec(ctx, "delete loans", ds)
}

func (r *queries) SetBookAvailable(ctx context.Context, bookID int64, available bool) error {
	ds := dialect.Update(tableBooks).Prepared(true).
		Set(goqu.Record{"is_available": available}).
		Where(goqu.C(colID).Eq(bookID))
	return r.mustAffect(ctx, "set book availability", errs.EntityBook, bookID, ds)
}

func (r *queries) mustAffect(ctx context.Context, op, entity string, id int64, b sqlBuilder) error {
	n, err := r.exec(ctx, op, b)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound(entity, id)
	}
	return nil
}

// Libraries

func (r *queries) InsertLibrary(ctx context.Context, l *model.Library) error {
	ds := dialect.Insert(tableLibraries).Prepared(true).
		Rows(goqu.Record{"name": l.Name, "address": l.Address}).
		Returning(colID)
	return mapErr("insert library", r.one(ctx, "insert library", ds, &l.ID))
}

func (r *queries) UpdateLibrary(ctx context.Context, l *model.Library) error {
	ds := dialect.Update(tableLibraries).Prepared(true).
		Set(goqu.Record{"name": l.Name, "address": l.Address}).
		Where(goqu.C(colID).Eq(l.ID))
	return r.mustAffect(ctx, "update library", errs.EntityLibrary, l.ID, ds)
}

func (r *queries) DeleteLibrary(ctx context.Context, id int64) error {
	ds := dialect.Delete(tableLibraries).Prepared(true).Where(goqu.C(colID).Eq(id))
	return r.mustAffect(ctx, "delete library", errs.EntityLibrary, id, ds)
}

// Books

func (r *queries) InsertBook(ctx context.Context, b *model.Book) error {
	b.IsAvailable = true
	ds := dialect.Insert(tableBooks).Prepared(true).
		Rows(goqu.Record{
			"title":            b.Title,
			"author":           b.Author,
			"isbn":             b.ISBN,
			"publication_year": b.PublicationYear,
			"is_available":     true,
			"library_id":       b.LibraryID,
		}).
		Returning(colID)
	return mapErr("insert book", r.one(ctx, "insert book", ds, &b.ID))
}

func (r *queries) UpdateBook(ctx context.Context, b *model.Book) error {
	ds := dialect.Update(tableBooks).Prepared(true).
		Set(goqu.Record{
			"title":            b.Title,
			"author":           b.Author,
			"isbn":             b.ISBN,
			"publication_year": b.PublicationYear,
			"library_id":       b.LibraryID,
		}).
		Where(goqu.C(colID).Eq(b.ID)).
		Returning("is_available")
	err := r.one(ctx, "update book", ds, &b.IsAvailable)
	if err != nil {
		return mapRowErr("update book", errs.EntityBook, b.ID, err)
	}
	return nil
}

func (r *queries) DeleteBook(ctx context.Context, id int64) error {
	ds := dialect.Delete(tableBooks).Prepared(true).Where(goqu.C(colID).Eq(id))
	return r.mustAffect(ctx, "delete book", errs.EntityBook, id, ds)
}

// Members

func memberRecord(m *model.Member) goqu.Record {
	return goqu.Record{
		"first_name":        m.FirstName,
		"last_name":         m.LastName,
		"email":             m.Email,
		"phone_number":      m.PhoneNumber,
		"registration_date": m.RegistrationDate,
		"library_id":        m.LibraryID,
	}
}

func (r *queries) InsertMember(ctx context.Context, m *model.Member) error {
	ds := dialect.Insert(tableMembers).Prepared(true).Rows(memberRecord(m)).Returning(colID)
	return mapErr("insert member", r.one(ctx, "insert member", ds, &m.ID))
}

func (r *queries) UpdateMember(ctx context.Context, m *model.Member) error {
	ds := dialect.Update(tableMembers).Prepared(true).Set(memberRecord(m)).Where(goqu.C(colID).Eq(m.ID))
	return r.mustAffect(ctx, "update member", errs.EntityMember, m.ID, ds)
}

func (r *queries) DeleteMember(ctx context.Context, id int64) error {
	ds := dialect.Delete(tableMembers).Prepared(true).Where(goqu.C(colID).Eq(id))
	return r.mustAffect(ctx, "delete member", errs.EntityMember, id, ds)
}
