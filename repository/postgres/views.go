package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/util/errs"
)

// views serves read models through sqlx.
type views struct {
	db  *sqlx.DB
	log *slog.Logger
}

func loanDetailsQuery() *goqu.SelectDataset {
	return dialect.From(tableLoans).Prepared(true).
		Select(
			goqu.I("loans.id").As("id"),
			goqu.I("loans.book_id").As("book_id"),
			goqu.I("loans.member_id").As("member_id"),
			goqu.I("loans.library_id").As("library_id"),
			goqu.I("loans.loan_date").As("loan_date"),
			goqu.I("loans.due_date").As("due_date"),
			goqu.I("loans.return_date").As("return_date"),
			goqu.I("libraries.name").As("library_name"),
			goqu.I("books.title").As("book_title"),
			goqu.I("books.isbn").As("book_isbn"),
			goqu.I("members.first_name").As("member_first_name"),
			goqu.I("members.last_name").As("member_last_name"),
		).
		InnerJoin(goqu.T(tableBooks), goqu.On(goqu.I("books.id").Eq(goqu.I("loans.book_id")))).
		InnerJoin(goqu.T(tableLibraries), goqu.On(goqu.I("libraries.id").Eq(goqu.I("books.library_id")))).
		InnerJoin(goqu.T(tableMembers), goqu.On(goqu.I("members.id").Eq(goqu.I("loans.member_id"))))
}

func (v views) selectAll(ctx context.Context, op string, dest any, b sqlBuilder) error {
	q, args, err := b.ToSQL()
	if err != nil {
		return errs.Persistence(op, err, false)
	}
	start := time.Now()
	err = v.db.SelectContext(ctx, dest, q, args...)
	v.log.Debug(logMsgSQLExecuted+op, logAttrQuery, q, logAttrDurationMS, time.Since(start).Milliseconds())
	return mapErr(op, err)
}

func fillNames(ds []model.LoanDetails) {
	for i := range ds {
		ds[i].MemberFullName = model.Member{FirstName: ds[i].MemberFirstName, LastName: ds[i].MemberLastName}.FullName()
	}
}

func (v views) LoanDetailsByID(ctx context.Context, id int64) (*model.LoanDetails, error) {
	var out []model.LoanDetails
	ds := loanDetailsQuery().Where(goqu.I("loans.id").Eq(id))
	if err := v.selectAll(ctx, "loan details by id", &out, ds); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errs.NotFound(errs.EntityLoan, id)
	}
	fillNames(out)
	return &out[0], nil
}

func (v views) ListLoanDetails(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error) {
	ds := loanDetailsQuery()
	if f.LibraryID != 0 {
		ds = ds.Where(goqu.I("books.library_id").Eq(f.LibraryID))
		f.LibraryID = 0
	}
	ds = ds.Where(loanWhere(f)...)

	out := []model.LoanDetails{}
	if err := v.selectAll(ctx, "list loan details", &out, ds); err != nil {
		return nil, err
	}
	fillNames(out)
	return out, nil
}

func (v views) ListLibraries(ctx context.Context) ([]model.Library, error) {
	ds := dialect.From(tableLibraries).Prepared(true).
		Select(libraryCols...).
		Order(goqu.C("name").Asc(), goqu.C(colID).Asc())
	out := []model.Library{}
	if err := v.selectAll(ctx, "list libraries", &out, ds); err != nil {
		return nil, err
	}
	return out, nil
}

func (v views) ListBooks(ctx context.Context, libraryID int64) ([]model.Book, error) {
	ds := dialect.From(tableBooks).Prepared(true).
		Select(bookCols...).
		Order(goqu.C("title").Asc(), goqu.C(colID).Asc())
	if libraryID != 0 {
		ds = ds.Where(goqu.C("library_id").Eq(libraryID))
	}
	out := []model.Book{}
	if err := v.selectAll(ctx, "list books", &out, ds); err != nil {
		return nil, err
	}
	return out, nil
}

func (v views) ListMembers(ctx context.Context, libraryID int64) ([]model.Member, error) {
	ds := dialect.From(tableMembers).Prepared(true).
		Select(memberCols...).
		Order(goqu.C("last_name").Asc(), goqu.C("first_name").Asc(), goqu.C(colID).Asc())
	if libraryID != 0 {
		ds = ds.Where(goqu.C("library_id").Eq(libraryID))
	}
	out := []model.Member{}
	if err := v.selectAll(ctx, "list members", &out, ds); err != nil {
		return nil, err
	}
	return out, nil
}
