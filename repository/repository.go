// Package repository defines the storage contract shared by the Postgres and
// in-memory backends. Missing rows are reported as *errs.NotFoundError,
// invariant violations detected by storage as *errs.ConflictError and
// everything else as *errs.PersistenceError.
package repository

import (
	"context"

	"github.com/hgarciaospina/library-management/model"
)

// Lookup is the read surface available both inside and outside a transaction.
type Lookup interface {
	LibraryByID(ctx context.Context, id int64) (*model.Library, error)
	BookByID(ctx context.Context, id int64) (*model.Book, error)
	MemberByID(ctx context.Context, id int64) (*model.Member, error)
	LoanByID(ctx context.Context, id int64) (*model.Loan, error)

	// ListLoans returns loans matching f ordered by id.
	ListLoans(ctx context.Context, f model.LoanFilter) ([]model.Loan, error)
	CountLoans(ctx context.Context, f model.LoanFilter) (int64, error)
}

// Tx is one storage transaction. Everything written through it commits or
// rolls back together.
type Tx interface {
	Lookup

	// LockBook and LockLoan read a row and hold a write lock on it until
	// the transaction ends.
	LockBook(ctx context.Context, id int64) (*model.Book, error)
	LockLoan(ctx context.Context, id int64) (*model.Loan, error)

	InsertLoan(ctx context.Context, l *model.Loan) error
	UpdateLoan(ctx context.Context, l *model.Loan) error
	DeleteLoan(ctx context.Context, id int64) error
	DeleteLoans(ctx context.Context, f model.LoanFilter) (int64, error)
	SetBookAvailable(ctx context.Context, bookID int64, available bool) error

	InsertLibrary(ctx context.Context, l *model.Library) error
	UpdateLibrary(ctx context.Context, l *model.Library) error
	// DeleteLibrary removes the library with its books and members.
	DeleteLibrary(ctx context.Context, id int64) error

	// InsertBook stores b as available regardless of b.IsAvailable.
	InsertBook(ctx context.Context, b *model.Book) error
	// UpdateBook never writes the availability flag.
	UpdateBook(ctx context.Context, b *model.Book) error
	DeleteBook(ctx context.Context, id int64) error

	InsertMember(ctx context.Context, m *model.Member) error
	UpdateMember(ctx context.Context, m *model.Member) error
	DeleteMember(ctx context.Context, id int64) error
}

// Views are read models for listings. Every call is a fresh read.
type Views interface {
	LoanDetailsByID(ctx context.Context, id int64) (*model.LoanDetails, error)
	// ListLoanDetails returns joined loans matching f. LibraryID filters on
	// the book's library. Order is unspecified.
	ListLoanDetails(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error)
	ListLibraries(ctx context.Context) ([]model.Library, error)
	// ListBooks and ListMembers return every row when libraryID is 0.
	ListBooks(ctx context.Context, libraryID int64) ([]model.Book, error)
	ListMembers(ctx context.Context, libraryID int64) ([]model.Member, error)
}

// TxFunc runs inside a transaction; returning an error rolls it back.
type TxFunc func(ctx context.Context, tx Tx) error

type Store interface {
	Lookup
	Views

	WithTx(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
	Close()
}
