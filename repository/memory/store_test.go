package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
)

var day0 = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

type ids struct{ lib, book, member int64 }

func seed(t *testing.T, s *Store) ids {
	t.Helper()
	var out ids
	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		l := model.Library{Name: "Central", Address: "1 Main St"}
		if err := tx.InsertLibrary(ctx, &l); err != nil {
			return err
		}
		b := model.Book{Title: "Dune", Author: "Herbert", ISBN: "9780441013593", LibraryID: l.ID, IsAvailable: false}
		if err := tx.InsertBook(ctx, &b); err != nil {
			return err
		}
		m := model.Member{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PhoneNumber: "1", RegistrationDate: day0, LibraryID: l.ID}
		if err := tx.InsertMember(ctx, &m); err != nil {
			return err
		}
		out = ids{lib: l.ID, book: b.ID, member: m.ID}
		return nil
	}))
	return out
}

func TestInsertBook_AlwaysAvailable(t *testing.T) {
	s := New()
	id := seed(t, s)
	b, err := s.BookByID(context.Background(), id.book)
	require.NoError(t, err)
	require.True(t, b.IsAvailable)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := New()
	id := seed(t, s)
	boom := errors.New("boom")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		l := model.Loan{BookID: id.book, MemberID: id.member, LibraryID: id.lib, LoanDate: day0, DueDate: day0.Add(time.Hour)}
		if err := tx.InsertLoan(ctx, &l); err != nil {
			return err
		}
		if err := tx.SetBookAvailable(ctx, id.book, false); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.CountLoans(context.Background(), model.LoanFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	b, err := s.BookByID(context.Background(), id.book)
	require.NoError(t, err)
	assert.True(t, b.IsAvailable)
}

func TestWithTx_CancelledBeforeCommit(t *testing.T) {
	s := New()
	id := seed(t, s)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cancel()
		return tx.SetBookAvailable(ctx, id.book, false)
	})
	require.Equal(t, errs.CodePersistence, errs.Code(err))

	b, err := s.BookByID(context.Background(), id.book)
	require.NoError(t, err)
	assert.True(t, b.IsAvailable)
}

func TestInsertLoan_Constraints(t *testing.T) {
	s := New()
	id := seed(t, s)

	tests := []struct {
		name   string
		loan   model.Loan
		reason string
	}{
		{
			name:   "unknown book",
			loan:   model.Loan{BookID: 99, MemberID: id.member, LibraryID: id.lib, LoanDate: day0, DueDate: day0},
			reason: "loans_book_id_fkey",
		},
		{
			name:   "due before loan",
			loan:   model.Loan{BookID: id.book, MemberID: id.member, LibraryID: id.lib, LoanDate: day0, DueDate: day0.Add(-time.Hour)},
			reason: "loans_due_after_loan",
		},
		{
			name: "returned the day before",
			loan: model.Loan{BookID: id.book, MemberID: id.member, LibraryID: id.lib, LoanDate: day0, DueDate: day0,
				ReturnDate: ptr(day0.Add(-24 * time.Hour))},
			reason: "loans_return_after_loan",
		},
		{
			name: "returned earlier the same day",
			loan: model.Loan{BookID: id.book, MemberID: id.member, LibraryID: id.lib, LoanDate: day0.Add(time.Hour), DueDate: day0.Add(time.Hour),
				ReturnDate: ptr(day0)},
			reason: "loans_return_after_loan",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
				l := tt.loan
				return tx.InsertLoan(ctx, &l)
			})
			var ce *errs.ConflictError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.reason, ce.Reason)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestOneActiveLoanPerBook(t *testing.T) {
	s := New()
	id := seed(t, s)
	ctx := context.Background()
	newLoan := func(ret *time.Time) error {
		return s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			l := model.Loan{BookID: id.book, MemberID: id.member, LibraryID: id.lib, LoanDate: day0, DueDate: day0.Add(time.Hour), ReturnDate: ret}
			return tx.InsertLoan(ctx, &l)
		})
	}

	require.NoError(t, newLoan(ptr(day0)))
	require.NoError(t, newLoan(nil))
	err := newLoan(nil)
	var ce *errs.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, errs.ReasonBookOnLoan, ce.Reason)

	active, err := s.CountLoans(ctx, model.LoanFilter{BookID: id.book, ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

func TestLoanCopiesDoNotAlias(t *testing.T) {
	s := New()
	id := seed(t, s)
	ctx := context.Background()
	rd := day0
	var loanID int64
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		l := model.Loan{BookID: id.book, MemberID: id.member, LibraryID: id.lib, LoanDate: day0, DueDate: day0, ReturnDate: &rd}
		err := tx.InsertLoan(ctx, &l)
		loanID = l.ID
		return err
	}))
	rd = rd.Add(1000 * time.Hour)

	l, err := s.LoanByID(ctx, loanID)
	require.NoError(t, err)
	require.Equal(t, day0, *l.ReturnDate)
	*l.ReturnDate = time.Time{}

	again, err := s.LoanByID(ctx, loanID)
	require.NoError(t, err)
	require.Equal(t, day0, *again.ReturnDate)
}

func TestDeleteGuards(t *testing.T) {
	s := New()
	id := seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		l := model.Loan{BookID: id.book, MemberID: id.member, LibraryID: id.lib, LoanDate: day0, DueDate: day0, ReturnDate: ptr(day0)}
		return tx.InsertLoan(ctx, &l)
	}))

	for name, del := range map[string]func(ctx context.Context, tx repository.Tx) error{
		"book":    func(ctx context.Context, tx repository.Tx) error { return tx.DeleteBook(ctx, id.book) },
		"member":  func(ctx context.Context, tx repository.Tx) error { return tx.DeleteMember(ctx, id.member) },
		"library": func(ctx context.Context, tx repository.Tx) error { return tx.DeleteLibrary(ctx, id.lib) },
	} {
		t.Run(name, func(t *testing.T) {
			err := s.WithTx(ctx, del)
			var ce *errs.ConflictError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, errs.ReasonReferencedByLoan, ce.Reason)
		})
	}

	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		n, err := tx.DeleteLoans(ctx, model.LoanFilter{MemberLibraryID: id.lib})
		require.Equal(t, int64(1), n)
		if err != nil {
			return err
		}
		return tx.DeleteLibrary(ctx, id.lib)
	}))
	_, err := s.BookByID(ctx, id.book)
	assert.True(t, errs.IsNotFound(err))
	_, err = s.MemberByID(ctx, id.member)
	assert.True(t, errs.IsNotFound(err))
}

func TestListLoanDetails_FiltersOnBookLibrary(t *testing.T) {
	s := New()
	id := seed(t, s)
	ctx := context.Background()
	var other int64
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		l := model.Library{Name: "North", Address: "9 Hill Rd"}
		if err := tx.InsertLibrary(ctx, &l); err != nil {
			return err
		}
		other = l.ID
		// LibraryID on the loan disagrees with the book; views trust the book.
		loan := model.Loan{BookID: id.book, MemberID: id.member, LibraryID: l.ID, LoanDate: day0, DueDate: day0}
		return tx.InsertLoan(ctx, &loan)
	}))

	rows, err := s.ListLoanDetails(ctx, model.LoanFilter{LibraryID: id.lib})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Central", rows[0].LibraryName)
	assert.Equal(t, "Ada Lovelace", rows[0].MemberFullName)
	assert.Equal(t, "Dune", rows[0].BookTitle)

	rows, err = s.ListLoanDetails(ctx, model.LoanFilter{LibraryID: other})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = s.LoanDetailsByID(ctx, 404)
	assert.True(t, errs.IsNotFound(err))
}

func TestClosed(t *testing.T) {
	s := New()
	require.NoError(t, s.Ping(context.Background()))
	s.Close()
	require.Error(t, s.Ping(context.Background()))
	_, err := s.ListLibraries(context.Background())
	require.Equal(t, errs.CodePersistence, errs.Code(err))
}
