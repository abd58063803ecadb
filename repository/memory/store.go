// Package memory is an in-process repository.Store. A single mutex
// serializes transactions; each transaction works on a copy of the state that
// replaces the committed state only when the transaction function succeeds.
// It enforces the same constraints as the Postgres schema: foreign keys, date
// checks and one active loan per book.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	data   *state
	closed bool
}

func New() *Store {
	return &Store{data: newState()}
}

type state struct {
	libraries map[int64]model.Library
	books     map[int64]model.Book
	members   map[int64]model.Member
	loans     map[int64]model.Loan

	librarySeq, bookSeq, memberSeq, loanSeq int64
}

func newState() *state {
	return &state{
		libraries: map[int64]model.Library{},
		books:     map[int64]model.Book{},
		members:   map[int64]model.Member{},
		loans:     map[int64]model.Loan{},
	}
}

func (st *state) clone() *state {
	c := *st
	c.libraries = maps.Clone(st.libraries)
	c.books = maps.Clone(st.books)
	c.members = maps.Clone(st.members)
	c.loans = make(map[int64]model.Loan, len(st.loans))
	for id, l := range st.loans {
		c.loans[id] = copyLoan(l)
	}
	return &c
}

func copyLoan(l model.Loan) model.Loan {
	if l.ReturnDate != nil {
		rd := *l.ReturnDate
		l.ReturnDate = &rd
	}
	return l
}

// WithTx runs fn against a private copy of the state and publishes the copy
// when fn returns nil and ctx is still live.
func (s *Store) WithTx(ctx context.Context, fn repository.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errs.Persistence("commit", err, false)
	}
	s.data = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usable(ctx)
}

func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Store) usable(ctx context.Context) error {
	if s.closed {
		return errs.Persistence("store", fmt.Errorf("memory store closed"), false)
	}
	if err := ctx.Err(); err != nil {
		return errs.Persistence("store", err, false)
	}
	return nil
}

// read runs fn on the committed state.
func read[T any](s *Store, ctx context.Context, fn func(st *state) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		var zero T
		return zero, err
	}
	return fn(s.data)
}

// Lookup on the committed state

func (s *Store) LibraryByID(ctx context.Context, id int64) (*model.Library, error) {
	return read(s, ctx, func(st *state) (*model.Library, error) { return st.library(id) })
}

func (s *Store) BookByID(ctx context.Context, id int64) (*model.Book, error) {
	return read(s, ctx, func(st *state) (*model.Book, error) { return st.book(id) })
}

func (s *Store) MemberByID(ctx context.Context, id int64) (*model.Member, error) {
	return read(s, ctx, func(st *state) (*model.Member, error) { return st.member(id) })
}

func (s *Store) LoanByID(ctx context.Context, id int64) (*model.Loan, error) {
	return read(s, ctx, func(st *state) (*model.Loan, error) { return st.loan(id) })
}

func (s *Store) ListLoans(ctx context.Context, f model.LoanFilter) ([]model.Loan, error) {
	return read(s, ctx, func(st *state) ([]model.Loan, error) { return st.listLoans(f), nil })
}

func (s *Store) CountLoans(ctx context.Context, f model.LoanFilter) (int64, error) {
	return read(s, ctx, func(st *state) (int64, error) { return int64(len(st.listLoans(f))), nil })
}

// Views

func (s *Store) LoanDetailsByID(ctx context.Context, id int64) (*model.LoanDetails, error) {
	return read(s, ctx, func(st *state) (*model.LoanDetails, error) {
		l, ok := st.loans[id]
		if !ok {
			return nil, errs.NotFound(errs.EntityLoan, id)
		}
		d := st.details(l)
		return &d, nil
	})
}

func (s *Store) ListLoanDetails(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error) {
	return read(s, ctx, func(st *state) ([]model.LoanDetails, error) {
		out := []model.LoanDetails{}
		for _, l := range st.sortedLoans() {
			if f.LibraryID != 0 && st.books[l.BookID].LibraryID != f.LibraryID {
				continue
			}
			if !st.matches(l, model.LoanFilter{
				BookID:          f.BookID,
				MemberID:        f.MemberID,
				MemberLibraryID: f.MemberLibraryID,
				ActiveOnly:      f.ActiveOnly,
			}) {
				continue
			}
			out = append(out, st.details(l))
		}
		return out, nil
	})
}

func (s *Store) ListLibraries(ctx context.Context) ([]model.Library, error) {
	return read(s, ctx, func(st *state) ([]model.Library, error) {
		out := slices.Collect(maps.Values(st.libraries))
		slices.SortFunc(out, func(a, b model.Library) int {
			return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
		})
		return out, nil
	})
}

func (s *Store) ListBooks(ctx context.Context, libraryID int64) ([]model.Book, error) {
	return read(s, ctx, func(st *state) ([]model.Book, error) {
		out := []model.Book{}
		for _, b := range st.books {
			if libraryID == 0 || b.LibraryID == libraryID {
				out = append(out, b)
			}
		}
		slices.SortFunc(out, func(a, b model.Book) int {
			return cmp.Or(strings.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
		})
		return out, nil
	})
}

func (s *Store) ListMembers(ctx context.Context, libraryID int64) ([]model.Member, error) {
	return read(s, ctx, func(st *state) ([]model.Member, error) {
		out := []model.Member{}
		for _, m := range st.members {
			if libraryID == 0 || m.LibraryID == libraryID {
				out = append(out, m)
			}
		}
		slices.SortFunc(out, func(a, b model.Member) int {
			return cmp.Or(
				strings.Compare(a.LastName, b.LastName),
				strings.Compare(a.FirstName, b.FirstName),
				cmp.Compare(a.ID, b.ID),
			)
		})
		return out, nil
	})
}

// state helpers

func (st *state) library(id int64) (*model.Library, error) {
	l, ok := st.libraries[id]
	if !ok {
		return nil, errs.NotFound(errs.EntityLibrary, id)
	}
	return &l, nil
}

func (st *state) book(id int64) (*model.Book, error) {
	b, ok := st.books[id]
	if !ok {
		return nil, errs.NotFound(errs.EntityBook, id)
	}
	return &b, nil
}

func (st *state) member(id int64) (*model.Member, error) {
	m, ok := st.members[id]
	if !ok {
		return nil, errs.NotFound(errs.EntityMember, id)
	}
	return &m, nil
}

func (st *state) loan(id int64) (*model.Loan, error) {
	l, ok := st.loans[id]
	if !ok {
		return nil, errs.NotFound(errs.EntityLoan, id)
	}
	l = copyLoan(l)
	return &l, nil
}

func (st *state) sortedLoans() []model.Loan {
	ids := slices.Sorted(maps.Keys(st.loans))
	out := make([]model.Loan, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyLoan(st.loans[id]))
	}
	return out
}

func (st *state) matches(l model.Loan, f model.LoanFilter) bool {
	switch {
	case f.LibraryID != 0 && l.LibraryID != f.LibraryID:
		return false
	case f.BookID != 0 && l.BookID != f.BookID:
		return false
	case f.MemberID != 0 && l.MemberID != f.MemberID:
		return false
	case f.MemberLibraryID != 0 && st.members[l.MemberID].LibraryID != f.MemberLibraryID:
		return false
	case f.ActiveOnly && !l.Active():
		return false
	}
	return true
}

func (st *state) listLoans(f model.LoanFilter) []model.Loan {
	out := []model.Loan{}
	for _, l := range st.sortedLoans() {
		if st.matches(l, f) {
			out = append(out, l)
		}
	}
	return out
}

func (st *state) details(l model.Loan) model.LoanDetails {
	b := st.books[l.BookID]
	return model.NewLoanDetails(copyLoan(l), b, st.libraries[b.LibraryID], st.members[l.MemberID])
}
