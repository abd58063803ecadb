package memory

import (
	"context"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
)

var _ repository.Tx = (*tx)(nil)

// tx mutates a private state copy. The store mutex is held for its lifetime,
// so the Lock* methods are plain reads.
type tx struct {
	st *state
}

func (t *tx) LibraryByID(_ context.Context, id int64) (*model.Library, error) {
	return t.st.library(id)
}

func (t *tx) BookByID(_ context.Context, id int64) (*model.Book, error) { return t.st.book(id) }

func (t *tx) MemberByID(_ context.Context, id int64) (*model.Member, error) {
	return t.st.member(id)
}

func (t *tx) LoanByID(_ context.Context, id int64) (*model.Loan, error) { return t.st.loan(id) }

func (t *tx) ListLoans(_ context.Context, f model.LoanFilter) ([]model.Loan, error) {
	return t.st.listLoans(f), nil
}

func (t *tx) CountLoans(_ context.Context, f model.LoanFilter) (int64, error) {
	return int64(len(t.st.listLoans(f))), nil
}

func (t *tx) LockBook(_ context.Context, id int64) (*model.Book, error) { return t.st.book(id) }

func (t *tx) LockLoan(_ context.Context, id int64) (*model.Loan, error) { return t.st.loan(id) }

// Loans

func (t *tx) InsertLoan(_ context.Context, l *model.Loan) error {
	t.st.loanSeq++
	l.ID = t.st.loanSeq
	if err := t.checkLoan(*l); err != nil {
		t.st.loanSeq--
		return err
	}
	t.st.loans[l.ID] = copyLoan(*l)
	return nil
}

func (t *tx) UpdateLoan(_ context.Context, l *model.Loan) error {
	if _, ok := t.st.loans[l.ID]; !ok {
		return errs.NotFound(errs.EntityLoan, l.ID)
	}
	if err := t.checkLoan(*l); err != nil {
		return err
	}
	t.st.loans[l.ID] = copyLoan(*l)
	return nil
}

// checkLoan mirrors the loans table constraints.
func (t *tx) checkLoan(l model.Loan) error {
	if _, ok := t.st.books[l.BookID]; !ok {
		return errs.Conflict("loans_book_id_fkey")
	}
	if _, ok := t.st.members[l.MemberID]; !ok {
		return errs.Conflict("loans_member_id_fkey")
	}
	if _, ok := t.st.libraries[l.LibraryID]; !ok {
		return errs.Conflict("loans_library_id_fkey")
	}
	if l.DueDate.Before(l.LoanDate) {
		return errs.Conflict("loans_due_after_loan")
	}
	if l.ReturnDate != nil && l.ReturnDate.Before(l.LoanDate) {
		return errs.Conflict("loans_return_after_loan")
	}
	if l.Active() {
		for _, other := range t.st.loans {
			if other.ID != l.ID && other.BookID == l.BookID && other.Active() {
				return errs.Conflict(errs.ReasonBookOnLoan)
			}
		}
	}
	return nil
}

func (t *tx) DeleteLoan(_ context.Context, id int64) error {
	if _, ok := t.st.loans[id]; !ok {
		return errs.NotFound(errs.EntityLoan, id)
	}
	delete(t.st.loans, id)
	return nil
}

func (t *tx) DeleteLoans(_ context.Context, f model.LoanFilter) (int64, error) {
	var n int64
	for _, l := range t.st.listLoans(f) {
		delete(t.st.loans, l.ID)
		n++
	}
	return n, nil
}

func (t *tx) SetBookAvailable(_ context.Context, bookID int64, available bool) error {
	b, ok := t.st.books[bookID]
	if !ok {
		return errs.NotFound(errs.EntityBook, bookID)
	}
	b.IsAvailable = available
	t.st.books[bookID] = b
	return nil
}

// Libraries

func (t *tx) InsertLibrary(_ context.Context, l *model.Library) error {
	t.st.librarySeq++
	l.ID = t.st.librarySeq
	t.st.libraries[l.ID] = *l
	return nil
}

func (t *tx) UpdateLibrary(_ context.Context, l *model.Library) error {
	if _, ok := t.st.libraries[l.ID]; !ok {
		return errs.NotFound(errs.EntityLibrary, l.ID)
	}
	t.st.libraries[l.ID] = *l
	return nil
}

func (t *tx) DeleteLibrary(_ context.Context, id int64) error {
	if _, ok := t.st.libraries[id]; !ok {
		return errs.NotFound(errs.EntityLibrary, id)
	}
	for _, l := range t.st.loans {
		if l.LibraryID == id ||
			t.st.books[l.BookID].LibraryID == id ||
			t.st.members[l.MemberID].LibraryID == id {
			return errs.Conflict(errs.ReasonReferencedByLoan)
		}
	}
	for bid, b := range t.st.books {
		if b.LibraryID == id {
			delete(t.st.books, bid)
		}
	}
	for mid, m := range t.st.members {
		if m.LibraryID == id {
			delete(t.st.members, mid)
		}
	}
	delete(t.st.libraries, id)
	return nil
}

// Books

func (t *tx) InsertBook(_ context.Context, b *model.Book) error {
	if _, ok := t.st.libraries[b.LibraryID]; !ok {
		return errs.Conflict("books_library_id_fkey")
	}
	t.st.bookSeq++
	b.ID = t.st.bookSeq
	b.IsAvailable = true
	t.st.books[b.ID] = *b
	return nil
}

func (t *tx) UpdateBook(_ context.Context, b *model.Book) error {
	cur, ok := t.st.books[b.ID]
	if !ok {
		return errs.NotFound(errs.EntityBook, b.ID)
	}
	if _, ok := t.st.libraries[b.LibraryID]; !ok {
		return errs.Conflict("books_library_id_fkey")
	}
	b.IsAvailable = cur.IsAvailable
	t.st.books[b.ID] = *b
	return nil
}

func (t *tx) DeleteBook(_ context.Context, id int64) error {
	if _, ok := t.st.books[id]; !ok {
		return errs.NotFound(errs.EntityBook, id)
	}
	if len(t.st.listLoans(model.LoanFilter{BookID: id})) > 0 {
		return errs.Conflict(errs.ReasonReferencedByLoan)
	}
	delete(t.st.books, id)
	return nil
}

// Members

func (t *tx) InsertMember(_ context.Context, m *model.Member) error {
	if _, ok := t.st.libraries[m.LibraryID]; !ok {
		return errs.Conflict("members_library_id_fkey")
	}
	t.st.memberSeq++
	m.ID = t.st.memberSeq
	t.st.members[m.ID] = *m
	return nil
}

func (t *tx) UpdateMember(_ context.Context, m *model.Member) error {
	if _, ok := t.st.members[m.ID]; !ok {
		return errs.NotFound(errs.EntityMember, m.ID)
	}
	if _, ok := t.st.libraries[m.LibraryID]; !ok {
		return errs.Conflict("members_library_id_fkey")
	}
	t.st.members[m.ID] = *m
	return nil
}

func (t *tx) DeleteMember(_ context.Context, id int64) error {
	if _, ok := t.st.members[id]; !ok {
		return errs.NotFound(errs.EntityMember, id)
	}
	if len(t.st.listLoans(model.LoanFilter{MemberID: id})) > 0 {
		return errs.Conflict(errs.ReasonReferencedByLoan)
	}
	delete(t.st.members, id)
	return nil
}
