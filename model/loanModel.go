// model/loan.go
package model

import (
	"cmp"
	"strings"
	"time"
)

// Loan references one Book and one Member. LibraryID is copied from the
// book at creation time. A nil ReturnDate means the loan is active.
type Loan struct {
	ID         int64      `json:"id" db:"id"`
	BookID     int64      `json:"book_id" db:"book_id"`
	MemberID   int64      `json:"member_id" db:"member_id"`
	LibraryID  int64      `json:"library_id" db:"library_id"`
	LoanDate   time.Time  `json:"loan_date" db:"loan_date"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" db:"return_date"`
}

// Active reports whether the loan has not been returned yet.
func (l Loan) Active() bool { return l.ReturnDate == nil }

// LoanDetails is a loan joined with its book, the book's library and the member.
type LoanDetails struct {
	Loan
	LibraryName     string `json:"library_name" db:"library_name"`
	BookTitle       string `json:"book_title" db:"book_title"`
	BookISBN        string `json:"book_isbn" db:"book_isbn"`
	MemberFirstName string `json:"member_first_name" db:"member_first_name"`
	MemberLastName  string `json:"member_last_name" db:"member_last_name"`
	MemberFullName  string `json:"member_full_name" db:"-"`
}

// NewLoanDetails assembles the display record from already resolved rows.
func NewLoanDetails(l Loan, b Book, lib Library, m Member) LoanDetails {
	return LoanDetails{
		Loan:            l,
		LibraryName:     lib.Name,
		BookTitle:       b.Title,
		BookISBN:        b.ISBN,
		MemberFirstName: m.FirstName,
		MemberLastName:  m.LastName,
		MemberFullName:  m.FullName(),
	}
}

// maxTime stands in for a missing return date when ordering.
var maxTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// CompareLoanDetails is the listing order: active loans first, then due
// date descending, member last name, member first name, return date
// (missing = latest) and finally id.
func CompareLoanDetails(a, b LoanDetails) int {
	if a.Active() != b.Active() {
		if a.Active() {
			return -1
		}
		return 1
	}
	if c := b.DueDate.Compare(a.DueDate); c != 0 {
		return c
	}
	if c := strings.Compare(a.MemberLastName, b.MemberLastName); c != 0 {
		return c
	}
	if c := strings.Compare(a.MemberFirstName, b.MemberFirstName); c != 0 {
		return c
	}
	if c := returnOrMax(a.Loan).Compare(returnOrMax(b.Loan)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func returnOrMax(l Loan) time.Time {
	if l.ReturnDate == nil {
		return maxTime
	}
	return *l.ReturnDate
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// LoanFilter narrows loan queries. Zero values mean "any".
type LoanFilter struct {
	LibraryID int64
	BookID    int64
	MemberID  int64
	// MemberLibraryID matches loans whose member belongs to this library.
	MemberLibraryID int64
	ActiveOnly      bool
}

// CreateLoanReq represents a new loan payload.
// swagger:model CreateLoanReq
type CreateLoanReq struct {
	LibraryID int64     `json:"library_id" validate:"required,gt=0"`
	BookID    int64     `json:"book_id" validate:"required,gt=0"`
	MemberID  int64     `json:"member_id" validate:"required,gt=0"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// UpdateLoanReq represents a loan update payload. Setting ReturnDate
// records a return; clearing it re-opens the loan.
// swagger:model UpdateLoanReq
type UpdateLoanReq struct {
	ID         int64      `json:"id" validate:"required,gt=0"`
	LibraryID  int64      `json:"library_id" validate:"required,gt=0"`
	BookID     int64      `json:"book_id" validate:"required,gt=0"`
	MemberID   int64      `json:"member_id" validate:"required,gt=0"`
	DueDate    time.Time  `json:"due_date" validate:"required"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

// Day truncates t to the start of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
