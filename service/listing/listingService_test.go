package listing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/repository/memory"
	"github.com/hgarciaospina/library-management/service/listing"
	"github.com/hgarciaospina/library-management/util/errs"
)

var now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func days(n int) time.Time { return now.Add(time.Duration(n) * 24 * time.Hour) }

type seeded struct {
	store          *memory.Store
	central, north int64
	// loans by label
	loans map[string]int64
}

// seed builds two libraries. Central holds L1 (active, due +5d, Zorn),
// L2 (returned, due -10d, Adams) and L3 (active, due +2d, Adams). North
// holds L4 (active, due +5d, Adams), lent to a Central member.
func seed(t *testing.T) *seeded {
	t.Helper()
	s := &seeded{store: memory.New(), loans: map[string]int64{}}
	err := s.store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		central := model.Library{Name: "Central", Address: "1 Main St"}
		north := model.Library{Name: "North", Address: "9 Hill Rd"}
		for _, l := range []*model.Library{&central, &north} {
			if err := tx.InsertLibrary(ctx, l); err != nil {
				return err
			}
		}
		s.central, s.north = central.ID, north.ID

		zorn := model.Member{FirstName: "Zoe", LastName: "Zorn", Email: "z@example.com", PhoneNumber: "1", RegistrationDate: days(-100), LibraryID: central.ID}
		adams := model.Member{FirstName: "Amy", LastName: "Adams", Email: "a@example.com", PhoneNumber: "2", RegistrationDate: days(-100), LibraryID: central.ID}
		for _, m := range []*model.Member{&zorn, &adams} {
			if err := tx.InsertMember(ctx, m); err != nil {
				return err
			}
		}

		newBook := func(lib int64, title string) (int64, error) {
			b := model.Book{Title: title, Author: "A", ISBN: "9780132350884", LibraryID: lib}
			err := tx.InsertBook(ctx, &b)
			return b.ID, err
		}
		type loanRow struct {
			label    string
			lib      int64
			member   int64
			loanDate time.Time
			due      time.Time
			returned *time.Time
		}
		ret := days(-9)
		rows := []loanRow{
			{"L1", central.ID, zorn.ID, days(-1), days(5), nil},
			{"L2", central.ID, adams.ID, days(-20), days(-10), &ret},
			{"L3", central.ID, adams.ID, days(-1), days(2), nil},
			{"L4", north.ID, adams.ID, days(-1), days(5), nil},
		}
		for _, sp := range rows {
			bookID, err := newBook(sp.lib, sp.label)
			if err != nil {
				return err
			}
			l := model.Loan{BookID: bookID, MemberID: sp.member, LibraryID: sp.lib, LoanDate: sp.loanDate, DueDate: sp.due, ReturnDate: sp.returned}
			if err := tx.InsertLoan(ctx, &l); err != nil {
				return err
			}
			s.loans[sp.label] = l.ID
		}
		return nil
	})
	require.NoError(t, err)
	return s
}

func (s *seeded) ids(labels ...string) []int64 {
	out := make([]int64, 0, len(labels))
	for _, l := range labels {
		out = append(out, s.loans[l])
	}
	return out
}

func idsOf(rows []model.LoanDetails) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestListAllWithDetails_Order(t *testing.T) {
	s := seed(t)
	svc := listing.New(s.store)

	rows, err := svc.ListAllWithDetails(context.Background())
	require.NoError(t, err)
	// Active first by due date desc; L4 and L1 tie on due date and split on
	// surname (Adams < Zorn); the returned loan comes last.
	require.Equal(t, s.ids("L4", "L1", "L3", "L2"), idsOf(rows))

	require.Equal(t, "Zoe Zorn", rows[1].MemberFullName)
	require.Equal(t, "Central", rows[1].LibraryName)
	require.Equal(t, "North", rows[0].LibraryName)

	again, err := svc.ListAllWithDetails(context.Background())
	require.NoError(t, err)
	require.Equal(t, rows, again)
}

func TestListByLibrary(t *testing.T) {
	s := seed(t)
	svc := listing.New(s.store)
	ctx := context.Background()

	rows, err := svc.ListByLibrary(ctx, s.central)
	require.NoError(t, err)
	require.Equal(t, s.ids("L1", "L3", "L2"), idsOf(rows))

	rows, err = svc.ListByLibrary(ctx, s.north)
	require.NoError(t, err)
	require.Equal(t, s.ids("L4"), idsOf(rows))

	_, err = svc.ListByLibrary(ctx, 404)
	require.True(t, errs.IsNotFound(err))
}

func TestLibraryName_WithoutLoans(t *testing.T) {
	s := seed(t)
	var empty int64
	require.NoError(t, s.store.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		l := model.Library{Name: "Annex", Address: "3 Back Ln"}
		err := tx.InsertLibrary(ctx, &l)
		empty = l.ID
		return err
	}))
	svc := listing.New(s.store)

	name, err := svc.LibraryName(context.Background(), empty)
	require.NoError(t, err)
	require.Equal(t, "Annex", name)

	rows, err := svc.ListByLibrary(context.Background(), empty)
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = svc.LibraryName(context.Background(), 404)
	require.True(t, errs.IsNotFound(err))
}

func TestList_Filters(t *testing.T) {
	s := seed(t)
	svc := listing.New(s.store)
	ctx := context.Background()

	rows, err := svc.List(ctx, model.LoanFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Equal(t, s.ids("L4", "L1", "L3"), idsOf(rows))

	rows, err = svc.List(ctx, model.LoanFilter{LibraryID: s.central, ActiveOnly: true})
	require.NoError(t, err)
	require.Equal(t, s.ids("L1", "L3"), idsOf(rows))
}

type readerMock struct {
	libraryFn func(ctx context.Context, id int64) (*model.Library, error)
	listFn    func(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error)
}

func (m *readerMock) LibraryByID(ctx context.Context, id int64) (*model.Library, error) {
	return m.libraryFn(ctx, id)
}

func (m *readerMock) ListLoanDetails(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error) {
	return m.listFn(ctx, f)
}

func TestList_SortsWhateverTheStoreReturns(t *testing.T) {
	ret := days(-1)
	mk := func(id int64, due time.Time, last, first string, returned *time.Time) model.LoanDetails {
		return model.LoanDetails{
			Loan:            model.Loan{ID: id, DueDate: due, ReturnDate: returned},
			MemberLastName:  last,
			MemberFirstName: first,
		}
	}
	m := &readerMock{
		listFn: func(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error) {
			return []model.LoanDetails{
				mk(1, days(-10), "Adams", "Amy", &ret),
				mk(2, days(3), "Zorn", "Zoe", nil),
				mk(3, days(3), "Adams", "Bob", nil),
				mk(4, days(3), "Adams", "Amy", nil),
				mk(5, days(9), "Young", "Yan", nil),
			}, nil
		},
	}
	rows, err := listing.New(m).ListAllWithDetails(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{5, 4, 3, 2, 1}, idsOf(rows))
}

func TestList_PropagatesStoreErrors(t *testing.T) {
	boom := errs.Persistence("list loan details", errors.New("connection refused"), true)
	m := &readerMock{
		listFn: func(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error) { return nil, boom },
	}
	_, err := listing.New(m).ListAllWithDetails(context.Background())
	require.ErrorIs(t, err, boom)
}
