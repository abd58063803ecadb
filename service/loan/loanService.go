package loansvc

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
	"github.com/hgarciaospina/library-management/util/validation"
)

const tracerName = "github.com/hgarciaospina/library-management/service/loan"

// Values of the "event" attribute on the loan events counter.
const (
	eventCreated  = "created"
	eventReturned = "returned"
	eventReopened = "reopened"
	eventUpdated  = "updated"
	eventDeleted  = "deleted"
)

type Service interface {
	// CreateLoan lends a book to a member and marks the book unavailable.
	CreateLoan(ctx context.Context, req model.CreateLoanReq) (*model.LoanDetails, error)
	// UpdateLoan reassigns fields, records a return or re-opens a loan.
	UpdateLoan(ctx context.Context, req model.UpdateLoanReq) (*model.Loan, error)
	// DeleteLoan removes a loan; deleting an active loan frees its book.
	DeleteLoan(ctx context.Context, id int64) error

	GetLoan(ctx context.Context, id int64) (*model.Loan, error)
	GetLoanWithDetails(ctx context.Context, id int64) (*model.LoanDetails, error)
	GetLoansByBook(ctx context.Context, bookID int64) ([]model.Loan, error)
	GetLoansByMember(ctx context.Context, memberID int64) ([]model.Loan, error)
}

// Manager owns every loan mutation and the book availability flag that
// follows from it. Each mutation runs in a single store transaction.
type Manager struct {
	store  repository.Store
	v      *validation.Validator
	now    func() time.Time
	log    *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
	events metric.Int64Counter
}

var _ Service = (*Manager)(nil)

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// WithMeter sets the meter for the library.loan.events counter.
func WithMeter(mt metric.Meter) Option {
	return func(m *Manager) { m.meter = mt }
}

func WithValidator(v *validation.Validator) Option {
	return func(m *Manager) { m.v = v }
}

func New(store repository.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		v:      validation.New(),
		now:    time.Now,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: otel.Tracer(tracerName),
		meter:  otel.Meter(tracerName),
	}
	for _, o := range opts {
		o(m)
	}
	events, err := m.meter.Int64Counter("library.loan.events",
		metric.WithDescription("Committed loan mutations by event"))
	if err != nil {
		m.log.Warn("loan events counter disabled", "err", err)
		events = noop.Int64Counter{}
	}
	m.events = events
	return m
}

func (m *Manager) CreateLoan(ctx context.Context, req model.CreateLoanReq) (_ *model.LoanDetails, err error) {
	ctx, span := m.start(ctx, "loan.create",
		attribute.Int64("book_id", req.BookID),
		attribute.Int64("member_id", req.MemberID))
	defer func() { finish(span, err) }()

	now := m.now().UTC()
	err = m.v.Check(req, func(ve *errs.ValidationError) {
		if !req.DueDate.IsZero() && !req.DueDate.After(now) {
			ve.Add("due_date", "must be in the future")
		}
	})
	if err != nil {
		return nil, err
	}

	var out model.LoanDetails
	err = m.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		book, err := tx.LockBook(ctx, req.BookID)
		if err != nil {
			return err
		}
		lib, err := tx.LibraryByID(ctx, req.LibraryID)
		if err != nil {
			return err
		}
		member, err := tx.MemberByID(ctx, req.MemberID)
		if err != nil {
			return err
		}
		if book.LibraryID != lib.ID {
			return errs.Conflict(errs.ReasonLibraryMismatch)
		}

		active, err := tx.CountLoans(ctx, model.LoanFilter{BookID: book.ID, ActiveOnly: true})
		if err != nil {
			return err
		}
		if !book.IsAvailable || active > 0 {
			return errs.Conflict(errs.ReasonBookOnLoan)
		}

		loan := model.Loan{
			BookID:    book.ID,
			MemberID:  member.ID,
			LibraryID: book.LibraryID,
			LoanDate:  now,
			DueDate:   req.DueDate.UTC(),
		}
		if err := tx.InsertLoan(ctx, &loan); err != nil {
			return err
		}
		if err := syncAvailability(ctx, tx, book.ID); err != nil {
			return err
		}
		book.IsAvailable = false
		out = model.NewLoanDetails(loan, *book, *lib, *member)
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("loan_id", out.ID))
	m.count(ctx, eventCreated)
	m.log.InfoContext(ctx, "loan created", "loan_id", out.ID, "book_id", out.BookID, "member_id", out.MemberID)
	return &out, nil
}

func (m *Manager) UpdateLoan(ctx context.Context, req model.UpdateLoanReq) (_ *model.Loan, err error) {
	ctx, span := m.start(ctx, "loan.update", attribute.Int64("loan_id", req.ID))
	defer func() { finish(span, err) }()

	today := model.Day(m.now())
	err = m.v.Check(req, func(ve *errs.ValidationError) {
		if req.ReturnDate != nil && model.Day(*req.ReturnDate).After(today) {
			ve.Add("return_date", "must not be in the future")
		}
	})
	if err != nil {
		return nil, err
	}

	var (
		out      model.Loan
		returned bool
		reopened bool
	)
	err = m.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cur, err := tx.LockLoan(ctx, req.ID)
		if err != nil {
			return err
		}
		if _, err := tx.LibraryByID(ctx, req.LibraryID); err != nil {
			return err
		}
		if _, err := tx.MemberByID(ctx, req.MemberID); err != nil {
			return err
		}

		bookIDs := lockOrder(cur.BookID, req.BookID)
		books := make(map[int64]*model.Book, len(bookIDs))
		for _, id := range bookIDs {
			b, err := tx.LockBook(ctx, id)
			if err != nil {
				return err
			}
			books[id] = b
		}
		book := books[req.BookID]
		if book.LibraryID != req.LibraryID {
			return errs.Conflict(errs.ReasonLibraryMismatch)
		}

		ve := &errs.ValidationError{}
		if req.DueDate.Before(cur.LoanDate) {
			ve.Add("due_date", "must not be before the loan date")
		}
		if req.ReturnDate != nil && model.Day(*req.ReturnDate).Before(model.Day(cur.LoanDate)) {
			ve.Add("return_date", "must not be before the loan date")
		}
		if err := ve.OrNil(); err != nil {
			return err
		}

		if req.ReturnDate == nil {
			active, err := tx.ListLoans(ctx, model.LoanFilter{BookID: book.ID, ActiveOnly: true})
			if err != nil {
				return err
			}
			if slices.ContainsFunc(active, func(l model.Loan) bool { return l.ID != cur.ID }) {
				return errs.Conflict(errs.ReasonBookOnLoan)
			}
		}

		next := *cur
		next.BookID = book.ID
		next.MemberID = req.MemberID
		next.LibraryID = book.LibraryID
		next.DueDate = req.DueDate.UTC()
		next.ReturnDate = nil
		if req.ReturnDate != nil {
			// A same-day return stamped before the loan time is stored at the loan time.
			rd := req.ReturnDate.UTC()
			if rd.Before(cur.LoanDate) {
				rd = cur.LoanDate
			}
			next.ReturnDate = &rd
		}
		if err := tx.UpdateLoan(ctx, &next); err != nil {
			return err
		}
		for _, id := range bookIDs {
			if err := syncAvailability(ctx, tx, id); err != nil {
				return err
			}
		}

		returned = cur.Active() && !next.Active()
		reopened = !cur.Active() && next.Active()
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case returned:
		m.count(ctx, eventReturned)
		m.log.InfoContext(ctx, "loan returned", "loan_id", out.ID, "book_id", out.BookID)
	case reopened:
		m.count(ctx, eventReopened)
		m.log.InfoContext(ctx, "loan reopened", "loan_id", out.ID, "book_id", out.BookID)
	default:
		m.count(ctx, eventUpdated)
		m.log.InfoContext(ctx, "loan updated", "loan_id", out.ID)
	}
	return &out, nil
}

func (m *Manager) DeleteLoan(ctx context.Context, id int64) (err error) {
	ctx, span := m.start(ctx, "loan.delete", attribute.Int64("loan_id", id))
	defer func() { finish(span, err) }()

	var wasActive bool
	err = m.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cur, err := tx.LockLoan(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.LockBook(ctx, cur.BookID); err != nil {
			return err
		}
		if err := tx.DeleteLoan(ctx, id); err != nil {
			return err
		}
		wasActive = cur.Active()
		return syncAvailability(ctx, tx, cur.BookID)
	})
	if err != nil {
		return err
	}
	m.count(ctx, eventDeleted)
	m.log.InfoContext(ctx, "loan deleted", "loan_id", id, "was_active", wasActive)
	return nil
}

func (m *Manager) GetLoan(ctx context.Context, id int64) (*model.Loan, error) {
	return m.store.LoanByID(ctx, id)
}

func (m *Manager) GetLoanWithDetails(ctx context.Context, id int64) (*model.LoanDetails, error) {
	return m.store.LoanDetailsByID(ctx, id)
}

func (m *Manager) GetLoansByBook(ctx context.Context, bookID int64) ([]model.Loan, error) {
	if _, err := m.store.BookByID(ctx, bookID); err != nil {
		return nil, err
	}
	return m.store.ListLoans(ctx, model.LoanFilter{BookID: bookID})
}

func (m *Manager) GetLoansByMember(ctx context.Context, memberID int64) ([]model.Loan, error) {
	if _, err := m.store.MemberByID(ctx, memberID); err != nil {
		return nil, err
	}
	return m.store.ListLoans(ctx, model.LoanFilter{MemberID: memberID})
}

// syncAvailability recomputes a book's availability flag from its active
// loans.
func syncAvailability(ctx context.Context, tx repository.Tx, bookID int64) error {
	n, err := tx.CountLoans(ctx, model.LoanFilter{BookID: bookID, ActiveOnly: true})
	if err != nil {
		return err
	}
	return tx.SetBookAvailable(ctx, bookID, n == 0)
}

// lockOrder returns the distinct ids ascending.
func lockOrder(ids ...int64) []int64 {
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (m *Manager) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (m *Manager) count(ctx context.Context, event string) {
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(errs.Code(err)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
