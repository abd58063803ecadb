package listing

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
)

const tracerName = "github.com/hgarciaospina/library-management/service/listing"

// Reader is the part of the store the listing service reads from.
type Reader interface {
	LibraryByID(ctx context.Context, id int64) (*model.Library, error)
	ListLoanDetails(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error)
}

var _ Reader = (repository.Store)(nil)

type Service interface {
	// ListAllWithDetails returns every loan in display order.
	ListAllWithDetails(ctx context.Context) ([]model.LoanDetails, error)
	// ListByLibrary returns loans on books of the library in display order.
	ListByLibrary(ctx context.Context, libraryID int64) ([]model.LoanDetails, error)
	// LibraryName resolves a library's display name whether or not it has loans.
	LibraryName(ctx context.Context, libraryID int64) (string, error)
	List(ctx context.Context, f model.LoanFilter) ([]model.LoanDetails, error)
}

type service struct {
	r      Reader
	tracer trace.Tracer
}

type Option func(*service)

func WithTracer(t trace.Tracer) Option {
	return func(s *service) { s.tracer = t }
}

func New(r Reader, opts ...Option) Service {
	s := &service{r: r, tracer: otel.Tracer(tracerName)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) ListAllWithDetails(ctx context.Context) ([]model.LoanDetails, error) {
	return s.List(ctx, model.LoanFilter{})
}

func (s *service) ListByLibrary(ctx context.Context, libraryID int64) ([]model.LoanDetails, error) {
	if _, err := s.r.LibraryByID(ctx, libraryID); err != nil {
		return nil, err
	}
	return s.List(ctx, model.LoanFilter{LibraryID: libraryID})
}

func (s *service) LibraryName(ctx context.Context, libraryID int64) (string, error) {
	lib, err := s.r.LibraryByID(ctx, libraryID)
	if err != nil {
		return "", err
	}
	return lib.Name, nil
}

// List filters on the book's library when f.LibraryID is set.
func (s *service) List(ctx context.Context, f model.LoanFilter) (_ []model.LoanDetails, err error) {
	ctx, span := s.tracer.Start(ctx, "loan.list", trace.WithAttributes(
		attribute.Int64("library_id", f.LibraryID),
		attribute.Int64("book_id", f.BookID),
		attribute.Int64("member_id", f.MemberID),
		attribute.Bool("active_only", f.ActiveOnly),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(errs.Code(err)))
		}
		span.End()
	}()

	out, err := s.r.ListLoanDetails(ctx, f)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, model.CompareLoanDetails)
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}
