package booksvc

import (
	"context"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
	"github.com/hgarciaospina/library-management/util/validation"
)

type Service interface {
	Create(ctx context.Context, req model.CreateBookReq) (*model.Book, error)
	Get(ctx context.Context, id int64) (*model.Book, error)
	// List returns every book when libraryID is 0.
	List(ctx context.Context, libraryID int64) ([]model.Book, error)
	Update(ctx context.Context, req model.UpdateBookReq) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	store repository.Store
	v     *validation.Validator
}

func New(store repository.Store, v *validation.Validator) Service {
	return &service{store: store, v: v}
}

// Create stores a new, available book.
func (s *service) Create(ctx context.Context, req model.CreateBookReq) (*model.Book, error) {
	if err := s.v.Validate(req); err != nil {
		return nil, err
	}
	b := model.Book{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            req.ISBN,
		PublicationYear: req.PublicationYear,
		LibraryID:       req.LibraryID,
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LibraryByID(ctx, req.LibraryID); err != nil {
			return err
		}
		return tx.InsertBook(ctx, &b)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Book, error) {
	return s.store.BookByID(ctx, id)
}

func (s *service) List(ctx context.Context, libraryID int64) ([]model.Book, error) {
	if libraryID != 0 {
		if _, err := s.store.LibraryByID(ctx, libraryID); err != nil {
			return nil, err
		}
	}
	return s.store.ListBooks(ctx, libraryID)
}

// Update edits descriptive fields. A book keeps its library while any loan
// references it, and availability is left to the loan lifecycle.
func (s *service) Update(ctx context.Context, req model.UpdateBookReq) (*model.Book, error) {
	if err := s.v.Validate(req); err != nil {
		return nil, err
	}
	var out model.Book
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		cur, err := tx.LockBook(ctx, req.ID)
		if err != nil {
			return err
		}
		if _, err := tx.LibraryByID(ctx, req.LibraryID); err != nil {
			return err
		}
		if cur.LibraryID != req.LibraryID {
			n, err := tx.CountLoans(ctx, model.LoanFilter{BookID: cur.ID})
			if err != nil {
				return err
			}
			if n > 0 {
				return errs.Conflict(errs.ReasonLoansOnBook)
			}
		}
		out = model.Book{
			ID:              cur.ID,
			Title:           req.Title,
			Author:          req.Author,
			ISBN:            req.ISBN,
			PublicationYear: req.PublicationYear,
			IsAvailable:     cur.IsAvailable,
			LibraryID:       req.LibraryID,
		}
		return tx.UpdateBook(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete refuses while the book is on loan and removes its returned loans.
func (s *service) Delete(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LockBook(ctx, id); err != nil {
			return err
		}
		active, err := tx.CountLoans(ctx, model.LoanFilter{BookID: id, ActiveOnly: true})
		if err != nil {
			return err
		}
		if active > 0 {
			return errs.Conflict(errs.ReasonHasActiveLoans)
		}
		if _, err := tx.DeleteLoans(ctx, model.LoanFilter{BookID: id}); err != nil {
			return err
		}
		return tx.DeleteBook(ctx, id)
	})
}
