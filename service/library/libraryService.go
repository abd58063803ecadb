package librarysvc

import (
	"context"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
	"github.com/hgarciaospina/library-management/util/validation"
)

type Service interface {
	Create(ctx context.Context, req model.CreateLibraryReq) (*model.Library, error)
	Get(ctx context.Context, id int64) (*model.Library, error)
	List(ctx context.Context) ([]model.Library, error)
	Update(ctx context.Context, req model.UpdateLibraryReq) (*model.Library, error)
	// Delete removes the library together with its books, members and
	// returned loans. It is refused while any loan is active there.
	Delete(ctx context.Context, id int64) error
}

type service struct {
	store repository.Store
	v     *validation.Validator
}

func New(store repository.Store, v *validation.Validator) Service {
	return &service{store: store, v: v}
}

func (s *service) Create(ctx context.Context, req model.CreateLibraryReq) (*model.Library, error) {
	if err := s.v.Validate(req); err != nil {
		return nil, err
	}
	l := model.Library{Name: req.Name, Address: req.Address}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.InsertLibrary(ctx, &l)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Library, error) {
	return s.store.LibraryByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]model.Library, error) {
	return s.store.ListLibraries(ctx)
}

func (s *service) Update(ctx context.Context, req model.UpdateLibraryReq) (*model.Library, error) {
	if err := s.v.Validate(req); err != nil {
		return nil, err
	}
	l := model.Library{ID: req.ID, Name: req.Name, Address: req.Address}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.UpdateLibrary(ctx, &l)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LibraryByID(ctx, id); err != nil {
			return err
		}
		scopes := []model.LoanFilter{{LibraryID: id}, {MemberLibraryID: id}}
		for _, f := range scopes {
			f.ActiveOnly = true
			n, err := tx.CountLoans(ctx, f)
			if err != nil {
				return err
			}
			if n > 0 {
				return errs.Conflict(errs.ReasonHasActiveLoans)
			}
		}
		for _, f := range scopes {
			if _, err := tx.DeleteLoans(ctx, f); err != nil {
				return err
			}
		}
		return tx.DeleteLibrary(ctx, id)
	})
}
