package membersvc

import (
	"context"
	"time"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/repository"
	"github.com/hgarciaospina/library-management/util/errs"
	"github.com/hgarciaospina/library-management/util/validation"
)

type Service interface {
	Create(ctx context.Context, req model.CreateMemberReq) (*model.Member, error)
	Get(ctx context.Context, id int64) (*model.Member, error)
	// List returns every member when libraryID is 0.
	List(ctx context.Context, libraryID int64) ([]model.Member, error)
	Update(ctx context.Context, req model.UpdateMemberReq) (*model.Member, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	store repository.Store
	v     *validation.Validator
	now   func() time.Time
}

func New(store repository.Store, v *validation.Validator, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{store: store, v: v, now: now}
}

func (s *service) Create(ctx context.Context, req model.CreateMemberReq) (*model.Member, error) {
	if err := s.v.Validate(req); err != nil {
		return nil, err
	}
	m := model.Member{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		RegistrationDate: s.now().UTC(),
		LibraryID:        req.LibraryID,
	}
	if req.RegistrationDate != nil {
		m.RegistrationDate = req.RegistrationDate.UTC()
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LibraryByID(ctx, req.LibraryID); err != nil {
			return err
		}
		return tx.InsertMember(ctx, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Member, error) {
	return s.store.MemberByID(ctx, id)
}

func (s *service) List(ctx context.Context, libraryID int64) ([]model.Member, error) {
	if libraryID != 0 {
		if _, err := s.store.LibraryByID(ctx, libraryID); err != nil {
			return nil, err
		}
	}
	return s.store.ListMembers(ctx, libraryID)
}

func (s *service) Update(ctx context.Context, req model.UpdateMemberReq) (*model.Member, error) {
	if err := s.v.Validate(req); err != nil {
		return nil, err
	}
	m := model.Member{
		ID:               req.ID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		RegistrationDate: req.RegistrationDate.UTC(),
		LibraryID:        req.LibraryID,
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.MemberByID(ctx, req.ID); err != nil {
			return err
		}
		if _, err := tx.LibraryByID(ctx, req.LibraryID); err != nil {
			return err
		}
		return tx.UpdateMember(ctx, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete refuses while the member holds a book and removes their returned loans.
func (s *service) Delete(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.MemberByID(ctx, id); err != nil {
			return err
		}
		active, err := tx.CountLoans(ctx, model.LoanFilter{MemberID: id, ActiveOnly: true})
		if err != nil {
			return err
		}
		if active > 0 {
			return errs.Conflict(errs.ReasonHasActiveLoans)
		}
		if _, err := tx.DeleteLoans(ctx, model.LoanFilter{MemberID: id}); err != nil {
			return err
		}
		return tx.DeleteMember(ctx, id)
	})
}
