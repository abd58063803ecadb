// model/member.go
package model

import "time"

type Member struct {
	ID               int64     `json:"id" db:"id"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	Email            string    `json:"email" db:"email"`
	PhoneNumber      string    `json:"phone_number" db:"phone_number"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`
	LibraryID        int64     `json:"library_id" db:"library_id"`
}

// FullName returns "First Last".
func (m Member) FullName() string {
	return fullName(m.FirstName, m.LastName)
}

// CreateMemberReq represents member registration payload.
// RegistrationDate defaults to now when omitted.
// swagger:model CreateMemberReq
type CreateMemberReq struct {
	FirstName        string     `json:"first_name" validate:"required,max=100"`
	LastName         string     `json:"last_name" validate:"required,max=100"`
	Email            string     `json:"email" validate:"required,email"`
	PhoneNumber      string     `json:"phone_number" validate:"required,max=30"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	LibraryID        int64      `json:"library_id" validate:"required,gt=0"`
}

// UpdateMemberReq represents a member update payload.
// swagger:model UpdateMemberReq
type UpdateMemberReq struct {
	ID               int64     `json:"id" validate:"required,gt=0"`
	FirstName        string    `json:"first_name" validate:"required,max=100"`
	LastName         string    `json:"last_name" validate:"required,max=100"`
	Email            string    `json:"email" validate:"required,email"`
	PhoneNumber      string    `json:"phone_number" validate:"required,max=30"`
	RegistrationDate time.Time `json:"registration_date" validate:"required"`
	LibraryID        int64     `json:"library_id" validate:"required,gt=0"`
}
