// model/library.go
package model

type Library struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
}

// CreateLibraryReq represents a new library payload.
// swagger:model CreateLibraryReq
type CreateLibraryReq struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"required,max=300"`
}

// UpdateLibraryReq represents a library update payload.
// swagger:model UpdateLibraryReq
type UpdateLibraryReq struct {
	ID      int64  `json:"id" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"required,max=300"`
}
