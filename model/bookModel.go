// model/book.go
package model

// Book belongs to exactly one Library. IsAvailable is owned by the loan
// lifecycle: it is false while an active loan references the book.
type Book struct {
	ID              int64  `json:"id" db:"id"`
	Title           string `json:"title" db:"title"`
	Author          string `json:"author" db:"author"`
	ISBN            string `json:"isbn" db:"isbn"`
	PublicationYear int    `json:"publication_year" db:"publication_year"`
	IsAvailable     bool   `json:"is_available" db:"is_available"`
	LibraryID       int64  `json:"library_id" db:"library_id"`
}

// CreateBookReq represents a new book payload.
// swagger:model CreateBookReq
type CreateBookReq struct {
	Title           string `json:"title" validate:"required,max=200"`
	Author          string `json:"author" validate:"required,max=200"`
	ISBN            string `json:"isbn" validate:"required,isbn"`
	PublicationYear int    `json:"publication_year" validate:"gte=0,lte=9999"`
	LibraryID       int64  `json:"library_id" validate:"required,gt=0"`
}

// UpdateBookReq carries the editable book fields. Availability is not one of them.
// swagger:model UpdateBookReq
type UpdateBookReq struct {
	ID              int64  `json:"id" validate:"required,gt=0"`
	Title           string `json:"title" validate:"required,max=200"`
	Author          string `json:"author" validate:"required,max=200"`
	ISBN            string `json:"isbn" validate:"required,isbn"`
	PublicationYear int    `json:"publication_year" validate:"gte=0,lte=9999"`
	LibraryID       int64  `json:"library_id" validate:"required,gt=0"`
}
