package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgarciaospina/library-management/model"
	"github.com/hgarciaospina/library-management/util/errs"
)

func TestValidate_UsesJSONNames(t *testing.T) {
	v := New()
	err := v.Validate(model.CreateLoanReq{LibraryID: 1})

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	fields := map[string]string{}
	for _, f := range ve.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, map[string]string{
		"book_id":   "is required",
		"member_id": "is required",
		"due_date":  "is required",
	}, fields)
}

func TestValidate_Messages(t *testing.T) {
	v := New()
	err := v.Validate(model.CreateBookReq{
		Title:           "t",
		Author:          "a",
		ISBN:            "not-an-isbn",
		PublicationYear: 10000,
		LibraryID:       1,
	})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "isbn", Message: "must be a valid ISBN-10 or ISBN-13"},
		{Field: "publication_year", Message: "must be at most 9999"},
	}, ve.Fields)
}

func TestCheck_MergesExtraRules(t *testing.T) {
	v := New()
	req := model.CreateLoanReq{LibraryID: 1, BookID: 2, MemberID: 3, DueDate: time.Now().Add(-time.Hour)}

	err := v.Check(req, func(ve *errs.ValidationError) {
		if !req.DueDate.After(time.Now()) {
			ve.Add("due_date", "must be in the future")
		}
	})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []errs.FieldError{{Field: "due_date", Message: "must be in the future"}}, ve.Fields)

	req.DueDate = time.Now().Add(time.Hour)
	require.NoError(t, v.Check(req, nil))
}
