package validation

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
)

type nullableInput struct {
	Date    null.String `json:"date" validate:"omitempty,iso_date"`
	OwnerID null.Uint64 `json:"owner_id" validate:"omitempty,gt=0"`
	Label   null.String `json:"label" validate:"required"`
}

func TestNullTypes(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(nullableInput{Label: null.StringFrom("x")}), "пустые null-поля пропускаются omitempty")
	assert.NoError(t, v.Validate(nullableInput{
		Date:    null.StringFrom("2025-03-14"),
		OwnerID: null.Uint64From(7),
		Label:   null.StringFrom("x"),
	}))

	assert.Error(t, v.Validate(nullableInput{Date: null.StringFrom("14/03/2025"), Label: null.StringFrom("x")}))
	assert.Error(t, v.Validate(nullableInput{OwnerID: null.Uint64From(0), Label: null.StringFrom("x")}))
	assert.Error(t, v.Validate(nullableInput{}), "невалидный null.String не проходит required")
}
