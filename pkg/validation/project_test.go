package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audit-desk/internal/dto"
)

var fixedNow = time.Date(2031, 6, 1, 12, 0, 0, 0, time.UTC)

func validRaw() map[string]string {
	return map[string]string{
		dto.FieldReference:         "  AUD-2025-001 ",
		dto.FieldCustomer:          "Acme",
		dto.FieldCertificationType: "ISO 9001",
		dto.FieldCity:              "Lyon",
		dto.FieldInspectionDate:    "2025-03-14",
		dto.FieldStatus:            "Planifié",
		dto.FieldNotes:             "",
	}
}

func TestValidateProjectFields_OK(t *testing.T) {
	fields, verr := ValidateProjectFields(validRaw(), fixedNow)
	require.Nil(t, verr)
	require.NotNil(t, fields)

	assert.Equal(t, "AUD-2025-001", fields.Reference)
	assert.Equal(t, 2025, fields.Year)
	require.True(t, fields.InspectionDate.Valid)
	assert.Equal(t, time.March, fields.InspectionDate.Time.Month())
	assert.Equal(t, 14, fields.InspectionDate.Time.Day())
	assert.Equal(t, "", fields.Notes)
}

func TestValidateProjectFields_NoDateUsesCurrentYear(t *testing.T) {
	raw := validRaw()
	delete(raw, dto.FieldInspectionDate)
	delete(raw, dto.FieldNotes)

	fields, verr := ValidateProjectFields(raw, fixedNow)
	require.Nil(t, verr)
	assert.Equal(t, 2031, fields.Year)
	assert.False(t, fields.InspectionDate.Valid)
	assert.Equal(t, "", fields.Notes)
}

func TestValidateProjectFields_EmptyReference(t *testing.T) {
	raw := validRaw()
	raw[dto.FieldReference] = "   "

	fields, verr := ValidateProjectFields(raw, fixedNow)
	assert.Nil(t, fields)
	require.NotNil(t, verr)
	assert.True(t, verr.Has(dto.FieldReference))
	assert.Len(t, verr.Fields, 1)
}

func TestValidateProjectFields_ImpossibleDate(t *testing.T) {
	raw := validRaw()
	raw[dto.FieldInspectionDate] = "2025-13-40"

	_, verr := ValidateProjectFields(raw, fixedNow)
	require.NotNil(t, verr)
	assert.True(t, verr.Has(dto.FieldInspectionDate))
	assert.Equal(t, []string{"несуществующая дата"}, verr.Fields[dto.FieldInspectionDate])
}

func TestValidateProjectFields_BadDateFormat(t *testing.T) {
	raw := validRaw()
	raw[dto.FieldInspectionDate] = "14/03/2025"

	_, verr := ValidateProjectFields(raw, fixedNow)
	require.NotNil(t, verr)
	assert.Equal(t, []string{"ожидается дата в формате ГГГГ-ММ-ДД"}, verr.Fields[dto.FieldInspectionDate])
}

func TestValidateProjectFields_CollectsAllFields(t *testing.T) {
	_, verr := ValidateProjectFields(map[string]string{}, fixedNow)
	require.NotNil(t, verr)
	for _, f := range []string{
		dto.FieldReference, dto.FieldCustomer, dto.FieldCertificationType, dto.FieldCity, dto.FieldStatus,
	} {
		assert.True(t, verr.Has(f), f)
	}
	assert.False(t, verr.Has(dto.FieldInspectionDate))
	assert.False(t, verr.Has(dto.FieldNotes))
}

func TestDeriveYear(t *testing.T) {
	assert.Equal(t, 2025, DeriveYear("2025-03-14", fixedNow))
	assert.Equal(t, 2031, DeriveYear("", fixedNow))
	assert.Equal(t, 2031, DeriveYear("2025/03/14", fixedNow))
	assert.Equal(t, 2025, DeriveYear("2025-13-40", fixedNow))
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Secret123"))
	assert.False(t, StrongPassword("Sec123"), "короткий")
	assert.False(t, StrongPassword("secret123"), "нет заглавной")
	assert.False(t, StrongPassword("SECRET123"), "нет строчной")
	assert.False(t, StrongPassword("SecretPass"), "нет цифры")
}

func TestCustomValidator_StrongPasswordTag(t *testing.T) {
	type req struct {
		NewPassword string `json:"new_password" validate:"required,strong_password"`
	}
	v := New()
	assert.NoError(t, v.Validate(req{NewPassword: "Abcdefg1"}))
	assert.Error(t, v.Validate(req{NewPassword: "abcdefg1"}))
}
