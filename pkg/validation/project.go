package validation

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"

	"audit-desk/internal/dto"
	apperrors "audit-desk/pkg/errors"
)

type projectForm struct {
	Reference         string      `form:"reference" validate:"required"`
	Customer          string      `form:"customer" validate:"required"`
	CertificationType string      `form:"certification_type" validate:"required"`
	City              string      `form:"city" validate:"required"`
	InspectionDate    null.String `form:"inspection_date" validate:"omitempty,iso_date,calendar_date"`
	Status            string      `form:"status" validate:"required"`
	Notes             string      `form:"notes"`
}

var tagMessages = map[string]string{
	"required":      "обязательное поле",
	"iso_date":      "ожидается дата в формате ГГГГ-ММ-ДД",
	"calendar_date": "несуществующая дата",
}

// ValidateProjectFields проверяет поля формы проекта и вычисляет год аудита.
// Ошибки собираются по всем полям сразу.
func ValidateProjectFields(raw map[string]string, now time.Time) (*dto.ProjectFields, *apperrors.ValidationError) {
	form := projectForm{
		Reference:         strings.TrimSpace(raw[dto.FieldReference]),
		Customer:          strings.TrimSpace(raw[dto.FieldCustomer]),
		CertificationType: strings.TrimSpace(raw[dto.FieldCertificationType]),
		City:              strings.TrimSpace(raw[dto.FieldCity]),
		InspectionDate:    null.NewString(raw[dto.FieldInspectionDate], raw[dto.FieldInspectionDate] != ""),
		Status:            strings.TrimSpace(raw[dto.FieldStatus]),
		Notes:             raw[dto.FieldNotes],
	}

	if err := shared().validator.Struct(form); err != nil {
		verr := &apperrors.ValidationError{}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			verr.Add("form", err.Error())
			return nil, verr
		}
		for _, fe := range fieldErrs {
			msg, ok := tagMessages[fe.Tag()]
			if !ok {
				msg = "недопустимое значение"
			}
			verr.Add(fe.Field(), msg)
		}
		return nil, verr
	}

	fields := &dto.ProjectFields{
		Reference:         form.Reference,
		Customer:          form.Customer,
		CertificationType: form.CertificationType,
		City:              form.City,
		AuditStatus:       form.Status,
		Notes:             form.Notes,
		Year:              DeriveYear(form.InspectionDate.String, now),
	}
	if form.InspectionDate.Valid {
		// формат и календарь уже проверены
		d, _ := time.Parse(isoDateLayout, form.InspectionDate.String)
		fields.InspectionDate = null.TimeFrom(d)
	}
	return fields, nil
}

// DeriveYear: "2025-03-14" -> 2025, пустая или неподходящая строка -> текущий год.
func DeriveYear(inspectionDate string, now time.Time) int {
	if isoDateRe.MatchString(inspectionDate) {
		if y, err := strconv.Atoi(inspectionDate[:4]); err == nil {
			return y
		}
	}
	return now.Year()
}
