package dto

import (
	"io"
	"time"

	"github.com/aarondl/null/v8"
)

// Имена полей формы проекта
const (
	FieldReference         = "reference"
	FieldCustomer          = "customer"
	FieldCertificationType = "certification_type"
	FieldCity              = "city"
	FieldInspectionDate    = "inspection_date"
	FieldStatus            = "status"
	FieldNotes             = "notes"
)

// ProjectFields - проверенные и нормализованные поля проекта.
type ProjectFields struct {
	Reference         string
	Customer          string
	CertificationType string
	City              string
	InspectionDate    null.Time
	AuditStatus       string
	Notes             string
	Year              int
}

// FileInput - файл из multipart-запроса. Size == 0 означает "слот не передан".
type FileInput struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.Reader
}

type UploadResult struct {
	AttachmentID uint64 `json:"attachment_id"`
	StoragePath  string `json:"storage_path"`
}

type CreateProjectResponseDTO struct {
	ID uint64 `json:"id"`
}

type ProjectDTO struct {
	ID                uint64                    `json:"id"`
	Reference         string                    `json:"reference"`
	Customer          string                    `json:"customer"`
	CertificationType string                    `json:"certification_type"`
	City              string                    `json:"city"`
	InspectionDate    *string                   `json:"inspection_date"`
	AuditStatus       string                    `json:"status"`
	Notes             string                    `json:"notes"`
	Year              int                       `json:"year"`
	LastUpdated       time.Time                 `json:"last_updated"`
	Files             map[string]*AttachmentDTO `json:"files"`
}

type YearsDTO struct {
	Years []int `json:"years"`
}
