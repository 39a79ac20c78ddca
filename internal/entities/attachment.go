package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Attachment - строка таблицы files. Slot пуст только у старых записей.
type Attachment struct {
	ID         uint64      `db:"id"`
	ProjectID  uint64      `db:"project_id"`
	Slot       null.String `db:"slot"`
	Kind       string      `db:"kind"`
	Path       string      `db:"path"`
	Mime       string      `db:"mime"`
	Size       int64       `db:"size"`
	UploadedBy null.Uint64 `db:"uploaded_by"`
	UploadedAt time.Time   `db:"uploaded_at"`
}
