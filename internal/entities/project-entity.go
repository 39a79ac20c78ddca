package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Статусы аудита, известные интерфейсу. Хранилище принимает любую непустую строку.
const (
	AuditStatusToPlan     = "A planifier"
	AuditStatusPlanned    = "Planifié"
	AuditStatusInProgress = "En cours"
	AuditStatusReporting  = "Rédaction rapport"
	AuditStatusDone       = "Terminé"
	AuditStatusCancelled  = "Annulé"
)

type Project struct {
	ID                uint64      `db:"id"`
	Reference         string      `db:"reference"`
	Customer          string      `db:"customer"`
	CertificationType string      `db:"certification_type"`
	City              string      `db:"city"`
	InspectionDate    null.Time   `db:"inspection_date"`
	AuditStatus       string      `db:"audit_status"`
	Notes             null.String `db:"notes"`
	Year              int         `db:"year"`
	LastUpdated       time.Time   `db:"last_updated"`
	CreatedAt         time.Time   `db:"created_at"`
}
