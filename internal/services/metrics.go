package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы операций пайплайна
const (
	outcomeOK         = "ok"
	outcomeInvalid    = "invalid"
	outcomeForbidden  = "forbidden"
	outcomeFailed     = "failed"
	outcomeRolledBack = "rolled_back"
)

var (
	pipelineOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_pipeline_operations_total",
			Help: "Операции записи проектов по исходу",
		},
		[]string{"op", "outcome"},
	)

	pipelineCompensationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_pipeline_compensation_failures_total",
			Help: "Обратные действия, которые не удалось выполнить при откате",
		},
	)

	uploadedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_uploaded_bytes_total",
			Help: "Объём загруженных файлов по слотам",
		},
		[]string{"slot"},
	)

	slotDuplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_slot_duplicates_total",
			Help: "Лишние текущие файлы в одном слоте, найденные при чтении",
		},
	)
)

func observeOperation(op, outcome string) {
	pipelineOperations.WithLabelValues(op, outcome).Inc()
}
