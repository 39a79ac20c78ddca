package services

import (
	"context"

	"go.uber.org/zap"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// compensationLog - журнал обратных действий одного вызова пайплайна.
// Каждый долговременный эффект регистрирует своё отменяющее действие сразу после успеха.
type compensationLog struct {
	steps  []compensation
	logger *zap.Logger
}

func newCompensationLog(logger *zap.Logger) *compensationLog {
	return &compensationLog{logger: logger}
}

func (l *compensationLog) Register(name string, undo func(ctx context.Context) error) {
	l.steps = append(l.steps, compensation{name: name, undo: undo})
}

func (l *compensationLog) Len() int { return len(l.steps) }

// Rollback выполняет действия в обратном порядке и не останавливается на ошибках.
// Возвращает число действий, которые выполнить не удалось.
func (l *compensationLog) Rollback(ctx context.Context) int {
	failed := 0
	for i := len(l.steps) - 1; i >= 0; i-- {
		step := l.steps[i]
		if err := step.undo(ctx); err != nil {
			failed++
			l.logger.Error("Откат: действие не выполнено", zap.String("step", step.name), zap.Error(err))
			continue
		}
		l.logger.Debug("Откат: действие выполнено", zap.String("step", step.name))
	}
	l.steps = nil
	if failed > 0 {
		pipelineCompensationFailures.Add(float64(failed))
	}
	return failed
}
