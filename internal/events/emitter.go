package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryReportEmitter is a simple implementation of the ReportEmitter
// interface that stores registered handlers in memory and dispatches
// reports to them synchronously.
type InMemoryReportEmitter struct {
	handlers []ReportHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryReportEmitter creates a new instance of InMemoryReportEmitter.
func NewInMemoryReportEmitter(logger *slog.Logger) *InMemoryReportEmitter {
	return &InMemoryReportEmitter{
		handlers: make([]ReportHandler, 0),
		logger:   logger.With(slog.String("component", "report_emitter")),
	}
}

// RegisterHandler adds a new report handler to receive reports.
func (e *InMemoryReportEmitter) RegisterHandler(handler ReportHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new report handler", "handler_count", len(e.handlers))
}

// EmitReport publishes the given report to all registered handlers.
// If any handler returns an error, the report is still delivered to all
// other handlers, and the first error encountered is returned.
func (e *InMemoryReportEmitter) EmitReport(ctx context.Context, report *BatchReport) error {
	e.mu.RLock()
	handlers := make([]ReportHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		e.logger.Warn("no handlers registered for batch report",
			"report_id", report.ID,
			"batch_id", report.BatchID)
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleReport(ctx, report); err != nil {
			e.logger.Error("handler failed to process batch report",
				"error", err,
				"handler_index", i,
				"report_id", report.ID,
				"batch_id", report.BatchID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Interface assertion.
var _ ReportEmitter = (*InMemoryReportEmitter)(nil)

// LogReportHandler writes batch reports to structured logs. It is the
// default sink wired at startup; additional channels register alongside it.
type LogReportHandler struct {
	logger *slog.Logger
}

// NewLogReportHandler creates a handler that logs reports with the given logger.
func NewLogReportHandler(logger *slog.Logger) *LogReportHandler {
	return &LogReportHandler{
		logger: logger.With(slog.String("component", "report_log_sink")),
	}
}

// HandleReport logs the report at a level matching its outcome.
func (h *LogReportHandler) HandleReport(ctx context.Context, report *BatchReport) error {
	attrs := []any{
		"batch_id", report.BatchID,
		"job_type", string(report.JobType),
		"week", report.Week,
		"year", report.Year,
		"outcome", report.Outcome,
		"total_requests", report.TotalRequests,
		"success_count", report.SuccessCount,
		"error_count", report.ErrorCount,
	}
	switch report.Outcome {
	case OutcomeCompleted:
		h.logger.InfoContext(ctx, "batch job completed", attrs...)
	default:
		h.logger.WarnContext(ctx, "batch job did not complete",
			append(attrs, "reason", report.Reason)...)
	}
	return nil
}

var _ ReportHandler = (*LogReportHandler)(nil)
