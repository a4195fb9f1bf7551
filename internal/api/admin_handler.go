package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/recaplab/recap-api/internal/api/shared"
	"github.com/recaplab/recap-api/internal/pipeline"
	"github.com/recaplab/recap-api/internal/store"
)

// AdminHandler exposes the pipeline's operations to authenticated
// operators: triggering a submission, forcing a poll or consumption pass,
// and inspecting job records. Every route requires the admin role.
type AdminHandler struct {
	submitter *pipeline.Submitter
	poller    *pipeline.Poller
	consumer  *pipeline.Consumer
	jobs      store.BatchJobStore
	validator *validator.Validate
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler with the given dependencies.
func NewAdminHandler(
	submitter *pipeline.Submitter,
	poller *pipeline.Poller,
	consumer *pipeline.Consumer,
	jobs store.BatchJobStore,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		submitter: submitter,
		poller:    poller,
		consumer:  consumer,
		jobs:      jobs,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "admin_handler")),
	}
}

// TriggerWeeklySummaries handles POST /admin/batches. It submits the
// weekly summary batch for the requested (or most recently ended) week.
func (h *AdminHandler) TriggerWeeklySummaries(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest

	// An empty body targets the default week.
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
			return
		}
		if (req.Week == 0) != (req.Year == 0) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "week and year must be given together")
			return
		}
	}

	result, err := h.submitter.Submit(r.Context(), req.Week, req.Year)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := TriggerResponse{
		Week:         result.Week,
		Year:         result.Year,
		TotalUsers:   result.TotalUsers,
		Submitted:    result.Submitted,
		SkippedUsers: result.SkippedUsers,
	}
	if resp.SkippedUsers == nil {
		resp.SkippedUsers = []uuid.UUID{}
	}
	if result.Job == nil {
		// Every user was skipped; nothing went to the provider.
		shared.RespondWithJSON(w, r, http.StatusOK, resp)
		return
	}

	resp.BatchID = result.Job.ID
	shared.RespondWithJSON(w, r, http.StatusAccepted, resp)
}

// PollBatches handles POST /admin/batches/poll. It runs one poll cycle
// immediately instead of waiting for the scheduler's next tick.
func (h *AdminHandler) PollBatches(w http.ResponseWriter, r *http.Request) {
	if err := h.poller.PollCycle(r.Context()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "poll cycle finished"})
}

// ConsumeBatch handles POST /admin/batches/{id}/consume. It re-runs
// consumption for a batch whose results are available, which is the manual
// retry path after a transient consumption failure.
func (h *AdminHandler) ConsumeBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	if batchID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "batch ID is required")
		return
	}

	report, err := h.consumer.Consume(r.Context(), batchID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ConsumeResponse{
		BatchID:      report.BatchID,
		SuccessCount: report.SuccessCount,
		ErrorCount:   report.ErrorCount,
		Errors:       report.Errors,
	})
}

// ListBatchJobs handles GET /admin/batches. It returns the most recently
// submitted jobs, newest first. The limit query parameter caps the result.
func (h *AdminHandler) ListBatchJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	jobs, err := h.jobs.ListRecent(r.Context(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := BatchJobListResponse{Jobs: make([]BatchJobResponse, 0, len(jobs))}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, NewBatchJobResponse(job))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetBatchJob handles GET /admin/batches/{id}. It returns the full job
// record including any per-item errors.
func (h *AdminHandler) GetBatchJob(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "id")
	if batchID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "batch ID is required")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), batchID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewBatchJobResponse(job))
}
