package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/grovelane/miniaudit-api/internal/entity"
	"github.com/grovelane/miniaudit-api/internal/infra/http/middleware"
	"github.com/grovelane/miniaudit-api/internal/status"
	"github.com/grovelane/miniaudit-api/internal/usecase"
)

type ReportHandler struct {
	Reports        usecase.ReportRepository
	Generator      *usecase.GenerateReportUseCase
	Status         *status.Store
	ReportBasePath string
	Logger         *zap.Logger
}

func NewReportHandler(
	reports usecase.ReportRepository,
	generator *usecase.GenerateReportUseCase,
	statusStore *status.Store,
	reportBasePath string,
	logger *zap.Logger,
) *ReportHandler {
	if reportBasePath == "" {
		reportBasePath = "/report/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{
		Reports:        reports,
		Generator:      generator,
		Status:         statusStore,
		ReportBasePath: reportBasePath,
		Logger:         logger,
	}
}

type GenerateRequest struct {
	LeadID string `json:"leadId"`
}

type GenerateResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	LeadID    string `json:"leadId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// HandleGenerate accepts a generation trigger and returns immediately;
// the actual work runs in the background. Errors are only ever
// observable through polling.
func (h *ReportHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LeadID == "" {
		writeJSON(w, http.StatusBadRequest, GenerateResponse{
			Success: false,
			Message: "leadId is required",
		})
		return
	}

	requestID := h.Generator.Trigger(req.LeadID)

	writeJSON(w, http.StatusAccepted, GenerateResponse{
		Success:   true,
		Message:   "Report generation started",
		LeadID:    req.LeadID,
		RequestID: requestID,
	})
}

type StatusResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
	ReportURL string `json:"reportUrl,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStatus is the polling endpoint. Two lookup strategies:
//
//   - leadId: repository truth only. A report referencing the lead means
//     completed, anything else means processing. The lead's own
//     reportStatus field and the ephemeral store are ignored on purpose.
//   - reportRequestId: ephemeral store; a miss is "unknown or expired".
func (h *ReportHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	// Status is time-varying; never let a proxy cache it.
	w.Header().Set("Cache-Control", "no-store")

	if leadID := r.URL.Query().Get("leadId"); leadID != "" {
		h.statusByLead(w, r, leadID)
		return
	}

	if requestID := r.URL.Query().Get("reportRequestId"); requestID != "" {
		h.statusByRequest(w, requestID)
		return
	}

	writeJSON(w, http.StatusBadRequest, StatusResponse{
		Success: false,
		Error:   "leadId or reportRequestId is required",
	})
}

func (h *ReportHandler) statusByLead(w http.ResponseWriter, r *http.Request, leadID string) {
	report, err := h.Reports.FindByLead(r.Context(), leadID)
	if err != nil {
		h.Logger.Error("status lookup failed", zap.String("leadId", leadID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, StatusResponse{
			Success: false,
			Error:   "status lookup failed",
		})
		return
	}

	if report == nil {
		writeJSON(w, http.StatusOK, StatusResponse{
			Success: true,
			Status:  "processing",
			Message: "Report is still being generated",
		})
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Success:   true,
		Status:    "completed",
		Message:   "Report is ready",
		ReportURL: h.ReportBasePath + report.Slug,
	})
}

func (h *ReportHandler) statusByRequest(w http.ResponseWriter, requestID string) {
	st, ok := h.Status.Get(requestID)
	if !ok {
		writeJSON(w, http.StatusNotFound, StatusResponse{
			Success: false,
			Error:   "not found or expired",
		})
		return
	}

	msg := ""
	switch st.Status {
	case status.StateProcessing:
		msg = "Report is still being generated"
	case status.StateCompleted:
		msg = "Report is ready"
	case status.StateFailed:
		msg = "Report generation failed"
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Success:   true,
		Status:    st.Status,
		Message:   msg,
		ReportURL: st.ReportURL,
		Error:     st.Error,
	})
}

type ReportViewResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Report  *entity.Report `json:"report,omitempty"`
}

// HandleView serves a report by its shareable slug and bumps the view
// counter. Expired reports answer 410.
func (h *ReportHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	report, err := h.Reports.FindBySlug(r.Context(), slug)
	if err != nil {
		h.Logger.Error("report fetch failed", zap.String("slug", slug), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ReportViewResponse{
			Success: false,
			Message: "report lookup failed",
		})
		return
	}
	if report == nil {
		writeJSON(w, http.StatusNotFound, ReportViewResponse{
			Success: false,
			Message: "report not found",
		})
		return
	}
	if report.Expired(time.Now().UTC()) {
		writeJSON(w, http.StatusGone, ReportViewResponse{
			Success: false,
			Message: "report expired",
		})
		return
	}

	// View bookkeeping is best effort; the page renders regardless.
	if err := h.Reports.RecordView(r.Context(), report.ID); err != nil {
		h.Logger.Warn("view bookkeeping failed", zap.String("slug", slug), zap.Error(err))
	}
	middleware.RecordReportView()

	writeJSON(w, http.StatusOK, ReportViewResponse{
		Success: true,
		Report:  report,
	})
}
