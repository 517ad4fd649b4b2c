package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grovelane/miniaudit-api/internal/entity"
	"github.com/grovelane/miniaudit-api/internal/infra/http/middleware"
	"github.com/grovelane/miniaudit-api/internal/infra/queue"
	"github.com/grovelane/miniaudit-api/internal/status"
)

const defaultMaxAttempts = 3

// GenerateReportUseCase runs the report builder in the background with
// bounded retry. Fire-and-forget: the HTTP handler returns before any
// work happens, every outcome is observable only via the lead's
// reportStatus field and the ephemeral status store.
type GenerateReportUseCase struct {
	Leads   LeadRepository
	Reports ReportRepository
	Builder ReportBuilder

	// Optional collaborators.
	Status *status.Store
	Events EventPublisher

	Logger         *zap.Logger
	MaxAttempts    int
	ReportBasePath string

	// Sleep is swapped out in tests to assert the backoff schedule
	// without waiting it out.
	Sleep func(time.Duration)
}

func NewGenerateReportUseCase(
	leads LeadRepository,
	reports ReportRepository,
	builder ReportBuilder,
	statusStore *status.Store,
	events EventPublisher,
	logger *zap.Logger,
) *GenerateReportUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateReportUseCase{
		Leads:       leads,
		Reports:     reports,
		Builder:     builder,
		Status:      statusStore,
		Events:      events,
		Logger:      logger,
		MaxAttempts: defaultMaxAttempts,
		Sleep:       time.Sleep,
	}
}

// Trigger starts generation in the background and returns the request id
// the client can poll with. Never blocks on the build.
func (uc *GenerateReportUseCase) Trigger(leadID string) string {
	requestID := uuid.New().String()
	if uc.Status != nil {
		uc.Status.Set(requestID, status.RequestStatus{
			Status:    status.StateProcessing,
			LeadID:    leadID,
			StartTime: time.Now().UTC(),
		})
	}

	// Detached from the request context: abandoning the page does not
	// cancel a generation already under way.
	go uc.Run(context.Background(), requestID, leadID)

	return requestID
}

// Run executes the full generation loop synchronously. Exported so
// tests can drive it without goroutine scheduling.
func (uc *GenerateReportUseCase) Run(ctx context.Context, requestID, leadID string) {
	uc.patchLeadStatus(ctx, leadID, entity.ReportStatusInfo{
		Status:  entity.ReportStatusProcessing,
		Message: "starting",
	})

	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		// The builder re-fetches the lead on every attempt, so a
		// transient repository outage here is left for the retry loop
		// to absorb instead of aborting with zero attempts.
		uc.Logger.Warn("lead fetch failed, deferring to build attempts",
			zap.String("leadId", leadID), zap.Error(err))
	} else {
		if lead == nil {
			uc.finishFailed(ctx, requestID, leadID, nil, 0, "lead not found")
			return
		}

		// Idempotency guard: a lead with a report reference is done.
		if lead.HasReport() {
			uc.patchLeadStatus(ctx, leadID, entity.ReportStatusInfo{
				Status:  entity.ReportStatusCompleted,
				Message: "report already exists",
			})
			uc.completeRequest(ctx, requestID, leadID)
			return
		}
	}

	// Claim guard closes the check-then-create race between concurrent
	// triggers for the same lead. A transport error here is not fatal:
	// better an unlikely duplicate than a lead with no report.
	claimed, err := uc.Leads.ClaimGeneration(ctx, leadID)
	if err != nil {
		uc.Logger.Warn("generation claim errored, proceeding unguarded",
			zap.String("leadId", leadID), zap.Error(err))
	} else if !claimed {
		uc.Logger.Info("generation already claimed, skipping",
			zap.String("leadId", leadID), zap.String("requestId", requestID))
		uc.supersedeRequest(ctx, requestID, leadID)
		return
	}

	maxAttempts := uc.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		uc.patchLeadStatus(ctx, leadID, entity.ReportStatusInfo{
			Status:   entity.ReportStatusProcessing,
			Message:  fmt.Sprintf("attempt %d/%d", attempt, maxAttempts),
			Attempts: attempt,
		})
		middleware.RecordGenerationAttempt()

		out, err := uc.Builder.Execute(ctx, leadID)
		if err == nil {
			uc.patchLeadStatus(ctx, leadID, entity.ReportStatusInfo{
				Status:   entity.ReportStatusCompleted,
				Message:  "report generated",
				Attempts: attempt,
			})
			uc.finishCompleted(ctx, requestID, leadID, lead, out)
			return
		}

		lastErr = err
		uc.Logger.Error("report build attempt failed",
			zap.String("leadId", leadID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		// A missing lead will not come back; skip the remaining attempts.
		if errors.Is(err, ErrNotFound) {
			break
		}

		if attempt < maxAttempts {
			uc.Sleep(backoffDelay(attempt))
		}
	}

	uc.releaseClaim(ctx, leadID)
	msg := fmt.Sprintf("report generation failed after %d attempts", maxAttempts)
	if errors.Is(lastErr, ErrNotFound) {
		msg = "lead not found"
	}
	uc.finishFailed(ctx, requestID, leadID, lead, maxAttempts, msg)
}

// backoffDelay is the sleep before attempt k+1: 1s doubled per attempt,
// capped at 10s.
func backoffDelay(attempt int) time.Duration {
	d := (1000 << attempt) * time.Millisecond
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

// patchLeadStatus writes the durable status record. A failed status
// patch must never take down the retry loop, so it only logs.
func (uc *GenerateReportUseCase) patchLeadStatus(ctx context.Context, leadID string, st entity.ReportStatusInfo) {
	if err := uc.Leads.SetReportStatus(ctx, leadID, st); err != nil {
		uc.Logger.Warn("report status patch failed",
			zap.String("leadId", leadID),
			zap.String("status", st.Status),
			zap.Error(err),
		)
	}
}

func (uc *GenerateReportUseCase) releaseClaim(ctx context.Context, leadID string) {
	if err := uc.Leads.ReleaseClaim(ctx, leadID); err != nil {
		uc.Logger.Warn("claim release failed", zap.String("leadId", leadID), zap.Error(err))
	}
}

// completeRequest marks the ephemeral record completed, resolving the
// report url from the store when possible.
func (uc *GenerateReportUseCase) completeRequest(ctx context.Context, requestID, leadID string) {
	if uc.Status == nil {
		return
	}
	url := ""
	if report, err := uc.Reports.FindByLead(ctx, leadID); err == nil && report != nil {
		url = uc.reportURL(report.Slug)
	}
	now := time.Now().UTC()
	uc.Status.Update(requestID, func(st *status.RequestStatus) {
		st.Status = status.StateCompleted
		st.CompletedAt = &now
		st.ReportURL = url
	})
}

// supersedeRequest closes out the ephemeral record of a trigger that
// lost the claim race. The record must reach a terminal state, otherwise
// it sits at processing for the process lifetime and its eviction timer
// never arms. The winning run reports through its own request id, so
// this one resolves to the report when it already exists and otherwise
// points the client at lead polling.
func (uc *GenerateReportUseCase) supersedeRequest(ctx context.Context, requestID, leadID string) {
	if uc.Status == nil {
		return
	}

	now := time.Now().UTC()
	if report, err := uc.Reports.FindByLead(ctx, leadID); err == nil && report != nil {
		uc.Status.Update(requestID, func(st *status.RequestStatus) {
			st.Status = status.StateCompleted
			st.CompletedAt = &now
			st.ReportURL = uc.reportURL(report.Slug)
		})
		return
	}

	uc.Status.Update(requestID, func(st *status.RequestStatus) {
		st.Status = status.StateFailed
		st.CompletedAt = &now
		st.Error = "another generation request is handling this lead"
	})
}

func (uc *GenerateReportUseCase) finishCompleted(ctx context.Context, requestID, leadID string, lead *entity.Lead, out *BuildReportOutput) {
	middleware.RecordReportGenerated("completed")

	if uc.Status != nil {
		now := time.Now().UTC()
		uc.Status.Update(requestID, func(st *status.RequestStatus) {
			st.Status = status.StateCompleted
			st.CompletedAt = &now
			st.ReportURL = out.ReportURL
		})
	}

	payload := queue.ReportEventPayload{
		Kind:      queue.EventReportReady,
		LeadID:    leadID,
		ReportURL: out.ReportURL,
	}
	if lead != nil {
		payload.LeadName = lead.Name
		payload.LeadEmail = lead.Email
		payload.Company = lead.Company
	}
	uc.publishEvent(ctx, payload)
}

func (uc *GenerateReportUseCase) finishFailed(ctx context.Context, requestID, leadID string, lead *entity.Lead, attempts int, msg string) {
	middleware.RecordReportGenerated("failed")

	uc.patchLeadStatus(ctx, leadID, entity.ReportStatusInfo{
		Status:   entity.ReportStatusFailed,
		Message:  msg,
		Attempts: attempts,
	})

	if uc.Status != nil {
		now := time.Now().UTC()
		uc.Status.Update(requestID, func(st *status.RequestStatus) {
			st.Status = status.StateFailed
			st.CompletedAt = &now
			st.Error = msg
		})
	}

	payload := queue.ReportEventPayload{
		Kind:     queue.EventReportFailed,
		LeadID:   leadID,
		Attempts: attempts,
		Reason:   msg,
	}
	if lead != nil {
		payload.LeadName = lead.Name
		payload.LeadEmail = lead.Email
		payload.Company = lead.Company
	}
	uc.publishEvent(ctx, payload)
}

func (uc *GenerateReportUseCase) publishEvent(ctx context.Context, payload queue.ReportEventPayload) {
	if uc.Events == nil {
		uc.Logger.Debug("no event publisher configured, dropping report event",
			zap.String("kind", payload.Kind), zap.String("leadId", payload.LeadID))
		return
	}
	if err := uc.Events.PublishReportEvent(ctx, payload); err != nil {
		uc.Logger.Error("report event publish failed",
			zap.String("kind", payload.Kind),
			zap.String("leadId", payload.LeadID),
			zap.Error(err),
		)
	}
}

func (uc *GenerateReportUseCase) reportURL(slug string) string {
	base := uc.ReportBasePath
	if base == "" {
		base = "/report/"
	}
	return base + slug
}
