package usecase

import (
	"context"

	"github.com/grovelane/miniaudit-api/internal/entity"
	"github.com/grovelane/miniaudit-api/internal/infra/queue"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) (string, error)
	// FindByID returns (nil, nil) when the lead does not exist.
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
	SetFields(ctx context.Context, id string, set map[string]any) error
	SetReportStatus(ctx context.Context, id string, status entity.ReportStatusInfo) error
	ClaimGeneration(ctx context.Context, id string) (bool, error)
	ReleaseClaim(ctx context.Context, id string) error
}

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) (string, error)
	FindByLead(ctx context.Context, leadID string) (*entity.Report, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Report, error)
	RecordView(ctx context.Context, id string) error
}

type ServiceCatalog interface {
	ListServices(ctx context.Context) ([]entity.Service, error)
}

// Recommendation is one structured entry from the provider's
// recommendation call. ServiceName is resolved to a catalog reference by
// the report builder.
type Recommendation struct {
	ServiceName        string   `json:"serviceName"`
	Priority           int      `json:"priority"`
	ProblemDescription string   `json:"problemDescription"`
	ImpactDescription  string   `json:"impactDescription"`
	Benefits           []string `json:"benefits"`
}

// ContextAnalysis is the provider's narrative read of the lead profile.
type ContextAnalysis struct {
	Overview  string `json:"overview"`
	Narrative string `json:"narrative"`
}

// AnalysisProvider is the generative-text collaborator. Both calls
// return structured JSON; implementations are expected to scrape the
// first JSON object out of surrounding prose before giving up.
type AnalysisProvider interface {
	RecommendServices(ctx context.Context, lead *entity.Lead, services []entity.Service) ([]Recommendation, error)
	AnalyzeContext(ctx context.Context, lead *entity.Lead) (*ContextAnalysis, error)
}

// EventPublisher pushes report lifecycle events onto the notification
// queue. Optional collaborator: a nil publisher means events are logged
// and dropped.
type EventPublisher interface {
	PublishReportEvent(ctx context.Context, payload queue.ReportEventPayload) error
}

// ReportBuilder produces exactly one report for a lead, or fails
// cleanly. Satisfied by BuildReportUseCase; tests swap in fakes.
type ReportBuilder interface {
	Execute(ctx context.Context, leadID string) (*BuildReportOutput, error)
}
