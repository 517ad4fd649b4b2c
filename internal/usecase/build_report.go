package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/grovelane/miniaudit-api/internal/entity"
)

const fallbackOverview = "We reviewed your answers and put together a set of " +
	"recommendations tailored to your current situation."

type BuildReportOutput struct {
	ReportID   string `json:"reportId"`
	ReportSlug string `json:"reportSlug"`
	ReportURL  string `json:"reportUrl"`
}

// BuildReportUseCase assembles and persists one report for one lead.
// Not transactional across its steps: a failure between the report
// create and the lead patch can leave an orphaned report document, which
// the retrying driver tolerates via the claim guard.
type BuildReportUseCase struct {
	Leads    LeadRepository
	Services ServiceCatalog
	Reports  ReportRepository
	Provider AnalysisProvider

	// FallbackServiceID is substituted when the provider names a service
	// that is not in the catalog. A recommendation slot is never dropped.
	FallbackServiceID string
	ReportBasePath    string
	Logger            *zap.Logger
}

func NewBuildReportUseCase(
	leads LeadRepository,
	services ServiceCatalog,
	reports ReportRepository,
	provider AnalysisProvider,
	fallbackServiceID string,
	reportBasePath string,
	logger *zap.Logger,
) *BuildReportUseCase {
	if reportBasePath == "" {
		reportBasePath = "/report/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildReportUseCase{
		Leads:             leads,
		Services:          services,
		Reports:           reports,
		Provider:          provider,
		FallbackServiceID: fallbackServiceID,
		ReportBasePath:    reportBasePath,
		Logger:            logger,
	}
}

func (uc *BuildReportUseCase) Execute(ctx context.Context, leadID string) (*BuildReportOutput, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, fmt.Errorf("lead %s: %w", leadID, ErrNotFound)
	}

	services, err := uc.Services.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	// Recommendations are mandatory; a provider failure here aborts the
	// build and lands in the driver's retry loop.
	recs, err := uc.Provider.RecommendServices(ctx, lead, services)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, &ProviderError{Call: "recommendations", Err: errors.New("empty recommendation list")}
	}

	analysis := uc.analyzeContext(ctx, lead)

	byName := make(map[string]string, len(services))
	for _, svc := range services {
		byName[svc.Name] = svc.ID
	}

	recommended := make([]entity.RecommendedService, 0, len(recs))
	for _, rec := range recs {
		serviceID, ok := byName[rec.ServiceName]
		if !ok {
			uc.Logger.Warn("recommended service not in catalog, using fallback",
				zap.String("leadId", leadID),
				zap.String("serviceName", rec.ServiceName),
			)
			serviceID = uc.FallbackServiceID
		}
		recommended = append(recommended, entity.RecommendedService{
			Priority:                 rec.Priority,
			CustomProblemDescription: rec.ProblemDescription,
			CustomImpactDescription:  rec.ImpactDescription,
			CustomBenefits:           rec.Benefits,
			Service:                  entity.NewReference(serviceID),
		})
	}

	slug, err := entity.NewReportSlug()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &entity.Report{
		Slug:                slug,
		Title:               fmt.Sprintf("Mini-Audit for %s", lead.Company),
		Summary:             analysis.Overview,
		ContextAnalysis:     entity.TextBlocks(analysis.Narrative),
		RecommendedServices: recommended,
		Lead:                entity.NewReference(leadID),
		CreatedAt:           now,
		ExpiresAt:           now.Add(entity.ReportTTL),
	}

	reportID, err := uc.Reports.Create(ctx, report)
	if err != nil {
		return nil, &RepositoryWriteError{Op: "create report", Err: err}
	}

	if err := uc.Leads.SetFields(ctx, leadID, map[string]any{
		"status":          entity.StatusQualified,
		"reportGenerated": true,
		"report":          entity.NewReference(reportID),
	}); err != nil {
		return nil, &RepositoryWriteError{Op: "patch lead", Err: err}
	}

	return &BuildReportOutput{
		ReportID:   reportID,
		ReportSlug: slug,
		ReportURL:  uc.ReportBasePath + slug,
	}, nil
}

// analyzeContext degrades instead of failing: recommendations carry the
// report, the narrative is nice-to-have.
func (uc *BuildReportUseCase) analyzeContext(ctx context.Context, lead *entity.Lead) *ContextAnalysis {
	analysis, err := uc.Provider.AnalyzeContext(ctx, lead)
	if err == nil && analysis != nil {
		return analysis
	}

	uc.Logger.Warn("context analysis degraded",
		zap.String("leadId", lead.ID),
		zap.Error(err),
	)

	narrative := fallbackOverview
	var pe *ProviderError
	if errors.As(err, &pe) && pe.RawText != "" {
		narrative = pe.RawText
	}
	return &ContextAnalysis{Overview: fallbackOverview, Narrative: narrative}
}
