package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/grovelane/miniaudit-api/internal/entity"
	"github.com/grovelane/miniaudit-api/internal/infra/queue"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) SetFields(ctx context.Context, id string, set map[string]any) error {
	args := m.Called(ctx, id, set)
	return args.Error(0)
}

func (m *MockLeadRepository) SetReportStatus(ctx context.Context, id string, status entity.ReportStatusInfo) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockLeadRepository) ClaimGeneration(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) ReleaseClaim(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *entity.Report) (string, error) {
	args := m.Called(ctx, report)
	return args.String(0), args.Error(1)
}

func (m *MockReportRepository) FindByLead(ctx context.Context, leadID string) (*entity.Report, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Report), args.Error(1)
}

func (m *MockReportRepository) FindBySlug(ctx context.Context, slug string) (*entity.Report, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Report), args.Error(1)
}

func (m *MockReportRepository) RecordView(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockServiceCatalog struct {
	mock.Mock
}

func (m *MockServiceCatalog) ListServices(ctx context.Context) ([]entity.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Service), args.Error(1)
}

type MockAnalysisProvider struct {
	mock.Mock
}

func (m *MockAnalysisProvider) RecommendServices(ctx context.Context, lead *entity.Lead, services []entity.Service) ([]Recommendation, error) {
	args := m.Called(ctx, lead, services)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Recommendation), args.Error(1)
}

func (m *MockAnalysisProvider) AnalyzeContext(ctx context.Context, lead *entity.Lead) (*ContextAnalysis, error) {
	args := m.Called(ctx, lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ContextAnalysis), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishReportEvent(ctx context.Context, payload queue.ReportEventPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type MockReportBuilder struct {
	mock.Mock
}

func (m *MockReportBuilder) Execute(ctx context.Context, leadID string) (*BuildReportOutput, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BuildReportOutput), args.Error(1)
}
