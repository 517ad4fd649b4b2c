package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grovelane/miniaudit-api/internal/entity"
)

func newTestReport(leadID string) *entity.Report {
	now := time.Now().UTC()
	return &entity.Report{
		Slug:    "aud-1111-2222",
		Title:   "Mini-Audit for Acme",
		Summary: "overview",
		RecommendedServices: []entity.RecommendedService{
			{Priority: 1, Service: entity.NewReference("svc-seo")},
		},
		Lead:      entity.NewReference(leadID),
		CreatedAt: now,
		ExpiresAt: now.Add(entity.ReportTTL),
	}
}

func TestReportRepositoryCreateAndFindByLead(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(newMemStore())

	id, err := repo.Create(ctx, newTestReport("lead-1"))
	assert.NoError(t, err)

	report, err := repo.FindByLead(ctx, "lead-1")
	assert.NoError(t, err)
	assert.Equal(t, id, report.ID)
	assert.Equal(t, "aud-1111-2222", report.Slug)
	assert.Equal(t, "Mini-Audit for Acme", report.Title)
	assert.Len(t, report.RecommendedServices, 1)
	assert.Equal(t, "svc-seo", report.RecommendedServices[0].Service.Ref)
}

func TestReportRepositoryFindByLeadMiss(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(newMemStore())

	report, err := repo.FindByLead(ctx, "lead-without-report")
	assert.NoError(t, err)
	assert.Nil(t, report)
}

func TestReportRepositoryFindBySlug(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(newMemStore())
	_, _ = repo.Create(ctx, newTestReport("lead-1"))

	report, err := repo.FindBySlug(ctx, "aud-1111-2222")
	assert.NoError(t, err)
	assert.NotNil(t, report)

	report, err = repo.FindBySlug(ctx, "aud-dead-beef")
	assert.NoError(t, err)
	assert.Nil(t, report)
}

func TestReportRepositoryRecordView(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(newMemStore())
	id, _ := repo.Create(ctx, newTestReport("lead-1"))

	assert.NoError(t, repo.RecordView(ctx, id))
	assert.NoError(t, repo.RecordView(ctx, id))

	report, _ := repo.FindBySlug(ctx, "aud-1111-2222")
	assert.Equal(t, 2, report.Views)
	assert.NotNil(t, report.LastViewedAt)
}

func TestServiceRepositoryListOrderedByName(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	for _, name := range []string{"Paid Ads Management", "CRM Automation", "SEO Audit"} {
		_, err := store.Create(ctx, entity.DocTypeService, map[string]any{
			"name":     name,
			"summary":  "s",
			"category": "marketing",
		})
		assert.NoError(t, err)
	}

	services, err := NewServiceRepository(store).ListServices(ctx)
	assert.NoError(t, err)
	assert.Len(t, services, 3)
	assert.Equal(t, "CRM Automation", services[0].Name)
	assert.Equal(t, "Paid Ads Management", services[1].Name)
	assert.Equal(t, "SEO Audit", services[2].Name)
	assert.NotEmpty(t, services[0].ID)
}
