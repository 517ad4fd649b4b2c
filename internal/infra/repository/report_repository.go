package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/grovelane/miniaudit-api/internal/contentstore"
	"github.com/grovelane/miniaudit-api/internal/entity"
)

type ReportRepository struct {
	store contentstore.Store
}

func NewReportRepository(store contentstore.Store) *ReportRepository {
	return &ReportRepository{store: store}
}

func (r *ReportRepository) Create(ctx context.Context, report *entity.Report) (string, error) {
	fields, err := docFields(report)
	if err != nil {
		return "", err
	}
	id, err := r.store.Create(ctx, entity.DocTypeReport, fields)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	report.ID = id
	return id, nil
}

// FindByLead returns the report referencing the given lead, or
// (nil, nil) when none exists. This is the repository-truth check the
// leadId polling path relies on.
func (r *ReportRepository) FindByLead(ctx context.Context, leadID string) (*entity.Report, error) {
	raw, err := r.store.FetchOne(ctx, contentstore.Query{
		Type:    entity.DocTypeReport,
		Filters: map[string]any{"lead._ref": leadID},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch report for lead %s: %w", leadID, err)
	}
	if raw == nil {
		return nil, nil
	}
	var report entity.Report
	if err := decodeDoc(raw, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) FindBySlug(ctx context.Context, slug string) (*entity.Report, error) {
	raw, err := r.store.FetchOne(ctx, contentstore.Query{
		Type:    entity.DocTypeReport,
		Filters: map[string]any{"reportId": slug},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch report %s: %w", slug, err)
	}
	if raw == nil {
		return nil, nil
	}
	var report entity.Report
	if err := decodeDoc(raw, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// RecordView bumps the view counter and the last-viewed timestamp.
// Best effort: the report page must render even when this write fails.
func (r *ReportRepository) RecordView(ctx context.Context, id string) error {
	if err := r.store.Inc(ctx, id, "views", 1); err != nil {
		return fmt.Errorf("increment views on report %s: %w", id, err)
	}
	if err := r.store.Patch(ctx, id, map[string]any{"lastViewedAt": time.Now().UTC()}); err != nil {
		return fmt.Errorf("touch lastViewedAt on report %s: %w", id, err)
	}
	return nil
}
