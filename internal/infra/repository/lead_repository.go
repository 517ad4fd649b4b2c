package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grovelane/miniaudit-api/internal/contentstore"
	"github.com/grovelane/miniaudit-api/internal/entity"
)

type LeadRepository struct {
	store contentstore.Store
}

func NewLeadRepository(store contentstore.Store) *LeadRepository {
	return &LeadRepository{store: store}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) (string, error) {
	fields, err := docFields(lead)
	if err != nil {
		return "", err
	}
	id, err := r.store.Create(ctx, entity.DocTypeLead, fields)
	if err != nil {
		return "", fmt.Errorf("create lead: %w", err)
	}
	lead.ID = id
	return id, nil
}

// FindByID returns (nil, nil) when the lead does not exist.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	raw, err := r.store.FetchOne(ctx, contentstore.Query{
		Type:    entity.DocTypeLead,
		Filters: map[string]any{"_id": id},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch lead %s: %w", id, err)
	}
	if raw == nil {
		return nil, nil
	}
	var lead entity.Lead
	if err := decodeDoc(raw, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) SetFields(ctx context.Context, id string, set map[string]any) error {
	if err := r.store.Patch(ctx, id, set); err != nil {
		return fmt.Errorf("patch lead %s: %w", id, err)
	}
	return nil
}

// SetReportStatus writes the durable generation state machine record.
func (r *LeadRepository) SetReportStatus(ctx context.Context, id string, status entity.ReportStatusInfo) error {
	status.UpdatedAt = time.Now().UTC()
	return r.SetFields(ctx, id, map[string]any{"reportStatus": status})
}

// ClaimGeneration attempts to take the exclusive right to generate a
// report for this lead. The claim only lands when the lead has neither a
// report reference nor a prior claim, which closes the duplicate-submit
// race between two concurrent triggers.
func (r *LeadRepository) ClaimGeneration(ctx context.Context, id string) (bool, error) {
	token := uuid.New().String()
	ok, err := r.store.PatchIfAbsent(ctx, id,
		[]string{"report", "generationClaim"},
		map[string]any{"generationClaim": token},
	)
	if err != nil {
		return false, fmt.Errorf("claim lead %s: %w", id, err)
	}
	return ok, nil
}

// ReleaseClaim frees the generation claim so a manual retry can run.
func (r *LeadRepository) ReleaseClaim(ctx context.Context, id string) error {
	if err := r.store.Unset(ctx, id, []string{"generationClaim"}); err != nil {
		return fmt.Errorf("release claim on lead %s: %w", id, err)
	}
	return nil
}
