package repository

import (
	"context"
	"fmt"

	"github.com/grovelane/miniaudit-api/internal/contentstore"
	"github.com/grovelane/miniaudit-api/internal/entity"
)

type ServiceRepository struct {
	store contentstore.Store
}

func NewServiceRepository(store contentstore.Store) *ServiceRepository {
	return &ServiceRepository{store: store}
}

// ListServices fetches the full catalog. No filtering here: picking the
// relevant subset is the analysis provider's job.
func (r *ServiceRepository) ListServices(ctx context.Context) ([]entity.Service, error) {
	docs, err := r.store.FetchMany(ctx, contentstore.Query{
		Type:    entity.DocTypeService,
		OrderBy: "name",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch service catalog: %w", err)
	}

	services := make([]entity.Service, 0, len(docs))
	for _, raw := range docs {
		var svc entity.Service
		if err := decodeDoc(raw, &svc); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}
