// Package contentstore defines the document-store port the workflow
// consumes. Leads, reports and the service catalog live in a hosted
// content repository; this package only describes the operations the
// workflow needs, implementations live under internal/infra.
package contentstore

import (
	"context"
	"encoding/json"
)

// Query describes a fetch against the store. Filters are field-path
// equality checks ("lead._ref" matches a reference field's target id).
type Query struct {
	Type    string
	Filters map[string]any
	OrderBy string
	Limit   int
}

// Store is the consumed document-store contract.
//
// FetchOne returns (nil, nil) when no document matches; callers must
// treat that as "not found", never as an error. Patch calls are atomic
// per call: either every field lands or none does.
type Store interface {
	// Create inserts a new document of the given type and returns the
	// assigned id.
	Create(ctx context.Context, docType string, fields map[string]any) (string, error)

	// Patch merges the given fields into an existing document.
	Patch(ctx context.Context, id string, set map[string]any) error

	// PatchIfAbsent applies set only when every guard field is currently
	// absent (or null) on the document, and reports whether the write
	// took effect. This is the compare-and-swap primitive the generation
	// claim rides on.
	PatchIfAbsent(ctx context.Context, id string, guards []string, set map[string]any) (bool, error)

	// Unset removes fields from a document.
	Unset(ctx context.Context, id string, fields []string) error

	// Inc atomically adds delta to a numeric field.
	Inc(ctx context.Context, id string, field string, delta int) error

	FetchOne(ctx context.Context, q Query) (json.RawMessage, error)
	FetchMany(ctx context.Context, q Query) ([]json.RawMessage, error)
}
