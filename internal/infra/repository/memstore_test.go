package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/grovelane/miniaudit-api/internal/contentstore"
)

// memStore is an in-memory contentstore.Store with the same observable
// semantics as the real backends: (nil, nil) misses, guard checks on
// PatchIfAbsent, field-path filters.
type memStore struct {
	mu   sync.Mutex
	seq  int
	docs map[string]*memDoc
}

type memDoc struct {
	docType string
	fields  map[string]any
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]*memDoc)}
}

func copyFields(fields map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *memStore) Create(ctx context.Context, docType string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, err := copyFields(fields)
	if err != nil {
		return "", err
	}
	s.seq++
	id := fmt.Sprintf("doc-%d", s.seq)
	s.docs[id] = &memDoc{docType: docType, fields: cp}
	return id, nil
}

func (s *memStore) Patch(ctx context.Context, id string, set map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s not found", id)
	}
	cp, err := copyFields(set)
	if err != nil {
		return err
	}
	for k, v := range cp {
		doc.fields[k] = v
	}
	return nil
}

func (s *memStore) PatchIfAbsent(ctx context.Context, id string, guards []string, set map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return false, fmt.Errorf("document %s not found", id)
	}
	for _, g := range guards {
		if v, present := doc.fields[g]; present && v != nil {
			return false, nil
		}
	}
	cp, err := copyFields(set)
	if err != nil {
		return false, err
	}
	for k, v := range cp {
		doc.fields[k] = v
	}
	return true, nil
}

func (s *memStore) Unset(ctx context.Context, id string, fields []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s not found", id)
	}
	for _, f := range fields {
		delete(doc.fields, f)
	}
	return nil
}

func (s *memStore) Inc(ctx context.Context, id string, field string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s not found", id)
	}
	current := 0.0
	if v, present := doc.fields[field]; present {
		if f, isFloat := v.(float64); isFloat {
			current = f
		}
	}
	doc.fields[field] = current + float64(delta)
	return nil
}

func (s *memStore) FetchOne(ctx context.Context, q contentstore.Query) (json.RawMessage, error) {
	docs, err := s.FetchMany(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (s *memStore) FetchMany(ctx context.Context, q contentstore.Query) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type match struct {
		id  string
		doc *memDoc
	}
	var matches []match
	for id, doc := range s.docs {
		if doc.docType != q.Type {
			continue
		}
		if !matchesFilters(id, doc.fields, q.Filters) {
			continue
		}
		matches = append(matches, match{id: id, doc: doc})
	}

	sort.Slice(matches, func(i, j int) bool {
		if q.OrderBy != "" {
			a := fmt.Sprint(fieldPath(matches[i].doc.fields, q.OrderBy))
			b := fmt.Sprint(fieldPath(matches[j].doc.fields, q.OrderBy))
			if a != b {
				return a < b
			}
		}
		return matches[i].id < matches[j].id
	})

	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}

	out := make([]json.RawMessage, 0, len(matches))
	for _, m := range matches {
		full := map[string]any{"_id": m.id, "_type": m.doc.docType}
		for k, v := range m.doc.fields {
			full[k] = v
		}
		raw, err := json.Marshal(full)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func matchesFilters(id string, fields map[string]any, filters map[string]any) bool {
	for path, want := range filters {
		if path == "_id" {
			if fmt.Sprint(want) != id {
				return false
			}
			continue
		}
		got := fieldPath(fields, path)
		if got == nil || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func fieldPath(fields map[string]any, path string) any {
	var current any = fields
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}
