// Package database backs the content-store port with a Postgres JSONB
// documents table, for deployments that self-host instead of using the
// hosted CMS.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/grovelane/miniaudit-api/internal/contentstore"
)

type DocumentStore struct {
	DB *sql.DB
}

var _ contentstore.Store = (*DocumentStore)(nil)

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{DB: db}
}

// EnsureSchema creates the documents table when it does not exist yet.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			doc_type   TEXT NOT NULL,
			fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS documents_doc_type_idx ON documents (doc_type);
	`)
	if err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

func (s *DocumentStore) Create(ctx context.Context, docType string, fields map[string]any) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.New().String()
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO documents (id, doc_type, fields) VALUES ($1, $2, $3)`,
		id, docType, raw,
	)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (s *DocumentStore) Patch(ctx context.Context, id string, set map[string]any) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET fields = fields || $2::jsonb, updated_at = NOW() WHERE id = $1`,
		id, raw,
	)
	if err != nil {
		return fmt.Errorf("patch document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("patch document %s: no such document", id)
	}
	return nil
}

// PatchIfAbsent is a single guarded UPDATE, so the claim check and the
// write are atomic on the database side.
func (s *DocumentStore) PatchIfAbsent(ctx context.Context, id string, guards []string, set map[string]any) (bool, error) {
	raw, err := json.Marshal(set)
	if err != nil {
		return false, fmt.Errorf("encode patch: %w", err)
	}

	conds := []string{"id = $1"}
	for _, guard := range guards {
		conds = append(conds, fmt.Sprintf(
			"(fields->%s IS NULL OR fields->%s = 'null'::jsonb)",
			quoteLiteral(guard), quoteLiteral(guard),
		))
	}

	query := fmt.Sprintf(
		`UPDATE documents SET fields = fields || $2::jsonb, updated_at = NOW() WHERE %s`,
		strings.Join(conds, " AND "),
	)
	res, err := s.DB.ExecContext(ctx, query, id, raw)
	if err != nil {
		return false, fmt.Errorf("conditional patch: %w", err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		return true, nil
	}

	// Distinguish "guard already set" from "document missing".
	var exists bool
	err = s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check document existence: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("conditional patch on %s: no such document", id)
	}
	return false, nil
}

func (s *DocumentStore) Unset(ctx context.Context, id string, fields []string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE documents SET fields = fields - $2::text[], updated_at = NOW() WHERE id = $1`,
		id, pq.Array(fields),
	)
	if err != nil {
		return fmt.Errorf("unset fields: %w", err)
	}
	return nil
}

func (s *DocumentStore) Inc(ctx context.Context, id string, field string, delta int) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE documents
		SET fields = jsonb_set(fields, ARRAY[$2],
			to_jsonb(COALESCE((fields->>$2)::int, 0) + $3)),
			updated_at = NOW()
		WHERE id = $1`,
		id, field, delta,
	)
	if err != nil {
		return fmt.Errorf("increment field: %w", err)
	}
	return nil
}

func (s *DocumentStore) FetchOne(ctx context.Context, q contentstore.Query) (json.RawMessage, error) {
	q.Limit = 1
	docs, err := s.FetchMany(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (s *DocumentStore) FetchMany(ctx context.Context, q contentstore.Query) ([]json.RawMessage, error) {
	conds := []string{"doc_type = $1"}
	args := []any{q.Type}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, fmt.Sprintf("%v", q.Filters[k]))
		if k == "_id" {
			conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
			continue
		}
		path := strings.Split(k, ".")
		conds = append(conds, fmt.Sprintf("fields #>> %s = $%d", quotePath(path), len(args)))
	}

	query := fmt.Sprintf(
		`SELECT fields || jsonb_build_object('_id', id, '_type', doc_type)
		 FROM documents WHERE %s`,
		strings.Join(conds, " AND "),
	)
	if q.OrderBy != "" {
		query += fmt.Sprintf(" ORDER BY fields->%s", quoteLiteral(q.OrderBy))
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// quoteLiteral escapes a field name for inline use. Field names come
// from code, never from user input, but escape anyway.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quotePath(path []string) string {
	quoted := make([]string, len(path))
	for i, p := range path {
		quoted[i] = quoteLiteral(p)
	}
	return "ARRAY[" + strings.Join(quoted, ",") + "]"
}
