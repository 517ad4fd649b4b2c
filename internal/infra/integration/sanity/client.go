// Package sanity implements the content-store port against a hosted
// Sanity dataset: GROQ on the query endpoint, mutations on the mutate
// endpoint.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/grovelane/miniaudit-api/internal/contentstore"
)

type Client struct {
	baseURL string
	dataset string
	token   string
	http    *http.Client
}

var _ contentstore.Store = (*Client)(nil)

// NewClient points at a project's API, e.g.
// https://<projectId>.api.sanity.io/v2024-06-01.
func NewClient(baseURL, dataset, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		dataset: dataset,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Create(ctx context.Context, docType string, fields map[string]any) (string, error) {
	doc := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["_type"] = docType

	resp, err := c.mutate(ctx, []map[string]any{{"create": doc}}, "")
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("sanity create returned no document id")
	}
	return resp.Results[0].ID, nil
}

func (c *Client) Patch(ctx context.Context, id string, set map[string]any) error {
	_, err := c.mutate(ctx, []map[string]any{
		{"patch": map[string]any{"id": id, "set": set}},
	}, "")
	return err
}

// PatchIfAbsent reads the document's revision, verifies the guard
// fields are absent, then patches conditioned on that same revision. A
// concurrent writer bumps the revision and the mutate call comes back
// 409, which we report as a lost claim rather than an error.
func (c *Client) PatchIfAbsent(ctx context.Context, id string, guards []string, set map[string]any) (bool, error) {
	raw, err := c.query(ctx, `*[_id == $p0][0]`, []any{id})
	if err != nil {
		return false, err
	}
	if raw == nil || string(raw) == "null" {
		return false, fmt.Errorf("sanity document %s not found", id)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("decode sanity document: %w", err)
	}
	for _, guard := range guards {
		if v, ok := doc[guard]; ok && v != nil {
			return false, nil
		}
	}

	rev, _ := doc["_rev"].(string)
	_, err = c.mutate(ctx, []map[string]any{
		{"patch": map[string]any{"id": id, "ifRevisionID": rev, "set": set}},
	}, "revision")
	if err == errRevisionMismatch {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) Unset(ctx context.Context, id string, fields []string) error {
	_, err := c.mutate(ctx, []map[string]any{
		{"patch": map[string]any{"id": id, "unset": fields}},
	}, "")
	return err
}

func (c *Client) Inc(ctx context.Context, id string, field string, delta int) error {
	_, err := c.mutate(ctx, []map[string]any{
		{"patch": map[string]any{
			"id":           id,
			"setIfMissing": map[string]any{field: 0},
			"inc":          map[string]any{field: delta},
		}},
	}, "")
	return err
}

func (c *Client) FetchOne(ctx context.Context, q contentstore.Query) (json.RawMessage, error) {
	groq, params := compileGROQ(q, true)
	raw, err := c.query(ctx, groq, params)
	if err != nil {
		return nil, err
	}
	if raw == nil || string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

func (c *Client) FetchMany(ctx context.Context, q contentstore.Query) ([]json.RawMessage, error) {
	groq, params := compileGROQ(q, false)
	raw, err := c.query(ctx, groq, params)
	if err != nil {
		return nil, err
	}
	if raw == nil || string(raw) == "null" {
		return nil, nil
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode sanity result list: %w", err)
	}
	return docs, nil
}

// compileGROQ turns the generic query descriptor into a GROQ filter with
// positional parameters. Filter keys are sorted so the generated query
// is stable for a given descriptor.
func compileGROQ(q contentstore.Query, single bool) (string, []any) {
	conds := []string{fmt.Sprintf("_type == %q", q.Type)}
	params := []any{}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		conds = append(conds, fmt.Sprintf("%s == $p%d", k, len(params)))
		params = append(params, q.Filters[k])
	}

	groq := "*[" + strings.Join(conds, " && ") + "]"
	if q.OrderBy != "" {
		groq += fmt.Sprintf(" | order(%s asc)", q.OrderBy)
	}
	if single {
		groq += "[0]"
	} else if q.Limit > 0 {
		groq += fmt.Sprintf("[0...%d]", q.Limit)
	}
	return groq, params
}

func (c *Client) query(ctx context.Context, groq string, params []any) (json.RawMessage, error) {
	qs := url.Values{}
	qs.Set("query", groq)
	for i, p := range params {
		enc, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode query param: %w", err)
		}
		qs.Set(fmt.Sprintf("$p%d", i), string(enc))
	}

	reqURL := fmt.Sprintf("%s/data/query/%s?%s", c.baseURL, c.dataset, qs.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sanity query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError("query", resp)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sanity query response: %w", err)
	}
	return out.Result, nil
}

var errRevisionMismatch = fmt.Errorf("sanity revision mismatch")

func (c *Client) mutate(ctx context.Context, mutations []map[string]any, mode string) (*mutateResponse, error) {
	body, err := json.Marshal(mutateRequest{Mutations: mutations})
	if err != nil {
		return nil, fmt.Errorf("encode sanity mutations: %w", err)
	}

	reqURL := fmt.Sprintf("%s/data/mutate/%s?returnIds=true", c.baseURL, c.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sanity mutate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict && mode == "revision" {
		io.Copy(io.Discard, resp.Body)
		return nil, errRevisionMismatch
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError("mutate", resp)
	}

	var out mutateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sanity mutate response: %w", err)
	}
	return &out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "MiniAuditAPI/1.0")
}

func (c *Client) apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Description != "" {
		return fmt.Errorf("sanity %s rejected (status %d): %s", op, resp.StatusCode, apiErr.Error.Description)
	}
	return fmt.Errorf("sanity %s rejected (status %d)", op, resp.StatusCode)
}
