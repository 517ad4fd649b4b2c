package sanity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grovelane/miniaudit-api/internal/contentstore"
)

func TestCompileGROQTypeOnly(t *testing.T) {
	groq, params := compileGROQ(contentstore.Query{Type: "lead"}, false)
	assert.Equal(t, `*[_type == "lead"]`, groq)
	assert.Empty(t, params)
}

func TestCompileGROQSingleWithFilter(t *testing.T) {
	groq, params := compileGROQ(contentstore.Query{
		Type:    "auditReport",
		Filters: map[string]any{"lead._ref": "lead-1"},
	}, true)
	assert.Equal(t, `*[_type == "auditReport" && lead._ref == $p0][0]`, groq)
	assert.Equal(t, []any{"lead-1"}, params)
}

func TestCompileGROQStableFilterOrder(t *testing.T) {
	q := contentstore.Query{
		Type: "lead",
		Filters: map[string]any{
			"reportGenerated": true,
			"companyName":     "Acme",
		},
	}
	for i := 0; i < 10; i++ {
		groq, params := compileGROQ(q, false)
		assert.Equal(t, `*[_type == "lead" && companyName == $p0 && reportGenerated == $p1]`, groq)
		assert.Equal(t, []any{"Acme", true}, params)
	}
}

func TestCompileGROQOrderAndLimit(t *testing.T) {
	groq, _ := compileGROQ(contentstore.Query{Type: "service", OrderBy: "name", Limit: 20}, false)
	assert.Equal(t, `*[_type == "service"] | order(name asc)[0...20]`, groq)
}

func TestClientCreate(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"id": "lead-abc"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "production", "sk-test")
	id, err := client.Create(context.Background(), "lead", map[string]any{"name": "Jane Doe"})

	assert.NoError(t, err)
	assert.Equal(t, "lead-abc", id)
	assert.Equal(t, "/data/mutate/production", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)

	mutations := gotBody["mutations"].([]any)
	create := mutations[0].(map[string]any)["create"].(map[string]any)
	assert.Equal(t, "lead", create["_type"])
	assert.Equal(t, "Jane Doe", create["name"])
}

func TestClientFetchOneMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": nil})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "production", "sk-test")
	raw, err := client.FetchOne(context.Background(), contentstore.Query{
		Type:    "lead",
		Filters: map[string]any{"_id": "ghost"},
	})

	assert.NoError(t, err)
	assert.Nil(t, raw)
}

func TestClientPatchIfAbsentGuardPresent(t *testing.T) {
	mutated := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{
				"_id":             "lead-1",
				"_rev":            "rev-1",
				"generationClaim": "someone-else",
			}})
			return
		}
		mutated = true
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "production", "sk-test")
	ok, err := client.PatchIfAbsent(context.Background(), "lead-1",
		[]string{"report", "generationClaim"},
		map[string]any{"generationClaim": "me"},
	)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mutated, "guarded patch must not reach the mutate endpoint")
}

func TestClientPatchIfAbsentRevisionConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{
				"_id":  "lead-1",
				"_rev": "rev-1",
			}})
			return
		}
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "production", "sk-test")
	ok, err := client.PatchIfAbsent(context.Background(), "lead-1",
		[]string{"report", "generationClaim"},
		map[string]any{"generationClaim": "me"},
	)

	// A lost race is a clean "no", not an error.
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestClientPatchIfAbsentWins(t *testing.T) {
	var patch map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{
				"_id":  "lead-1",
				"_rev": "rev-1",
			}})
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		patch = body["mutations"].([]any)[0].(map[string]any)["patch"].(map[string]any)
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "production", "sk-test")
	ok, err := client.PatchIfAbsent(context.Background(), "lead-1",
		[]string{"report", "generationClaim"},
		map[string]any{"generationClaim": "me"},
	)

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rev-1", patch["ifRevisionID"])
}

func TestClientAPIErrorSurfacesDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"description": "param $p0 referenced, but not provided"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "production", "sk-test")
	_, err := client.FetchOne(context.Background(), contentstore.Query{Type: "lead"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "param $p0 referenced")
}
