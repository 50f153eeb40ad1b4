package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qakit/internal/compress"
	"qakit/internal/core"
	"qakit/internal/flows"
	"qakit/internal/mockdata"
	"qakit/internal/repository"
	"qakit/internal/testgen"
	"qakit/pkg/schema"
)

const signupRule = `Regra: cadastro de usuario via API.
Campos obrigatorios: nome, email, senha.
A senha deve ter no minimo 8 e no maximo 20 caracteres.
O email deve ser unico. Retornar 201 em sucesso e 400 em erro.`

func newTestRoutes(t *testing.T, persist bool) http.Handler {
	t.Helper()
	var repo *repository.Repository
	if persist {
		repo = repository.NewRepository(filepath.Join(t.TempDir(), ".qakit"), repository.WithOwner("server"))
	}
	orch := core.NewOrchestrator(core.NewLocalGenerator(testgen.NewDefault()), repo, nil)
	cache, err := NewSuiteCache(8)
	require.NoError(t, err)

	h := NewHandler(Options{
		Orchestrator: orch,
		Cache:        cache,
		Persist:      persist,
		Mock:         mockdata.NewSeeded(1),

		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return h.Routes()
}

func do(t *testing.T, routes http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func analyze(t *testing.T, routes http.Handler, body map[string]any) *schema.Suite {
	t.Helper()
	rec := do(t, routes, http.MethodPost, "/api/v1/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	suite := decode[schema.Suite](t, rec)
	return &suite
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRoutes(t, false), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestAnalyze(t *testing.T) {
	routes := newTestRoutes(t, false)

	rec := do(t, routes, http.MethodPost, "/api/v1/analyze", map[string]any{
		"rule":   signupRule,
		"target": "backend",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rec.Body.String(), "<script>")
	assert.NotContains(t, rec.Body.String(), `\u003c`)

	suite := decode[schema.Suite](t, rec)
	assert.Equal(t, schema.SurfaceBackend, suite.Target)
	assert.Len(t, suite.Cases, 12)
	assert.Equal(t, []string{"nome", "email", "senha"}, suite.Signals.Required)
}

func TestAnalyzeOutOfScope(t *testing.T) {
	rec := do(t, newTestRoutes(t, false), http.MethodPost, "/api/v1/analyze", map[string]any{
		"rule": "bom dia, tudo bem?",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["out_of_scope"])
	assert.NotEmpty(t, body["message"])
}

func TestAnalyzeValidation(t *testing.T) {
	routes := newTestRoutes(t, false)

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"invalid json", `{"rule":`, "body"},
		{"empty rule", map[string]any{"rule": " "}, "rule"},
		{"unknown category", map[string]any{"rule": signupRule, "categories": "smoke"}, "categories"},
		{"unknown target", map[string]any{"rule": signupRule, "target": "mobile"}, "target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, routes, http.MethodPost, "/api/v1/analyze", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decode[map[string]any](t, rec)["field"])
		})
	}
}

func TestSuiteFromCache(t *testing.T) {
	routes := newTestRoutes(t, false)
	suite := analyze(t, routes, map[string]any{"rule": signupRule, "categories": "positive"})

	rec := do(t, routes, http.MethodGet, "/api/v1/suites/"+suite.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, suite.ID, decode[schema.Suite](t, rec).ID)

	rec = do(t, routes, http.MethodGet, "/api/v1/suites/"+suite.ID+"?format=yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "id: "+suite.ID)

	rec = do(t, routes, http.MethodGet, "/api/v1/suites/"+suite.ID+"?format=gherkin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Feature: cadastro de usuario via API."))

	rec = do(t, routes, http.MethodGet, "/api/v1/suites/"+suite.ID+"?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, routes, http.MethodGet, "/api/v1/suites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]schema.Suite](t, rec), 1)

	rec = do(t, routes, http.MethodDelete, "/api/v1/suites/"+suite.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, routes, http.MethodGet, "/api/v1/suites/"+suite.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, routes, http.MethodDelete, "/api/v1/suites/"+suite.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuitePersisted(t *testing.T) {
	routes := newTestRoutes(t, true)
	saved := analyze(t, routes, map[string]any{"rule": signupRule})
	unsaved := analyze(t, routes, map[string]any{"rule": signupRule, "save": false})

	rec := do(t, routes, http.MethodGet, "/api/v1/suites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]schema.Suite](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, saved.ID, listed[0].ID)

	rec = do(t, routes, http.MethodDelete, "/api/v1/suites/"+unsaved.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, routes, http.MethodDelete, "/api/v1/suites/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, routes, http.MethodGet, "/api/v1/suites/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, routes, http.MethodGet, "/api/v1/suites/SUITE-bad.id", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGherkin(t *testing.T) {
	routes := newTestRoutes(t, false)

	rec := do(t, routes, http.MethodPost, "/api/v1/gherkin", map[string]any{"cases": []any{}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	suite := analyze(t, routes, map[string]any{"rule": signupRule, "target": "frontend"})

	rec = do(t, routes, http.MethodPost, "/api/v1/gherkin", map[string]any{
		"cases":          suite.Cases,
		"feature_source": "Regra: Cadastro",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Feature: Cadastro\n"))

	rec = do(t, routes, http.MethodPost, "/api/v1/gherkin", map[string]any{"suite_id": suite.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scenario: TC-001 - ")

	rec = do(t, routes, http.MethodPost, "/api/v1/gherkin", map[string]any{"suite_id": "SUITE-missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDigest(t *testing.T) {
	routes := newTestRoutes(t, false)

	rec := do(t, routes, http.MethodPost, "/api/v1/digest", map[string]any{"algorithm": "sha256", "text": "abc"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "hash", body["mode"])
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", body["value"])

	rec = do(t, routes, http.MethodPost, "/api/v1/digest", map[string]any{
		"algorithm": "SHA-256",
		"text":      "what do ya want for nothing?",
		"secret":    "Jefe",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[map[string]any](t, rec)
	assert.Equal(t, "hmac", body["mode"])
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", body["value"])

	rec = do(t, routes, http.MethodPost, "/api/v1/digest", map[string]any{"algorithm": "md5", "text": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookSign(t *testing.T) {
	var received []byte
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	routes := newTestRoutes(t, false)
	rec := do(t, routes, http.MethodPost, "/api/v1/webhooks/sign", map[string]any{
		"provider":  "github",
		"endpoint":  target.URL,
		"secret":    "webhook-secret",
		"timestamp": 1735689600,
		"payload":   map[string]any{"id": "evt_1", "amount": 10},
		"deliver":   true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.Equal(t, `{"amount":10,"id":"evt_1"}`, body["compact_payload"])
	assert.Equal(t, "GitHub-like", body["summary"].(map[string]any)["provider_label"])
	assert.Equal(t, float64(200), body["delivery"].(map[string]any)["status"])
	assert.Equal(t, `{"amount":10,"id":"evt_1"}`, string(received))

	rec = do(t, routes, http.MethodPost, "/api/v1/webhooks/sign", map[string]any{
		"endpoint": "not a url",
		"secret":   "s",
		"payload":  map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayloads(t *testing.T) {
	routes := newTestRoutes(t, false)

	rec := do(t, routes, http.MethodGet, "/api/v1/payloads?type=xss", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(20), body["count"])
	assert.Contains(t, rec.Body.String(), "<script>alert('xss')</script>")

	rec = do(t, routes, http.MethodGet, "/api/v1/payloads", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(40), decode[map[string]any](t, rec)["count"])

	rec = do(t, routes, http.MethodGet, "/api/v1/payloads?type=ldap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMock(t *testing.T) {
	routes := newTestRoutes(t, false)

	rec := do(t, routes, http.MethodPost, "/api/v1/mock", `{"email":"","keep":"x","n":"{{number:3:3}}"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Contains(t, body["email"], "@")
	assert.Equal(t, "x", body["keep"])
	assert.Equal(t, float64(3), body["n"])

	rec = do(t, routes, http.MethodPost, "/api/v1/mock?overwrite=true", `{"status":"custom"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "custom", decode[map[string]any](t, rec)["status"])

	rec = do(t, routes, http.MethodPost, "/api/v1/mock", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJSONTool(t *testing.T) {
	routes := newTestRoutes(t, false)

	rec := do(t, routes, http.MethodPost, "/api/v1/json", `{"a": [1, 2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ]\n}", rec.Body.String())

	rec = do(t, routes, http.MethodPost, "/api/v1/json?op=minify", "{\n \"a\" : 1 }")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"a":1}`, rec.Body.String())

	rec = do(t, routes, http.MethodPost, "/api/v1/json?op=yaml", `{"a":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a: 1\n", rec.Body.String())

	rec = do(t, routes, http.MethodPost, "/api/v1/json?op=xml", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, routes, http.MethodPost, "/api/v1/json", `{"a":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompressEndpoint(t *testing.T) {
	routes := newTestRoutes(t, false)
	original := strings.Repeat("log de evidencia\n", 200)

	for _, format := range []string{"gzip", "lz4"} {
		t.Run(format, func(t *testing.T) {
			rec := do(t, routes, http.MethodPost, "/api/v1/compress?format="+format+"&name=run1", original)
			require.Equal(t, http.StatusOK, rec.Code)
			f, err := compress.ParseFormat(format)
			require.NoError(t, err)
			assert.Equal(t, f.ContentType(), rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "run1"+f.Extension())
			assert.NotEmpty(t, rec.Header().Get("X-Compression-Ratio"))
			packed := rec.Body.Bytes()
			assert.Less(t, len(packed), len(original))

			rec = do(t, routes, http.MethodPost, "/api/v1/compress?format="+format+"&mode=decompress", packed)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, original, rec.Body.String())
		})
	}

	rec := do(t, routes, http.MethodPost, "/api/v1/compress?format=zip", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	routes := newTestRoutes(t, false)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/webhooks/sign", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("http://localhost:5173")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight("https://evil.example")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, routes, http.MethodGet, "/healthz", nil)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := CORS([]string{"*"}, next)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestConcurrentAnalyzePersisted(t *testing.T) {
	routes := newTestRoutes(t, true)
	const n = 8

	codes := make(chan int, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, _ := json.Marshal(map[string]any{"rule": signupRule})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(data))
			rec := httptest.NewRecorder()
			routes.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	rec := do(t, routes, http.MethodGet, "/api/v1/suites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]schema.Suite](t, rec), n)
}

func TestConcurrentMock(t *testing.T) {
	routes := newTestRoutes(t, false)
	const n = 8

	codes := make(chan int, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/mock", strings.NewReader(`{"name":"","email":"","id":0,"tags":[]}`))
			rec := httptest.NewRecorder()
			routes.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
}

func TestMockNumberOverflow(t *testing.T) {
	routes := newTestRoutes(t, false)

	rec := do(t, routes, http.MethodPost, "/api/v1/mock", `{"n":"{{number:-9223372036854775808:9223372036854775807}}"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mock-number", decode[map[string]any](t, rec)["n"])
}

func TestDecompressLimit(t *testing.T) {
	routes := newTestRoutes(t, false)

	bomb, err := compress.Bytes(compress.Gzip, make([]byte, maxDecompressedBytes+1))
	require.NoError(t, err)
	require.Less(t, len(bomb), maxBodyBytes)

	rec := do(t, routes, http.MethodPost, "/api/v1/compress?format=gzip&mode=decompress", bomb)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, decode[map[string]any](t, rec)["error"], "exceeds limit")
}

func TestFlowSuitesReachCache(t *testing.T) {
	repo := repository.NewRepository(filepath.Join(t.TempDir(), ".qakit"), repository.WithOwner("server"))
	orch := core.NewOrchestrator(core.NewLocalGenerator(testgen.NewDefault()), repo, nil)
	cache, err := NewSuiteCache(8)
	require.NoError(t, err)

	registered := flows.Register(genkit.Init(context.Background()), orch, flows.Options{
		Persist:   false,
		OnAnalyze: cache.Add,
	})
	routes := NewHandler(Options{
		Orchestrator: orch,
		Cache:        cache,
		Persist:      false,
		Flows:        registered,
	}).Routes()

	body := map[string]any{"data": map[string]any{"rule": signupRule, "save": true}}
	rec := do(t, routes, http.MethodPost, "/flows/"+flows.AnalyzeFlowName, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Result schema.Suite `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = do(t, routes, http.MethodGet, "/api/v1/suites/"+resp.Result.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp.Result.ID, decode[schema.Suite](t, rec).ID)

	_, err = repo.ReadSuite(resp.Result.ID)
	assert.ErrorIs(t, err, repository.ErrSuiteNotFound)
}

func TestSuiteCache(t *testing.T) {
	cache, err := NewSuiteCache(2)
	require.NoError(t, err)

	for _, id := range []string{"SUITE-a", "SUITE-b", "SUITE-c"} {
		cache.Add(&schema.Suite{ID: id})
	}
	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get("SUITE-a")
	assert.False(t, ok)

	ids := []string{}
	for _, s := range cache.List() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"SUITE-b", "SUITE-c"}, ids)

	_, err = NewSuiteCache(0)
	assert.Error(t, err)
}
