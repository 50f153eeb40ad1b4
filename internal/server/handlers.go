package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"qakit/internal/compress"
	"qakit/internal/core"
	"qakit/internal/digest"
	"qakit/internal/flows"
	"qakit/internal/jsonutil"
	"qakit/internal/mockdata"
	"qakit/internal/payloads"
	"qakit/internal/repository"
	"qakit/internal/webhook"
	"qakit/pkg/schema"
)

// Options wires a Handler.
type Options struct {
	Orchestrator   *core.Orchestrator
	Cache          *SuiteCache
	Logger         core.Logger
	Persist        bool // Save analyzed suites unless the request opts out
	WebhookTimeout time.Duration
	Mock           *mockdata.Generator
	Flows          *flows.Flows // Optional
	AllowedOrigins []string     // Browser origins admitted by CORS
}

// Handler serves the REST API.
type Handler struct {
	orch    *core.Orchestrator
	cache   *SuiteCache
	logger  core.Logger
	persist bool
	client  *http.Client
	mock    *mockdata.Generator
	flows   *flows.Flows

	allowedOrigins []string
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger()
	}
	timeout := opts.WebhookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	mock := opts.Mock
	if mock == nil {
		mock = mockdata.New(nil)
	}
	return &Handler{
		orch:    opts.Orchestrator,
		cache:   opts.Cache,
		logger:  logger,
		persist: opts.Persist,
		client:  &http.Client{Timeout: timeout},
		mock:    mock,
		flows:   opts.Flows,

		allowedOrigins: opts.AllowedOrigins,
	}
}

type analyzeRequest struct {
	Rule       string `json:"rule"`
	Categories string `json:"categories"`
	Target     string `json:"target"`
	Save       *bool  `json:"save,omitempty"`
}

type outOfScopeBody struct {
	OutOfScope bool   `json:"out_of_scope"`
	Message    string `json:"message"`
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"cached_suites": h.cache.Len(),
	})
}

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in analyzeRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	flags, err := schema.ParseCategoryFlags(in.Categories)
	if err != nil {
		h.writeError(w, r, &core.ValidationError{Field: "categories", Message: err.Error(), Err: err})
		return
	}
	save := h.persist
	if in.Save != nil {
		save = save && *in.Save
	}

	suite, err := h.orch.Analyze(r.Context(), core.AnalyzeRequest{
		Rule:       in.Rule,
		Categories: flags,
		Target:     schema.Surface(strings.ToLower(strings.TrimSpace(in.Target))),
		Save:       save,
	})
	var oos *core.OutOfScopeError
	if errors.As(err, &oos) {
		writeJSON(w, http.StatusUnprocessableEntity, outOfScopeBody{OutOfScope: true, Message: oos.Message})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.cache.Add(suite)
	writeJSON(w, http.StatusOK, suite)
}

type gherkinRequest struct {
	SuiteID       string            `json:"suite_id,omitempty"`
	Cases         []schema.TestCase `json:"cases"`
	FeatureSource string            `json:"feature_source"`
}

func (h *Handler) HandleGherkin(w http.ResponseWriter, r *http.Request) {
	var in gherkinRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.SuiteID != "" {
		suite, err := h.lookupSuite(in.SuiteID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.Cases, in.FeatureSource = suite.Cases, suite.Feature
	}

	out, err := h.orch.Gherkin(r.Context(), in.Cases, in.FeatureSource)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if out == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeText(w, "text/plain; charset=utf-8", []byte(out))
}

func (h *Handler) HandleListSuites(w http.ResponseWriter, r *http.Request) {
	if !h.persist {
		writeJSON(w, http.StatusOK, h.cache.List())
		return
	}
	suites, err := h.orch.ListSuites()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suites)
}

// HandleGetSuite serves a suite as JSON, or as YAML / Gherkin with ?format=.
func (h *Handler) HandleGetSuite(w http.ResponseWriter, r *http.Request) {
	suite, err := h.lookupSuite(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, suite)
	case "yaml":
		data, err := yaml.Marshal(suite)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeText(w, "application/yaml", data)
	case "gherkin":
		out, err := h.orch.Gherkin(r.Context(), suite.Cases, suite.Feature)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeText(w, "text/plain; charset=utf-8", []byte(out))
	default:
		badRequest(w, "unsupported format %q (want json, yaml or gherkin)", format)
	}
}

func (h *Handler) HandleDeleteSuite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cached := h.cache.Remove(id)
	if h.persist {
		// A suite generated with save=false lives only in the cache.
		err := h.orch.DeleteSuite(id)
		if err != nil && !(cached && errors.Is(err, repository.ErrSuiteNotFound)) {
			h.writeError(w, r, err)
			return
		}
	} else if !cached {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "suite not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupSuite checks the cache before the repository.
func (h *Handler) lookupSuite(id string) (*schema.Suite, error) {
	if s, ok := h.cache.Get(id); ok {
		return s, nil
	}
	if !h.persist {
		return nil, fmt.Errorf("%w: %s", repository.ErrSuiteNotFound, id)
	}
	return h.orch.ReadSuite(id)
}

type digestRequest struct {
	Algorithm string `json:"algorithm"`
	Text      string `json:"text"`
	Secret    string `json:"secret,omitempty"`
	Format    string `json:"format"`
}

type digestResponse struct {
	Algorithm digest.Algorithm `json:"algorithm"`
	Format    digest.Format    `json:"format"`
	Mode      string           `json:"mode"`
	Value     string           `json:"value"`
}

// HandleDigest returns a hash, or an HMAC when a secret is given.
func (h *Handler) HandleDigest(w http.ResponseWriter, r *http.Request) {
	var in digestRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.Algorithm == "" {
		in.Algorithm = string(digest.SHA256)
	}
	alg, err := digest.ParseAlgorithm(in.Algorithm)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	format, err := digest.ParseFormat(in.Format)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	resp := digestResponse{Algorithm: alg, Format: format, Mode: "hash"}
	if in.Secret != "" {
		resp.Mode = "hmac"
		resp.Value, err = digest.HMAC(alg, []byte(in.Text), []byte(in.Secret), format)
	} else {
		resp.Value, err = digest.Hash(alg, []byte(in.Text), format)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type webhookRequest struct {
	Provider  string          `json:"provider"`
	Method    string          `json:"method"`
	Endpoint  string          `json:"endpoint"`
	EventType string          `json:"event_type"`
	Secret    string          `json:"secret"`
	Algorithm string          `json:"algorithm"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Deliver   bool            `json:"deliver,omitempty"`
}

type webhookResponse struct {
	*webhook.Signed
	Delivery      *webhook.Delivery `json:"delivery,omitempty"`
	DeliveryError string            `json:"delivery_error,omitempty"`
}

// HandleWebhookSign signs a delivery and, when asked, sends it.
func (h *Handler) HandleWebhookSign(w http.ResponseWriter, r *http.Request) {
	var in webhookRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	var alg digest.Algorithm
	if in.Algorithm != "" {
		parsed, err := digest.ParseAlgorithm(in.Algorithm)
		if err != nil {
			badRequest(w, "%v", err)
			return
		}
		alg = parsed
	}

	signed, err := webhook.Sign(webhook.Request{
		Provider:  webhook.Provider(in.Provider),
		Method:    in.Method,
		Endpoint:  in.Endpoint,
		EventType: in.EventType,
		Secret:    in.Secret,
		Algorithm: alg,
		Timestamp: in.Timestamp,
		Payload:   in.Payload,
	})
	if err != nil {
		badRequest(w, "%v", err)
		return
	}

	resp := webhookResponse{Signed: signed}
	if in.Deliver {
		delivery, err := webhook.Deliver(r.Context(), h.client, signed)
		if err != nil {
			h.logger.Warn("webhook delivery failed", "endpoint", signed.Summary.Endpoint, "error", err)
			resp.DeliveryError = err.Error()
		} else {
			resp.Delivery = delivery
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandlePayloads(w http.ResponseWriter, r *http.Request) {
	kind, err := payloads.ParseKind(r.URL.Query().Get("type"))
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	entries, err := payloads.List(kind)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":     kind,
		"count":    len(entries),
		"payloads": entries,
	})
}

// HandleMock fills a JSON template; ?overwrite=true regenerates filled values.
func (h *Handler) HandleMock(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	overwrite, _ := strconv.ParseBool(r.URL.Query().Get("overwrite"))
	out, err := h.mock.PopulateJSON(body, overwrite)
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeText(w, "application/json; charset=utf-8", out)
}

// HandleJSON pretty-prints (default), minifies or converts to YAML with ?op=.
func (h *Handler) HandleJSON(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var out []byte
	contentType := "application/json; charset=utf-8"
	switch op := r.URL.Query().Get("op"); op {
	case "", "pretty":
		out, err = jsonutil.Pretty(body)
	case "minify":
		out, err = jsonutil.Minify(body)
	case "yaml":
		out, err = jsonutil.ToYAML(body)
		contentType = "application/yaml"
	default:
		badRequest(w, "unsupported op %q (want pretty, minify or yaml)", op)
		return
	}
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	writeText(w, contentType, out)
}

// HandleCompress compresses the body with ?format=gzip|lz4, or decompresses
// it with ?mode=decompress.
func (h *Handler) HandleCompress(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format, err := compress.ParseFormat(query.Get("format"))
	if err != nil {
		badRequest(w, "%v", err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var out bytes.Buffer
	switch mode := query.Get("mode"); mode {
	case "", "compress":
		if err := compress.Compress(format, &out, bytes.NewReader(body)); err != nil {
			h.writeError(w, r, err)
			return
		}
		name := query.Get("name")
		if name == "" {
			name = "evidence"
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+format.Extension()))
		w.Header().Set("X-Compression-Ratio", strconv.FormatFloat(compress.Ratio(len(body), out.Len()), 'f', 4, 64))
		writeText(w, format.ContentType(), out.Bytes())
	case "decompress":
		if err := compress.DecompressLimit(format, &out, bytes.NewReader(body), maxDecompressedBytes); err != nil {
			if errors.Is(err, compress.ErrTooLarge) {
				h.writeError(w, r, err)
				return
			}
			badRequest(w, "%v", err)
			return
		}
		writeText(w, "application/octet-stream", out.Bytes())
	default:
		badRequest(w, "unsupported mode %q (want compress or decompress)", mode)
	}
}
