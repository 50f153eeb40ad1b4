// Package webhook builds signed webhook deliveries in the style of common
// providers and sends them.
package webhook

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"qakit/internal/digest"
	"qakit/internal/jsonutil"
)

// Provider selects header layout and signing input.
type Provider string

const (
	Generic Provider = "generic"
	Stripe  Provider = "stripe"
	GitHub  Provider = "github"
)

const (
	DefaultEventType = "event.default"
	userAgent        = "QA-Webhook-Simulator"
	maxResponseBody  = 64 << 10
)

var (
	ErrMissingSignature  = errors.New("signature header missing")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

var labels = map[Provider]string{
	Generic: "Generic",
	Stripe:  "Stripe-like",
	GitHub:  "GitHub-like",
}

// ParseProvider accepts generic, stripe and github. Empty means generic.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if p == "" {
		return Generic, nil
	}
	if _, ok := labels[p]; !ok {
		return "", fmt.Errorf("unsupported provider %q", name)
	}
	return p, nil
}

// Label is the display name of p.
func (p Provider) Label() string {
	return labels[p]
}

// Header is one HTTP header; deliveries keep a stable header order.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Request describes a delivery to sign.
type Request struct {
	Provider  Provider         `json:"provider"`
	Method    string           `json:"method"`
	Endpoint  string           `json:"endpoint"`
	EventType string           `json:"event_type"`
	Secret    string           `json:"secret"`
	Algorithm digest.Algorithm `json:"algorithm"`
	Timestamp int64            `json:"timestamp,omitempty"` // Unix seconds; 0 means now
	Payload   []byte           `json:"payload"`
}

// Signature records what was signed and how.
type Signature struct {
	Provider      Provider         `json:"provider"`
	Algorithm     digest.Algorithm `json:"algorithm"`
	Timestamp     int64            `json:"timestamp"`
	SignedPayload string           `json:"signed_payload"`
	Value         string           `json:"signature"`
}

// Summary describes the outgoing request.
type Summary struct {
	Method        string    `json:"method"`
	Endpoint      string    `json:"endpoint"`
	EventType     string    `json:"event_type"`
	ProviderLabel string    `json:"provider_label"`
	PayloadSize   int       `json:"payload_size"`
	CreatedAt     time.Time `json:"created_at"`
}

// Signed is a ready-to-send delivery.
type Signed struct {
	PrettyPayload  string    `json:"pretty_payload"`
	CompactPayload string    `json:"compact_payload"`
	Headers        []Header  `json:"headers"`
	Signature      Signature `json:"signature"`
	Summary        Summary   `json:"summary"`
	Curl           string    `json:"curl"`
}

// Sign validates req, signs the compacted payload and builds provider
// headers plus an equivalent curl command.
func Sign(req Request) (*Signed, error) {
	provider, err := ParseProvider(string(req.Provider))
	if err != nil {
		return nil, err
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch method {
	case "":
		method = http.MethodPost
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil, fmt.Errorf("unsupported method %q", req.Method)
	}
	if err := checkEndpoint(req.Endpoint); err != nil {
		return nil, err
	}
	if req.Secret == "" {
		return nil, errors.New("secret is required")
	}
	alg := req.Algorithm
	if alg == "" {
		alg = digest.SHA256
	}

	compact, err := jsonutil.Minify(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	pretty, err := jsonutil.Pretty(compact)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	timestamp := req.Timestamp
	if timestamp <= 0 {
		timestamp = time.Now().Unix()
	}
	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		eventType = DefaultEventType
	}

	signed := signingInput(provider, timestamp, compact)
	sig, err := digest.HMAC(alg, signed, []byte(req.Secret), digest.Hex)
	if err != nil {
		return nil, err
	}

	headers := buildHeaders(provider, eventType, timestamp, sig, alg)
	return &Signed{
		PrettyPayload:  string(pretty),
		CompactPayload: string(compact),
		Headers:        headers,
		Signature: Signature{
			Provider:      provider,
			Algorithm:     alg,
			Timestamp:     timestamp,
			SignedPayload: string(signed),
			Value:         sig,
		},
		Summary: Summary{
			Method:        method,
			Endpoint:      req.Endpoint,
			EventType:     eventType,
			ProviderLabel: provider.Label(),
			PayloadSize:   len(compact),
			CreatedAt:     time.Now().UTC(),
		},
		Curl: curlCommand(method, req.Endpoint, headers, string(compact)),
	}, nil
}

// Verify checks the signature carried in header against payload as received.
func Verify(provider Provider, alg digest.Algorithm, secret string, payload []byte, header http.Header) error {
	var timestamp int64
	var got string

	switch provider {
	case Stripe:
		raw := header.Get("Stripe-Signature")
		if raw == "" {
			return ErrMissingSignature
		}
		for _, part := range strings.Split(raw, ",") {
			key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
			switch key {
			case "t":
				ts, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid timestamp %q: %w", value, err)
				}
				timestamp = ts
			case "v1":
				got = value
			}
		}
	case GitHub:
		got = stripPrefix(header.Get("X-Hub-Signature-256"))
		if got == "" {
			got = stripPrefix(header.Get("X-Hub-Signature"))
		}
	default:
		got = stripPrefix(header.Get("X-Webhook-Signature"))
	}
	if got == "" {
		return ErrMissingSignature
	}

	want, err := digest.HMAC(alg, signingInput(provider, timestamp, payload), []byte(secret), digest.Hex)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(got))) {
		return ErrSignatureMismatch
	}
	return nil
}

// Delivery is the endpoint's response.
type Delivery struct {
	Status     int           `json:"status"`
	StatusText string        `json:"status_text"`
	Headers    http.Header   `json:"headers"`
	Body       string        `json:"body"`
	Duration   time.Duration `json:"duration"`
}

// Deliver sends s with client. Response bodies are truncated to 64 KiB.
func Deliver(ctx context.Context, client *http.Client, s *Signed) (*Delivery, error) {
	req, err := http.NewRequestWithContext(ctx, s.Summary.Method, s.Summary.Endpoint, strings.NewReader(s.CompactPayload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for _, h := range s.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Delivery{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    resp.Header,
		Body:       string(body),
		Duration:   time.Since(start),
	}, nil
}

func signingInput(provider Provider, timestamp int64, payload []byte) []byte {
	if provider == Stripe {
		return []byte(strconv.FormatInt(timestamp, 10) + "." + string(payload))
	}
	return payload
}

func buildHeaders(provider Provider, eventType string, timestamp int64, sig string, alg digest.Algorithm) []Header {
	prefix := algPrefix(alg)
	headers := []Header{{Name: "Content-Type", Value: "application/json"}}

	switch provider {
	case Stripe:
		return append(headers,
			Header{Name: "Stripe-Event-Type", Value: eventType},
			Header{Name: "Stripe-Signature", Value: fmt.Sprintf("t=%d,v1=%s", timestamp, sig)},
		)
	case GitHub:
		name := "X-Hub-Signature-256"
		if alg == digest.SHA1 {
			name = "X-Hub-Signature"
		}
		return append(headers,
			Header{Name: "User-Agent", Value: userAgent},
			Header{Name: "X-GitHub-Event", Value: eventType},
			Header{Name: "X-GitHub-Delivery", Value: uuid.NewString()},
			Header{Name: name, Value: prefix + "=" + sig},
		)
	}
	return append(headers,
		Header{Name: "X-Webhook-Event", Value: eventType},
		Header{Name: "X-Webhook-Timestamp", Value: strconv.FormatInt(timestamp, 10)},
		Header{Name: "X-Webhook-Signature", Value: prefix + "=" + sig},
	)
}

// signaturePrefixes label signatures in headers, e.g. "sha256=<hex>".
var signaturePrefixes = map[digest.Algorithm]string{
	digest.SHA1:       "sha1",
	digest.SHA256:     "sha256",
	digest.SHA384:     "sha384",
	digest.SHA512:     "sha512",
	digest.SHA3_256:   "sha3-256",
	digest.SHA3_512:   "sha3-512",
	digest.BLAKE2b256: "blake2b-256",
}

func algPrefix(alg digest.Algorithm) string {
	if prefix, ok := signaturePrefixes[alg]; ok {
		return prefix
	}
	return strings.ToLower(string(alg))
}

func stripPrefix(value string) string {
	if _, sig, ok := strings.Cut(value, "="); ok {
		return sig
	}
	return value
}

func curlCommand(method, endpoint string, headers []Header, payload string) string {
	flags := make([]string, len(headers))
	for i, h := range headers {
		flags[i] = `-H "` + escapeDouble(h.Name+": "+h.Value) + `"`
	}
	return strings.Join([]string{
		fmt.Sprintf(`curl -X %s "%s" \`, method, escapeDouble(endpoint)),
		"  " + strings.Join(flags, " \\\n  ") + ` \`,
		"  -d '" + strings.ReplaceAll(payload, "'", `'"'"'`) + "'",
	}, "\n")
}

func escapeDouble(value string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
}

func checkEndpoint(endpoint string) error {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("endpoint must be an absolute http(s) URL, got %q", endpoint)
	}
	return nil
}
