// Package mockdata fills JSON templates with plausible fake values.
//
// String values may carry {{token}} placeholders; empty values are inferred
// from their key name through an ordered rule table.
package mockdata

import (
	"encoding/json"
	"fmt"
	"maps"
	"math/rand/v2"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"qakit/internal/jsonutil"
)

const (
	alphaNumChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	isoMillis      = "2006-01-02T15:04:05.000Z07:00"
	secondsPerYear = 31_536_000

	// maxNumberBound caps {{number:min:max}} bounds in both directions.
	maxNumberBound = 1_000_000_000_000
)

var (
	tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
	fullToken    = regexp.MustCompile(`^\{\{\s*([^{}]+?)\s*\}\}$`)
	numberToken  = regexp.MustCompile(`^number:(-?\d+):(-?\d+)$`)
)

var (
	firstNames    = []string{"Lucas", "Mariana", "Rafael", "Aline", "Joao", "Carla", "Tiago", "Ana"}
	lastNames     = []string{"Silva", "Souza", "Costa", "Lima", "Santos", "Pereira", "Mendes", "Rocha"}
	cities        = []string{"Sao Paulo", "Rio de Janeiro", "Curitiba", "Recife", "Porto", "Lisboa", "Austin", "Seattle"}
	states        = []string{"SP", "RJ", "PR", "PE", "Porto", "Lisboa", "TX", "WA"}
	countries     = []string{"Brasil", "Portugal", "Estados Unidos"}
	domains       = []string{"empresa.com", "qa.local", "teste.dev", "mock.api"}
	companies     = []string{"Acme", "NovaCore", "Atlas", "BluePeak", "Sigma", "Lumen"}
	companySuffix = []string{"Tech", "Labs", "Solutions", "Group"}
	statuses      = []string{"active", "inactive", "pending", "approved", "blocked"}
	streets       = []string{"Rua das Flores", "Avenida Central", "Rua do Sol", "Avenida Brasil", "Rua do Carmo"}
	words         = []string{"alpha", "beta", "gamma", "delta", "theta", "pipeline", "quality", "teste", "release", "deploy"}
)

// Tokens lists the supported placeholders.
var Tokens = []string{
	"{{id}}", "{{uuid}}", "{{name}}", "{{email}}", "{{boolean}}", "{{date}}",
	"{{number:min:max}}", "{{word}}", "{{sentence}}", "{{city}}", "{{state}}",
	"{{country}}", "{{phone}}", "{{company}}", "{{status}}", "{{cpf}}", "{{cnpj}}",
}

// Generator produces fake values from an injectable random source.
// It is safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// lockedSource serializes access to a source that is not goroutine safe.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

// New returns a Generator drawing from src. A nil src uses a randomly
// seeded PCG source.
func New(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rng: rand.New(&lockedSource{src: src}), now: time.Now}
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed uint64) *Generator {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// PopulateJSON decodes a JSON template, fills it and returns indented JSON.
func (g *Generator) PopulateJSON(data []byte, overwrite bool) ([]byte, error) {
	var template any
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, fmt.Errorf("invalid json template: %w", err)
	}
	return jsonutil.MarshalNoEscapeIndent(g.Populate(template, overwrite))
}

// Populate fills a decoded JSON value. Objects and arrays are walked
// recursively; overwrite regenerates values that already look filled.
func (g *Generator) Populate(value any, overwrite bool) any {
	return g.populate(value, "", overwrite)
}

func (g *Generator) populate(value any, key string, overwrite bool) any {
	switch v := value.(type) {
	case map[string]any:
		// Sorted so a seeded generator is reproducible.
		out := make(map[string]any, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			out[k] = g.populate(v[k], k, overwrite)
		}
		return out
	case []any:
		if len(v) == 0 {
			name := key
			if name == "" {
				name = "item"
			}
			return []any{g.InferByKey(strings.TrimSuffix(name, "s"), "string")}
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = g.populate(item, key+"["+strconv.Itoa(i)+"]", overwrite)
		}
		return out
	case string:
		if tokenPattern.MatchString(v) {
			return g.ReplaceTokens(v)
		}
		if overwrite || strings.TrimSpace(v) == "" {
			return g.InferByKey(key, "string")
		}
		return v
	case float64:
		if overwrite || v == 0 {
			return g.InferByKey(key, "number")
		}
		return v
	case bool:
		if overwrite {
			return g.InferByKey(key, "boolean")
		}
		return v
	case nil:
		return g.InferByKey(key, "string")
	}
	return value
}

// ReplaceTokens resolves placeholders in s. A string that is exactly one
// placeholder yields the typed value (number, bool); otherwise each
// placeholder is substituted textually.
func (g *Generator) ReplaceTokens(s string) any {
	if m := fullToken.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		return g.Token(m[1])
	}
	return tokenPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := tokenPattern.FindStringSubmatch(match)[1]
		return fmt.Sprint(g.Token(name))
	})
}

// Token resolves one placeholder name. Unknown names yield "mock-<name>".
func (g *Generator) Token(name string) any {
	token := strings.ToLower(strings.TrimSpace(name))

	if m := numberToken.FindStringSubmatch(token); m != nil {
		lo, loErr := strconv.Atoi(m[1])
		hi, hiErr := strconv.Atoi(m[2])
		if loErr != nil || hiErr != nil || !inNumberRange(lo) || !inNumberRange(hi) {
			return "mock-number"
		}
		return g.intn(min(lo, hi), max(lo, hi))
	}

	switch token {
	case "id":
		return g.intn(1, 999999)
	case "uuid":
		return uuid.NewString()
	case "name":
		return g.Name()
	case "email":
		return g.Email()
	case "boolean":
		return g.rng.Float64() >= 0.5
	case "date":
		past := g.now().Add(-time.Duration(g.intn(0, secondsPerYear)) * time.Second)
		return past.UTC().Format(isoMillis)
	case "word":
		return g.pick(words)
	case "sentence":
		return g.Sentence()
	case "city":
		return g.pick(cities)
	case "state":
		return g.pick(states)
	case "country":
		return g.pick(countries)
	case "phone":
		return g.Phone()
	case "company":
		return g.Company()
	case "status":
		return g.pick(statuses)
	case "cpf":
		return g.CPF()
	case "cnpj":
		return g.CNPJ()
	}
	return "mock-" + token
}

// keyRule maps a key predicate to a value generator. Rules are evaluated
// in order and the first match wins.
type keyRule struct {
	match    func(key string) bool
	generate func(g *Generator) any
}

func containsAny(subs ...string) func(string) bool {
	return func(key string) bool {
		for _, s := range subs {
			if strings.Contains(key, s) {
				return true
			}
		}
		return false
	}
}

var keyRules = []keyRule{
	{containsAny("uuid"), func(*Generator) any { return uuid.NewString() }},
	{containsAny("email"), func(g *Generator) any { return g.Email() }},
	{containsAny("cpf"), func(g *Generator) any { return g.CPF() }},
	{containsAny("cnpj"), func(g *Generator) any { return g.CNPJ() }},
	{containsAny("firstname", "first_name"), func(g *Generator) any { return g.pick(firstNames) }},
	{containsAny("lastname", "last_name"), func(g *Generator) any { return g.pick(lastNames) }},
	{containsAny("name", "nome"), func(g *Generator) any { return g.Name() }},
	{containsAny("phone", "telefone", "mobile", "cel"), func(g *Generator) any { return g.Phone() }},
	{containsAny("city", "cidade"), func(g *Generator) any { return g.pick(cities) }},
	{containsAny("state", "estado", "province"), func(g *Generator) any { return g.pick(states) }},
	{containsAny("country", "pais"), func(g *Generator) any { return g.pick(countries) }},
	{containsAny("status"), func(g *Generator) any { return g.pick(statuses) }},
	{containsAny("company", "empresa"), func(g *Generator) any { return g.Company() }},
	{containsAny("street", "address", "endereco"), func(g *Generator) any {
		return fmt.Sprintf("%s, %d", g.pick(streets), g.intn(10, 9999))
	}},
	{containsAny("zip", "cep", "postal"), func(g *Generator) any {
		return g.digits(5) + "-" + g.digits(3)
	}},
	{containsAny("url", "link", "site"), func(g *Generator) any {
		return fmt.Sprintf("https://api.%s/%s/%d", g.pick(domains), g.pick(words), g.intn(100, 999))
	}},
	{containsAny("token"), func(g *Generator) any { return g.alphaNum(24) }},
	{containsAny("password", "senha"), func(g *Generator) any {
		return fmt.Sprintf("%s!%d", g.alphaNum(8), g.intn(10, 99))
	}},
	{
		func(key string) bool {
			return strings.Contains(key, "date") || strings.Contains(key, "time") || strings.HasSuffix(key, "at")
		},
		func(g *Generator) any { return g.now().UTC().Format(isoMillis) },
	},
	{containsAny("price", "amount", "total", "valor"), func(g *Generator) any {
		return float64(g.intn(1000, 250000)) / 100
	}},
	{containsAny("id"), func(g *Generator) any { return g.intn(1, 999999) }},
}

// InferByKey generates a value suited to key. fallbackType ("string",
// "number" or "boolean") decides the value when no rule matches.
func (g *Generator) InferByKey(key, fallbackType string) any {
	k := strings.ToLower(key)
	for _, rule := range keyRules {
		if rule.match(k) {
			return rule.generate(g)
		}
	}

	switch fallbackType {
	case "number":
		return g.intn(1, 9999)
	case "boolean":
		return g.rng.Float64() >= 0.5
	}
	return g.pick(words)
}

// Name returns "First Last".
func (g *Generator) Name() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

// Email returns first.lastNN@domain.
func (g *Generator) Email() string {
	return fmt.Sprintf("%s.%s%d@%s",
		strings.ToLower(g.pick(firstNames)),
		strings.ToLower(g.pick(lastNames)),
		g.intn(10, 99),
		g.pick(domains))
}

// Phone returns a Brazilian mobile number.
func (g *Generator) Phone() string {
	return fmt.Sprintf("+55 (%d) 9%s-%s", g.intn(11, 99), g.digits(4), g.digits(4))
}

// Company returns a company name with a suffix.
func (g *Generator) Company() string {
	return g.pick(companies) + " " + g.pick(companySuffix)
}

// Sentence returns 6 to 11 words ending with a period.
func (g *Generator) Sentence() string {
	n := g.intn(6, 11)
	out := make([]string, n)
	for i := range out {
		out[i] = g.pick(words)
	}
	return strings.Join(out, " ") + "."
}

func inNumberRange(n int) bool {
	return int64(n) >= -maxNumberBound && int64(n) <= maxNumberBound
}

// intn returns a uniform int in [lo, hi]. Callers keep hi-lo within
// 2*maxNumberBound.
func (g *Generator) intn(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) pick(list []string) string {
	return list[g.rng.IntN(len(list))]
}

func (g *Generator) digits(n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(byte('0' + g.rng.IntN(10)))
	}
	return b.String()
}

func (g *Generator) alphaNum(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphaNumChars[g.rng.IntN(len(alphaNumChars))]
	}
	return string(b)
}
