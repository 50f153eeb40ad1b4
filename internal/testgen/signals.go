package testgen

import (
	"regexp"
	"strconv"
	"strings"

	"qakit/pkg/schema"
)

const lengthUnit = `(?:caracteres|characters|chars|digitos|digits)`

var (
	quotedName   = regexp.MustCompile(`"(.{2,35}?)"|'(.{2,35}?)'|` + "`(.{2,35}?)`")
	labeledList  = regexp.MustCompile(`(?i)(?:campos|campo|fields|field|atributos|atributo|par[aâ]metros|par[aâ]metro)\s*[:\-]?\s*([^\n]+)`)
	jsonKey      = regexp.MustCompile(`["']([A-Za-z_][\w.-]{1,30})["']\s*:`)
	requiredList = regexp.MustCompile(`(?i)(?:obrigat[oó]ri[oa]s?|required(?: fields?)?)\s*[:\-]\s*([^\n]+)`)
	listSep      = regexp.MustCompile(`(?i),|;|\se\s|\sand\s|\n`)
	nameJunk     = regexp.MustCompile(`[^a-zA-Z0-9_. -]`)
	httpCode     = regexp.MustCompile(`\b([1-5]\d{2})\b`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

	// The unit after "minimo N" / "maximo N" is optional so that phrasing
	// like "no minimo 8 e no maximo 20 caracteres" yields both bounds.
	minLength = []*regexp.Regexp{
		regexp.MustCompile(`(?:minimo|minimum)(?: de| of)?\s*(\d+)`),
		regexp.MustCompile(`(\d+)\s*` + lengthUnit + `\s*minimos?`),
	}

	maxLength = []*regexp.Regexp{
		regexp.MustCompile(`(?:maximo|maximum)(?: de| of)?\s*(\d+)`),
		regexp.MustCompile(`(\d+)\s*` + lengthUnit + `\s*maximos?`),
	}

	exactLength = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*` + lengthUnit + `\s*(?:exatos?|exact)`),
		regexp.MustCompile(`(?:exatamente|exactly)\s*(\d+)`),
	}
)

// ExtractSignals mines field names, required fields, length bounds, HTTP
// codes and keyword flags from the rule text.
func (e *Engine) ExtractSignals(rule string) schema.Signals {
	normalized := Normalize(rule)
	fields := e.extractFields(rule)

	s := schema.Signals{
		Fields:   fields,
		Required: e.extractRequired(rule, normalized, fields),
		Codes:    extractCodes(rule),
	}
	s.Lengths = schema.Lengths{
		Min:   firstNumber(normalized, minLength),
		Max:   firstNumber(normalized, maxLength),
		Exact: firstNumber(normalized, exactLength),
	}

	kw := e.tables.Keywords
	s.HasUnique = containsAny(normalized, kw.Unique)
	s.HasAuth = containsAny(normalized, kw.Auth)
	s.HasEmail = containsAny(normalized, kw.Email)
	s.HasPhone = containsAny(normalized, kw.Phone)
	s.HasDocument = containsAny(normalized, kw.CPF) || containsAny(normalized, kw.CNPJ)
	if !s.HasEmail {
		for _, f := range fields {
			if strings.Contains(Normalize(f), "email") {
				s.HasEmail = true
				break
			}
		}
	}
	return s
}

// splitList breaks "nome, email e senha." into its items.
func splitList(value string) []string {
	value = strings.ReplaceAll(value, ".", " ")
	parts := listSep.Split(value, -1)
	return uniqFold(parts)
}

func (e *Engine) extractFields(rule string) []string {
	var candidates []string

	for _, m := range quotedName.FindAllStringSubmatch(rule, -1) {
		for _, group := range m[1:] {
			if group != "" {
				candidates = append(candidates, group)
				break
			}
		}
	}
	for _, m := range labeledList.FindAllStringSubmatch(rule, -1) {
		candidates = append(candidates, splitList(m[1])...)
	}
	for _, m := range jsonKey.FindAllStringSubmatch(rule, -1) {
		candidates = append(candidates, m[1])
	}

	cleaned := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(nameJunk.ReplaceAllString(c, ""))
		if len(c) < schema.FieldNameMin || len(c) > schema.FieldNameMax {
			continue
		}
		if _, stop := e.stopWords[Normalize(c)]; stop {
			continue
		}
		cleaned = append(cleaned, c)
	}
	return uniqFold(cleaned)
}

// extractRequired prefers an explicitly labeled list. Without one, a rule
// that merely mentions obligation marks the first few fields as required.
func (e *Engine) extractRequired(rule, normalized string, fields []string) []string {
	var explicit []string
	for _, m := range requiredList.FindAllStringSubmatch(rule, -1) {
		explicit = append(explicit, splitList(m[1])...)
	}
	if required := uniqFold(explicit); len(required) > 0 {
		return required
	}

	if containsAny(normalized, e.tables.Keywords.Required) {
		n := min(schema.RequiredFallbackMax, len(fields))
		return append([]string{}, fields[:n]...)
	}
	return []string{}
}

func firstNumber(text string, patterns []*regexp.Regexp) *int {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

func extractCodes(rule string) schema.Codes {
	codes := schema.Codes{}
	for _, m := range httpCode.FindAllStringSubmatch(rule, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case codes.Success == 0 && n >= 200 && n <= 299:
			codes.Success = n
		case codes.Error == 0 && n >= 400 && n <= 599:
			codes.Error = n
		}
	}
	if codes.Success == 0 {
		codes.Success = schema.DefaultSuccessStatus
	}
	if codes.Error == 0 {
		codes.Error = schema.DefaultErrorStatus
	}
	return codes
}
