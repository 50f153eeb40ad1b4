package testgen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"qakit/internal/payloads"
	"qakit/pkg/schema"
)

// Keywords are the per-signal vocabularies matched against normalized text.
type Keywords struct {
	Required []string `yaml:"required"`
	Unique   []string `yaml:"unique"`
	Auth     []string `yaml:"auth"`
	Email    []string `yaml:"email"`
	Phone    []string `yaml:"phone"`
	CPF      []string `yaml:"cpf"`
	CNPJ     []string `yaml:"cnpj"`
}

// SecuritySamples are the payloads injected into the focus field.
type SecuritySamples struct {
	SQLInjection string `yaml:"sql_injection"`
	XSS          string `yaml:"xss"`
}

// Narrative holds the Gherkin boilerplate.
type Narrative struct {
	Lines        []string `yaml:"lines"`
	DefaultGiven string   `yaml:"default_given"`
	DefaultWhen  string   `yaml:"default_when"`
}

// Tables is the static configuration of the engine. Every value can be
// overridden from a YAML file; missing keys keep their defaults.
type Tables struct {
	ScopeTerms        []string                            `yaml:"scope_terms"`
	StopWords         []string                            `yaml:"stop_words"`
	Keywords          Keywords                            `yaml:"keywords"`
	Priorities        map[schema.Category]schema.Priority `yaml:"priorities"`
	CategoryLabels    map[schema.Category]string          `yaml:"category_labels"`
	Security          SecuritySamples                     `yaml:"security"`
	Narrative         Narrative                           `yaml:"narrative"`
	DefaultFeature    string                              `yaml:"default_feature"`
	FallbackField     string                              `yaml:"fallback_field"`
	FallbackLabel     string                              `yaml:"fallback_label"`
	DefaultExpected   string                              `yaml:"default_expected"`
	OutOfScopeMessage string                              `yaml:"out_of_scope_message"`
	DefaultRule       string                              `yaml:"default_rule"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{
		ScopeTerms: []string{
			"regra", "requisito", "criterio de aceite", "campo", "obrigatorio",
			"validacao", "erro", "sucesso", "status", "payload", "json", "api",
			"endpoint", "tela", "formulario", "frontend", "backend", "usuario",
			"cadastro", "login", "senha", "email", "cpf", "cnpj", "telefone",
			"cenario", "gherkin", "given", "when", "then", "must", "should",
			"required",
		},
		StopWords: []string{
			"regra", "campos", "campo", "deve", "dever", "quando", "com", "sem",
			"para", "entre", "retornar", "status", "codigo", "http", "json",
			"payload", "validacao", "erro", "sucesso", "request", "response",
			"valor", "dados", "dado", "informacao", "informacoes",
		},
		Keywords: Keywords{
			Required: []string{
				"obrigatorio", "obrigatorios", "obrigatoria", "required",
				"nao pode ser vazio", "nao pode ficar em branco", "must be provided",
			},
			Unique: []string{"nao pode ser duplicado", "unico", "unique", "duplicado"},
			Auth:   []string{"autenticacao", "autorizacao", "token", "login", "permissao", "forbidden", "unauthorized"},
			Email:  []string{"email", "e-mail"},
			Phone:  []string{"telefone", "phone", "celular", "mobile"},
			CPF:    []string{"cpf"},
			CNPJ:   []string{"cnpj"},
		},
		Priorities: map[schema.Category]schema.Priority{
			schema.CategoryPositive:   schema.PriorityHigh,
			schema.CategoryNegative:   schema.PriorityHigh,
			schema.CategoryBoundary:   schema.PriorityMedium,
			schema.CategorySecurity:   schema.PriorityHigh,
			schema.CategoryRegression: schema.PriorityMedium,
		},
		CategoryLabels: map[schema.Category]string{
			schema.CategoryPositive:   "Positivo",
			schema.CategoryNegative:   "Negativo",
			schema.CategoryBoundary:   "Borda",
			schema.CategorySecurity:   "Seguranca",
			schema.CategoryRegression: "Regressao",
		},
		Security: SecuritySamples{
			SQLInjection: payloads.Sample(payloads.KindSQLi),
			XSS:          payloads.Sample(payloads.KindXSS),
		},
		Narrative: Narrative{
			Lines: []string{
				"Como QA",
				"Quero validar a regra de negocio",
				"Para garantir qualidade funcional e tecnica",
			},
			DefaultGiven: "o sistema esta disponivel",
			DefaultWhen:  "envio a operacao com dados de teste",
		},
		DefaultFeature:    "Regra de negocio",
		FallbackField:     "campo principal",
		FallbackLabel:     "Geral",
		DefaultExpected:   "Resultado esperado nao informado.",
		OutOfScopeMessage: "IA local restrita: ela so gera casos de teste a partir de regra funcional (campos, validacoes, status e fluxo).",
		DefaultRule: `Regra: Cadastro de usuario
- Campos obrigatorios: nome, email e senha.
- Email deve ter formato valido.
- Senha deve ter no minimo 8 caracteres e no maximo 20.
- Senha deve conter letra maiuscula, minuscula, numero e caractere especial.
- Email nao pode ser duplicado.
- Quando cadastro for valido, retornar status 201.
- Quando houver erro de validacao, retornar status 400.`,
	}
}

// LoadTables reads a YAML override file on top of DefaultTables.
// An empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("parse tables %s: %w", path, err)
	}
	return tables, nil
}

func (t Tables) label(c schema.Category) string {
	if l, ok := t.CategoryLabels[c]; ok && l != "" {
		return l
	}
	return t.FallbackLabel
}

func (t Tables) priority(c schema.Category) schema.Priority {
	return t.Priorities[c]
}
