package testgen

import (
	"fmt"
	"strings"

	"qakit/pkg/schema"
)

// text is the surface specific wording of one draft.
type text struct {
	Title         string
	Objective     string
	Preconditions []string
	Steps         []string
	Expected      string
}

// facts are the values a phrase may interpolate.
type facts struct {
	Signals schema.Signals
	Focus   string // field that receives security payloads
	Field   string // current required field
	Size    int    // current length bound
	Samples SecuritySamples
}

// boundaryPoints lists the three sizes checked around a bound, clamped at zero.
func (f facts) boundaryPoints() (below, at, above int) {
	return max(f.Size-1, 0), f.Size, f.Size + 1
}

type phrase func(f facts) text

// wording maps every draft shape to its text for one surface. Both surfaces
// share the shape logic in build; only the phrases differ.
type wording struct {
	Surface schema.Surface
	Prefix  string

	HappyPath       phrase
	AllRequired     phrase
	MissingRequired phrase
	BadEmail        phrase
	Duplicate       phrase
	BadPhone        phrase
	BadDocument     phrase
	NoAuth          phrase
	ExactLength     phrase
	MinLength       phrase
	MaxLength       phrase
	SQLInjection    phrase
	XSS             phrase
	Baseline        phrase
}

// Synthesize emits drafts for the enabled categories. SurfaceBoth yields
// the backend drafts followed by the frontend drafts.
func (e *Engine) Synthesize(signals schema.Signals, flags schema.CategoryFlags, surface schema.Surface) []schema.Draft {
	drafts := []schema.Draft{}
	if surface.Includes(schema.SurfaceBackend) {
		drafts = append(drafts, e.build(e.backend, signals, flags)...)
	}
	if surface.Includes(schema.SurfaceFrontend) {
		drafts = append(drafts, e.build(e.frontend, signals, flags)...)
	}
	return drafts
}

func (e *Engine) build(w wording, s schema.Signals, flags schema.CategoryFlags) []schema.Draft {
	f := facts{
		Signals: s,
		Focus:   s.FocusField(e.tables.FallbackField),
		Samples: e.tables.Security,
	}

	var drafts []schema.Draft
	add := func(c schema.Category, p phrase, f facts) {
		drafts = append(drafts, e.draft(w, c, p(f)))
	}

	if flags.Positive {
		add(schema.CategoryPositive, w.HappyPath, f)
		if len(s.Required) > 0 {
			add(schema.CategoryPositive, w.AllRequired, f)
		}
	}

	if flags.Negative {
		for _, field := range s.Required[:min(len(s.Required), schema.MissingRequiredMax)] {
			ff := f
			ff.Field = field
			add(schema.CategoryNegative, w.MissingRequired, ff)
		}
		if s.HasEmail {
			add(schema.CategoryNegative, w.BadEmail, f)
		}
		if s.HasUnique {
			add(schema.CategoryNegative, w.Duplicate, f)
		}
		if s.HasPhone {
			add(schema.CategoryNegative, w.BadPhone, f)
		}
		if s.HasDocument {
			add(schema.CategoryNegative, w.BadDocument, f)
		}
		if s.HasAuth {
			add(schema.CategoryNegative, w.NoAuth, f)
		}
	}

	if flags.Boundary {
		bound := func(p phrase, size int) {
			ff := f
			ff.Size = size
			add(schema.CategoryBoundary, p, ff)
		}
		if s.Lengths.Exact != nil {
			bound(w.ExactLength, *s.Lengths.Exact)
		} else {
			if s.Lengths.Min != nil {
				bound(w.MinLength, *s.Lengths.Min)
			}
			if s.Lengths.Max != nil {
				bound(w.MaxLength, *s.Lengths.Max)
			}
		}
	}

	if flags.Security {
		add(schema.CategorySecurity, w.SQLInjection, f)
		add(schema.CategorySecurity, w.XSS, f)
	}

	if flags.Regression {
		add(schema.CategoryRegression, w.Baseline, f)
	}

	return drafts
}

func (e *Engine) draft(w wording, c schema.Category, t text) schema.Draft {
	expected := strings.TrimSpace(t.Expected)
	if expected == "" {
		expected = e.tables.DefaultExpected
	}
	return schema.Draft{
		Kind:          c,
		Surface:       w.Surface,
		Category:      e.tables.label(c),
		Priority:      e.tables.priority(c),
		Title:         w.Prefix + " " + t.Title,
		Objective:     t.Objective,
		Preconditions: nonBlank(t.Preconditions),
		Steps:         nonBlank(t.Steps),
		Expected:      expected,
	}
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func boundaryStep(verb string, f facts) string {
	below, at, above := f.boundaryPoints()
	return fmt.Sprintf("%s %d, %d e %d caracteres.", verb, below, at, above)
}

func backendWording() wording {
	return wording{
		Surface: schema.SurfaceBackend,
		Prefix:  "[Backend]",
		HappyPath: func(f facts) text {
			return text{
				Title:         "Fluxo valido com retorno de sucesso",
				Objective:     "Validar caminho feliz de API com dados corretos.",
				Preconditions: []string{"Ambiente e credenciais de API disponiveis."},
				Steps:         []string{"Montar payload valido.", "Executar envio.", "Validar status e body da resposta."},
				Expected:      fmt.Sprintf("Retorno de sucesso com status %d.", f.Signals.Codes.Success),
			}
		},
		AllRequired: func(f facts) text {
			return text{
				Title:         "Aceitar todos os obrigatorios preenchidos",
				Objective:     "Garantir aceite da entrada completa no endpoint.",
				Preconditions: []string{"Campos obrigatorios configurados."},
				Steps:         []string{"Preencher: " + strings.Join(f.Signals.Required, ", ") + ".", "Enviar requisicao."},
				Expected:      fmt.Sprintf("Sem erro de validacao e status %d.", f.Signals.Codes.Success),
			}
		},
		MissingRequired: func(f facts) text {
			return text{
				Title:         "Rejeitar obrigatorio ausente: " + f.Field,
				Objective:     "Cobrir validacao de obrigatoriedade.",
				Preconditions: []string{"Payload base valido pronto."},
				Steps:         []string{"Remover campo " + f.Field + ".", "Enviar requisicao."},
				Expected:      fmt.Sprintf("Erro de validacao com status %d.", f.Signals.Codes.Error),
			}
		},
		BadEmail: func(f facts) text {
			return text{
				Title:         "Rejeitar email invalido",
				Objective:     "Garantir formato de email correto no payload.",
				Preconditions: []string{"Campo de email habilitado."},
				Steps:         []string{"Informar usuario@dominio.", "Enviar requisicao."},
				Expected:      fmt.Sprintf("Email invalido com status %d.", f.Signals.Codes.Error),
			}
		},
		Duplicate: func(facts) text {
			return text{
				Title:         "Rejeitar dado duplicado",
				Objective:     "Validar unicidade de registro.",
				Preconditions: []string{"Registro com mesmo identificador ja existe."},
				Steps:         []string{"Repetir identificador unico.", "Enviar requisicao."},
				Expected:      "Sistema nao deve aceitar duplicidade.",
			}
		},
		BadPhone: func(facts) text {
			return text{
				Title:         "Rejeitar telefone invalido",
				Objective:     "Cobrir validacao de telefone na API.",
				Preconditions: []string{"Campo de telefone habilitado."},
				Steps:         []string{"Enviar telefone com letras.", "Submeter requisicao."},
				Expected:      "Erro de validacao de telefone.",
			}
		},
		BadDocument: func(facts) text {
			return text{
				Title:         "Rejeitar documento invalido",
				Objective:     "Cobrir validacao de CPF/CNPJ.",
				Preconditions: []string{"Campo de documento habilitado."},
				Steps:         []string{"Informar documento fora do padrao.", "Enviar requisicao."},
				Expected:      "Erro de formato/checksum de documento.",
			}
		},
		NoAuth: func(facts) text {
			return text{
				Title:         "Bloquear acesso sem autenticacao",
				Objective:     "Garantir controle de acesso no endpoint.",
				Preconditions: []string{"Endpoint protegido por credencial."},
				Steps:         []string{"Remover token.", "Executar chamada."},
				Expected:      "Resposta 401/403 sem processar a operacao.",
			}
		},
		ExactLength: func(f facts) text {
			return text{
				Title:         fmt.Sprintf("Validar tamanho exato %d", f.Size),
				Objective:     "Cobrir fronteira de tamanho no payload.",
				Preconditions: []string{"Campo textual com regra de tamanho exato."},
				Steps:         []string{boundaryStep("Testar", f)},
				Expected:      fmt.Sprintf("%d aceito, fora do limite rejeitado.", f.Size),
			}
		},
		MinLength: func(f facts) text {
			return text{
				Title:         fmt.Sprintf("Borda inferior minimo %d", f.Size),
				Objective:     "Cobrir limite minimo na API.",
				Preconditions: []string{"Campo com regra minima."},
				Steps:         []string{boundaryStep("Testar", f)},
				Expected:      fmt.Sprintf("Aceitar somente valores >= %d.", f.Size),
			}
		},
		MaxLength: func(f facts) text {
			return text{
				Title:         fmt.Sprintf("Borda superior maximo %d", f.Size),
				Objective:     "Cobrir limite maximo na API.",
				Preconditions: []string{"Campo com regra maxima."},
				Steps:         []string{boundaryStep("Testar", f)},
				Expected:      fmt.Sprintf("Aceitar somente valores <= %d.", f.Size),
			}
		},
		SQLInjection: func(f facts) text {
			return text{
				Title:         "Bloquear SQL Injection",
				Objective:     "Validar protecao contra injecao SQL.",
				Preconditions: []string{"Campo textual disponivel para entrada."},
				Steps:         []string{fmt.Sprintf("Enviar %s no campo %s.", f.Samples.SQLInjection, f.Focus)},
				Expected:      "Sistema bloqueia payload e nao executa comando indevido.",
			}
		},
		XSS: func(f facts) text {
			return text{
				Title:         "Bloquear XSS",
				Objective:     "Validar sanitizacao na camada de API.",
				Preconditions: []string{"Campo textual refletido/armazenado na aplicacao."},
				Steps:         []string{fmt.Sprintf("Enviar %s no campo %s.", f.Samples.XSS, f.Focus), "Processar retorno da API."},
				Expected:      "Payload perigoso tratado sem execucao.",
			}
		},
		Baseline: func(facts) text {
			return text{
				Title:         "Executar baseline de regressao",
				Objective:     "Garantir que alteracoes nao quebraram cenarios antigos.",
				Preconditions: []string{"Suite baseline de API disponivel."},
				Steps:         []string{"Executar cenarios principais anteriores.", "Comparar resultados esperados."},
				Expected:      "Sem regressao funcional apos mudanca de regra.",
			}
		},
	}
}

func frontendWording() wording {
	return wording{
		Surface: schema.SurfaceFrontend,
		Prefix:  "[Frontend]",
		HappyPath: func(facts) text {
			return text{
				Title:         "Fluxo valido com feedback de sucesso",
				Objective:     "Garantir preenchimento e submissao corretos pela UI.",
				Preconditions: []string{"Tela da funcionalidade carregada."},
				Steps:         []string{"Preencher formulario com dados validos.", "Clicar no botao de enviar/salvar.", "Validar feedback visual de sucesso."},
				Expected:      "Tela apresenta sucesso e estado final correto.",
			}
		},
		AllRequired: func(f facts) text {
			return text{
				Title:         "Habilitar envio com obrigatorios preenchidos",
				Objective:     "Validar comportamento de botao e campos obrigatorios.",
				Preconditions: []string{"Formulario com validacao client-side ativa."},
				Steps:         []string{"Preencher: " + strings.Join(f.Signals.Required, ", ") + ".", "Observar estado do botao de enviar."},
				Expected:      "Botao fica habilitado quando os obrigatorios sao validos.",
			}
		},
		MissingRequired: func(f facts) text {
			return text{
				Title:         "Exibir erro de obrigatoriedade: " + f.Field,
				Objective:     "Garantir mensagem inline e acessibilidade do erro.",
				Preconditions: []string{"Formulario carregado."},
				Steps:         []string{"Deixar " + f.Field + " vazio.", "Tentar enviar formulario."},
				Expected:      "Mensagem de obrigatorio exibida junto ao campo e envio bloqueado.",
			}
		},
		BadEmail: func(facts) text {
			return text{
				Title:         "Validar formato de email invalido",
				Objective:     "Exibir erro visual para formato invalido.",
				Preconditions: []string{"Campo de email visivel na tela."},
				Steps:         []string{"Informar usuario@dominio.", "Tentar enviar."},
				Expected:      "Mensagem de formato invalido exibida sem quebrar layout.",
			}
		},
		Duplicate: func(facts) text {
			return text{
				Title:         "Exibir erro de duplicidade retornado pela API",
				Objective:     "Garantir tratamento visual de conflito.",
				Preconditions: []string{"Registro duplicado ja existente."},
				Steps:         []string{"Enviar formulario com dado duplicado.", "Aguardar resposta de conflito."},
				Expected:      "Erro amigavel exibido para o usuario sem travar a tela.",
			}
		},
		BadPhone: func(facts) text {
			return text{
				Title:         "Rejeitar telefone fora do padrao",
				Objective:     "Cobrir mascara e validacao client-side.",
				Preconditions: []string{"Campo de telefone com mascara/validacao."},
				Steps:         []string{"Informar letras/simbolos invalidos.", "Sair do campo e tentar enviar."},
				Expected:      "Erro de validacao exibido e valor invalido bloqueado.",
			}
		},
		BadDocument: func(facts) text {
			return text{
				Title:         "Rejeitar documento invalido na UI",
				Objective:     "Validar formato/checksum em nivel de interface.",
				Preconditions: []string{"Campo de documento disponivel."},
				Steps:         []string{"Informar documento invalido.", "Submeter formulario."},
				Expected:      "Mensagem de erro exibida no campo de documento.",
			}
		},
		NoAuth: func(facts) text {
			return text{
				Title:         "Bloquear fluxo sem autenticacao",
				Objective:     "Garantir protecao de rota e redirecionamento.",
				Preconditions: []string{"Usuario deslogado."},
				Steps:         []string{"Acessar tela protegida."},
				Expected:      "Usuario redirecionado para login ou tela de acesso negado.",
			}
		},
		ExactLength: func(f facts) text {
			return text{
				Title:         fmt.Sprintf("Validar tamanho exato %d no input", f.Size),
				Objective:     "Cobrir mensagens e contador de caracteres na UI.",
				Preconditions: []string{"Campo com restricao de tamanho exato."},
				Steps:         []string{boundaryStep("Digitar", f)},
				Expected:      fmt.Sprintf("%d aceito; demais cenarios exibem erro visual correto.", f.Size),
			}
		},
		MinLength: func(f facts) text {
			return text{
				Title:         fmt.Sprintf("Borda minima %d no campo %s", f.Size, f.Focus),
				Objective:     "Validar comportamento do input no limite inferior.",
				Preconditions: []string{"Campo com validacao de tamanho minimo."},
				Steps:         []string{boundaryStep("Digitar", f)},
				Expected:      "UI sinaliza erro apenas abaixo do minimo.",
			}
		},
		MaxLength: func(f facts) text {
			return text{
				Title:         fmt.Sprintf("Borda maxima %d no campo %s", f.Size, f.Focus),
				Objective:     "Validar limite superior e feedback visual.",
				Preconditions: []string{"Campo com validacao de tamanho maximo."},
				Steps:         []string{boundaryStep("Digitar", f)},
				Expected:      "UI bloqueia/exibe erro para valor acima do maximo.",
			}
		},
		SQLInjection: func(f facts) text {
			return text{
				Title:         "Tratar SQL Injection digitado no formulario",
				Objective:     "Garantir que a UI nao exponha erro de banco ao receber injecao.",
				Preconditions: []string{"Formulario com campo textual disponivel."},
				Steps:         []string{fmt.Sprintf("Informar %s no campo %s.", f.Samples.SQLInjection, f.Focus), "Submeter formulario."},
				Expected:      "Mensagem amigavel exibida sem detalhes tecnicos do banco.",
			}
		},
		XSS: func(f facts) text {
			return text{
				Title:         "Escapar script no render de texto",
				Objective:     "Evitar XSS refletido/armazenado na interface.",
				Preconditions: []string{"Tela renderiza o valor inserido."},
				Steps:         []string{fmt.Sprintf("Informar %s no campo %s.", f.Samples.XSS, f.Focus), "Salvar e reabrir tela."},
				Expected:      "Script exibido como texto e nunca executado.",
			}
		},
		Baseline: func(facts) text {
			return text{
				Title:         "Regressao de validacoes e layout",
				Objective:     "Garantir que mudancas na regra nao quebraram comportamento visual.",
				Preconditions: []string{"Build da interface atualizado."},
				Steps:         []string{"Executar fluxo principal e cenarios de erro.", "Validar mensagens, alinhamento e responsividade."},
				Expected:      "Fluxos antigos permanecem funcionando sem quebra visual.",
			}
		},
	}
}
