package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/model"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var defaultDateColumns = []string{"Data", "DATA"}

// builtinDashboards are the boards the team already runs. Users can
// override any field or add new boards under the dashboards key.
func builtinDashboards() map[string]model.Dashboard {
	boards := []model.Dashboard{
		{
			Name:            "vendas",
			Title:           "Vendas",
			SpreadsheetID:   "1IwtjjLQRiyqfCADbnCX-jditUecvtlpHT1svy0JN3ls",
			SheetName:       "2025",
			Range:           "2025!A:I",
			GroupColumn:     "VENDEDOR",
			PrimaryMetric:   "leads",
			RefreshInterval: 30 * time.Second,
			Metrics: metrics(
				"LEADS", "COTAÇÃO DIÁRIA", "LIGAÇÃO DIÁRIA", "FOLLOW UP",
				"CONTRATOS - DIÁRIO", "FATURAMENTO", "QUALIFICAÇÃO", "FEEDBACK",
			),
		},
		{
			Name:            "adm",
			Title:           "Administrativo",
			SpreadsheetID:   "19eH7lt-HX3XXD3bvh6_oBHrIoS9UME2UR7r74FAJ-oU",
			SheetName:       "2025",
			RefreshInterval: 60 * time.Second,
			Metrics: metrics(
				"ATIVIDADE DIÁRIA", "NOVA PROPOSTA", "PEND ASSINATURA", "EM ANÁLISE",
				"PENDÊNCIA", "ENTREVISTA MÉDICA", "BOLETO", "IMPLANTADA",
				"DESISTIU", "ERRO DE VENDAS", "DECLINADA",
			),
		},
		{
			Name:            "rh",
			Title:           "Recursos Humanos",
			SpreadsheetID:   "1lrpFiG9QCS_lWuy_RE8kGZ9SowbSQjYdRYR086C_fxM",
			SheetName:       "2025",
			RefreshInterval: 30 * time.Second,
			Metrics: metrics(
				"ATENDIMENTO", "ENTREVISTA AGENDADA", "ENTREVISTA REALIZADA",
				"APROVADO", "REPROVADOS",
			),
		},
		{
			Name:            "custom_success",
			Title:           "Customer Success",
			SpreadsheetID:   "1zqBau-zlqhgFb8ifl9X1qcLc-DtJhNw5-NtVcOGk3qc",
			SheetName:       "2025",
			RefreshInterval: 30 * time.Second,
			Metrics: metrics(
				"ATIVIDADE DIÁRIA", "OPORTUNIDADE", "INDICAÇÃO", "NOVO CLIENTE",
				"1 CONTATO", "RELACIONAMENTO", "ENVIO DE BOLETO", "SUPORTE",
				"INADIMPLENTE", "INSATISFEITO", "DESISTIU", "DUPLICADO",
				"RENOVAÇÃO", "CANCELADA",
			),
		},
		{
			Name:            "suporte",
			Title:           "Suporte",
			SpreadsheetID:   "19TdHUfkCIXzm4niGvC3JT95JRmUPz9-0sF7iCmBpGZ8",
			SheetName:       "2025",
			RefreshInterval: 30 * time.Second,
			Metrics: metrics(
				"ATIVIDADE DIÁRIA", "NOVA SOLICITAÇÃO", "NORMAL", "CONCLUÍDO", "URGENTE",
			),
		},
		{
			Name:            "retencao",
			Title:           "Retenção",
			SpreadsheetID:   "1GUkqFhUTVLFVNiYIp3aBnAKerjZF26CkIwKwSlfs4Xw",
			SheetName:       "2025",
			RefreshInterval: 30 * time.Second,
			Metrics: metrics(
				"NOVO CONTATO", "OPORTUNIDADE", "COTAÇÃO", "FOLLOW UP", "FECHAMENTO",
				"VITALÍCIO", "PLANO DE SAÚDE", "PLANO ODONTO", "SEGURO VIDA",
				"SEM INTERESSE", "REATIVADO",
			),
		},
		{
			Name:            "financeiro",
			Title:           "Financeiro",
			SpreadsheetID:   "1yNtfhoSM_RlrDfH8OCCwkzwvsz7ZBmPiPS1RWvWa8eE",
			SheetName:       "2025",
			RefreshInterval: 30 * time.Second,
			Metrics: metrics(
				"ATIVIDADE DIÁRIA", "NOVA PROPOSTA", "STATUS PROPOSTA",
				"CLIENTE INADIMPLENTE", "CLIENTE ADIMPLENTE", "DATA VENCIMENTO",
				"COBRANÇA PARCELA", "NOTA FISCAL", "ESTORNO",
			),
		},
		{
			Name:            "minafit",
			Title:           "Minafit Vendas",
			SpreadsheetID:   "1OQkhC8Hme84i3VvnDuIiNERi4CUDByHPsBkNJ66RUMc",
			SheetName:       "Dashboard",
			GroupColumn:     "Responsável",
			RefreshInterval: 60 * time.Second,
			Metrics: metrics(
				"Reunião Agendada", "Reunião Realizada", "Quantidade de Ligação", "Valor Ganho",
			),
		},
	}

	out := make(map[string]model.Dashboard, len(boards))
	for _, b := range boards {
		b.DateColumns = append([]string(nil), defaultDateColumns...)
		out[b.Name] = b
	}
	return out
}

func metrics(columns ...string) []model.Metric {
	return lo.Map(columns, func(c string, _ int) model.Metric {
		return model.Metric{Key: MetricKey(c), Column: c, Title: title(c)}
	})
}

// MetricKey turns a column header into a stable ASCII key, so
// "COTAÇÃO DIÁRIA" becomes "cotacao_diaria".
func MetricKey(column string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, column)
	if err != nil {
		folded = column
	}

	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func title(column string) string {
	words := strings.Fields(strings.ToLower(column))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Catalog is the set of dashboards available to the commands.
type Catalog struct {
	boards map[string]model.Dashboard
}

// NewCatalog validates the dashboards and indexes them by name.
func NewCatalog(boards ...model.Dashboard) (*Catalog, error) {
	c := &Catalog{boards: make(map[string]model.Dashboard, len(boards))}
	for _, b := range boards {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
		}
		c.boards[b.Name] = b
	}
	return c, nil
}

// LoadDashboards merges the built-in boards with the dashboards section of
// the configuration. Fields set in the configuration replace the built-in
// values; unknown names add new boards.
func LoadDashboards(v *viper.Viper) (*Catalog, error) {
	boards := builtinDashboards()

	for name := range v.GetStringMap("dashboards") {
		board, ok := boards[name]
		if !ok {
			board = model.Dashboard{DateColumns: append([]string(nil), defaultDateColumns...)}
		}
		// Lists in the configuration replace the built-in lists whole.
		key := "dashboards." + name
		if v.IsSet(key + ".metrics") {
			board.Metrics = nil
		}
		if v.IsSet(key + ".date_columns") {
			board.DateColumns = nil
		}
		if v.IsSet(key + ".category_columns") {
			board.CategoryColumns = nil
		}
		if err := v.UnmarshalKey(key, &board); err != nil {
			return nil, fmt.Errorf("%w: dashboard %s: %w", common.ErrInvalidConfig, name, err)
		}
		board.Name = name
		if board.Title == "" {
			board.Title = title(strings.ReplaceAll(name, "_", " "))
		}
		for i, m := range board.Metrics {
			if m.Key == "" {
				board.Metrics[i].Key = MetricKey(m.Column)
			}
			if m.Title == "" {
				board.Metrics[i].Title = title(m.Column)
			}
		}
		boards[name] = board
	}

	return NewCatalog(lo.Values(boards)...)
}

// Names returns the dashboard names in alphabetical order.
func (c *Catalog) Names() []string {
	names := lo.Keys(c.boards)
	sort.Strings(names)
	return names
}

// All returns every dashboard ordered by name.
func (c *Catalog) All() []model.Dashboard {
	return lo.Map(c.Names(), func(n string, _ int) model.Dashboard {
		return c.boards[n]
	})
}

// Get looks a dashboard up by name.
func (c *Catalog) Get(name string) (model.Dashboard, error) {
	b, ok := c.boards[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return model.Dashboard{}, fmt.Errorf("%w: %q (available: %s)",
			common.ErrUnknownDashboard, name, strings.Join(c.Names(), ", "))
	}
	return b, nil
}
