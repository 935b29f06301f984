package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/equilibra/equilibra/internal/domain"
)

// GeminiGenerator is the remote strategy: it hands the aggregated financial
// context to Gemini and persists whatever structured insights come back.
// One attempt only; callers surface a failure as a transient error.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates the remote generator with a fresh genai client.
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

const geminiSystemPrompt = `Você é um analista financeiro especializado do Équilibra, uma plataforma para estudantes e jovens profissionais brasileiros.

Analise os dados financeiros e gere de 3 a 5 insights personalizados:
- Seja ESPECÍFICO com números e percentuais reais
- Misture tipos: alertas (problemas), oportunidades (melhorias) e informações (padrões)
- Use emojis relevantes nos títulos
- Seja direto, prático e motivador

Responda APENAS com um array JSON, sem comentários e sem cercas de Markdown.
Cada objeto deve ter os campos:
- "titulo": string
- "mensagem": string
- "tipo": "alerta" | "oportunidade" | "informacao"
- "origem": "regressao_linear" | "arvore_decisao" | "heuristica"
- "prioridade": 1 (urgente), 2 (importante) ou 3 (informativo)
A resposta deve começar com "[" e terminar com "]".`

// Generate implements Generator via a single Gemini call.
func (g *GeminiGenerator) Generate(ctx context.Context, snap Snapshot) ([]domain.Insight, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: geminiSystemPrompt + "\n\n" + buildFinancialContext(snap)},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("gemini generate: empty response from model")
	}

	var payload []struct {
		Titulo     string `json:"titulo"`
		Mensagem   string `json:"mensagem"`
		Tipo       string `json:"tipo"`
		Origem     string `json:"origem"`
		Prioridade int    `json:"prioridade"`
	}
	clean := cleanModelJSON(rawText)
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, fmt.Errorf("gemini generate: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	out := make([]domain.Insight, 0, len(payload))
	for _, p := range payload {
		if p.Titulo == "" || p.Mensagem == "" {
			continue
		}
		out = append(out, domain.Insight{
			Title:    p.Titulo,
			Message:  p.Mensagem,
			Kind:     normalizeKind(p.Tipo),
			Source:   normalizeSource(p.Origem),
			Priority: clampPriority(p.Prioridade),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("gemini generate: no usable insights in response")
	}
	return out, nil
}

// buildFinancialContext renders the snapshot as the prompt context: overall
// totals, the top five spend categories and the ten most recent entries.
func buildFinancialContext(snap Snapshot) string {
	agg := Aggregate(snap.Window, snap.Now)

	modeLabel := "Pessoal"
	if snap.Mode == domain.ModeWork {
		modeLabel = "Trabalho"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Análise Financeira do Usuário (Modo: %s):\n\n", modeLabel)
	b.WriteString("RESUMO GERAL:\n")
	fmt.Fprintf(&b, "- Saldo atual: %s\n", domain.FormatBRL(snap.Balance))
	fmt.Fprintf(&b, "- Total de gastos (30 dias): %s\n", domain.FormatBRL(agg.TotalOutflow))
	fmt.Fprintf(&b, "- Total de entradas (30 dias): %s\n", domain.FormatBRL(agg.TotalInflow))
	if agg.TotalInflow.IsPositive() {
		ratio, _ := agg.TotalOutflow.Div(agg.TotalInflow).Float64()
		fmt.Fprintf(&b, "- Taxa de consumo: %s\n", domain.FormatPercent(ratio))
	} else {
		b.WriteString("- Taxa de consumo: N/A\n")
	}

	b.WriteString("\nTOP 5 CATEGORIAS DE GASTOS:\n")
	for i, cat := range topCategories(agg, 5) {
		share := 0.0
		if agg.TotalOutflow.IsPositive() {
			share, _ = agg.OutflowByCategory[cat].Div(agg.TotalOutflow).Float64()
		}
		fmt.Fprintf(&b, "%d. %s: %s (%s)\n", i+1, cat, domain.FormatBRL(agg.OutflowByCategory[cat]), domain.FormatPercent(share))
	}

	b.WriteString("\nHISTÓRICO DE TRANSAÇÕES (últimas 10):\n")
	window := snap.Window
	if len(window) > 10 {
		window = window[len(window)-10:]
	}
	for _, tx := range window {
		label := "❌ Saída"
		if !tx.IsOutflow() {
			label = "✅ Entrada"
		}
		fmt.Fprintf(&b, "- %s: %s em %s (%s)\n", label, domain.FormatBRL(tx.Amount), tx.Category, tx.OccurredAt.Format("02/01/2006"))
	}

	return b.String()
}

func topCategories(agg Aggregates, n int) []string {
	cats := sortedCategories(agg.OutflowByCategory)
	sort.SliceStable(cats, func(i, j int) bool {
		return agg.OutflowByCategory[cats[i]].GreaterThan(agg.OutflowByCategory[cats[j]])
	})
	if len(cats) > n {
		cats = cats[:n]
	}
	return cats
}

func normalizeKind(s string) domain.InsightKind {
	switch domain.InsightKind(strings.ToLower(strings.TrimSpace(s))) {
	case domain.KindAlert:
		return domain.KindAlert
	case domain.KindOpportunity:
		return domain.KindOpportunity
	default:
		return domain.KindInfo
	}
}

func normalizeSource(s string) domain.InsightSource {
	switch domain.InsightSource(strings.ToLower(strings.TrimSpace(s))) {
	case domain.SourceLinearTrend:
		return domain.SourceLinearTrend
	case domain.SourceRuleEvaluator:
		return domain.SourceRuleEvaluator
	default:
		return domain.SourceHeuristic
	}
}

func clampPriority(p int) int {
	if p < domain.PriorityUrgent {
		return domain.PriorityUrgent
	}
	if p > domain.PriorityInformational {
		return domain.PriorityInformational
	}
	return p
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
