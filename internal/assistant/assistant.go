package assistant

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Message is one turn of the conversation, as the API exchanges it.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Assistant answers product questions about the app in Portuguese. It holds
// no per-conversation state; the caller resends the history on every turn.
type Assistant struct {
	client *genai.Client
	model  string
}

// New creates an assistant with a fresh genai client. Credentials come from
// the environment, same as the insight generator.
func New(ctx context.Context, model string) (*Assistant, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: create genai client: %w", err)
	}
	return &Assistant{client: client, model: model}, nil
}

const systemPrompt = `Você é o assistente virtual do Équilibra, um hub financeiro para universitários que trabalham.

SOBRE O ÉQUILIBRA:
- App para gerenciar finanças separando gastos de Trabalho e Pessoais
- Previsão de saldo usando Regressão Linear
- Insights automáticos sobre gastos
- Sistema de Metas por categoria
- Ofertas personalizadas (cashback, seguros, empréstimos)

ATALHOS DISPONÍVEIS (use o formato [ATALHO:nome]):
- [ATALHO:dashboard] - Ir para Dashboard
- [ATALHO:extrato] - Ver Extrato completo
- [ATALHO:insights] - Ver Insights
- [ATALHO:metas] - Gerenciar Metas
- [ATALHO:ofertas] - Ver Ofertas personalizadas
- [ATALHO:preferencias] - Configurações

FUNCIONALIDADES:
1. Dashboard: Saldo atual, previsão de fim de mês, gráficos de gastos
2. Extrato: Histórico de transações com filtros
3. Insights: análise automática dos seus gastos com dicas
4. Metas: Defina limites de gastos por categoria
5. Ofertas: Cashback, seguros e empréstimos personalizados

MODO TRABALHO vs PESSOAL:
- Toggle no topo alterna entre gastos de trabalho e pessoais
- Todas as visualizações respeitam esse filtro

Seja conciso, amigável e sempre sugira atalhos relevantes. Responda em português brasileiro.`

// Chat sends the conversation to the model and returns its reply.
func (a *Assistant) Chat(ctx context.Context, history []Message, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if strings.EqualFold(m.Role, "assistant") || strings.EqualFold(m.Role, string(genai.RoleModel)) {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
		MaxOutputTokens:   500,
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("assistant chat: generate content: %w", err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("assistant chat: empty response from model")
	}
	return reply, nil
}
