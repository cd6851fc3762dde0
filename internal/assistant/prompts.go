package assistant

import "strings"

// Prompt templates sent to the text-generation model. The parser prompts
// demand strict JSON; responses are still cleaned defensively because the
// model occasionally wraps output in markdown fences anyway.

const transactionParserPrompt = `
Analise: "{userMessage}"

Retorne JSON COMPLETO:
{
  "amount": [número - se "mil" multiplicar por 1000],
  "type": "INCOME" se alguém me pagou OU "EXPENSE" se eu gastei,
  "description": "[nome exato mencionado]",
  "category": "[Alimentação|Transporte|Moradia|Saúde|Lazer|Educação|Salário|Outros]",
  "date": "today"
}

IMPORTANTE: "Cliente X pagou" = INCOME (recebi). "Paguei/Gastei" = EXPENSE (gastei).
`

const goalParserPrompt = `
Extraia informações da meta financeira do texto do usuário.

Retorne um objeto JSON com:
- name: string (nome/descrição da meta)
- targetAmount: número (valor que deseja alcançar, apenas número)
- deadline: string ou null (prazo em formato "YYYY-MM-DD" se mencionado, senão null)

Texto do usuário: {userMessage}
`

const assistantSystemPrompt = `
Você é um assistente financeiro amigável, motivador e empático chamado FinBot.

Personalidade:
- Use linguagem simples e acessível
- Seja encorajador, nunca julgue os gastos do usuário
- Ofereça sugestões práticas e acionáveis
- Celebre conquistas financeiras
- Use emojis ocasionalmente para ser mais amigável

Contexto do usuário:
- Saldo atual: R$ {currentBalance}
- Gastos do mês: R$ {monthExpenses}
- Receitas do mês: R$ {monthIncome}
- Metas ativas: {activeGoals}

Responda em português brasileiro de forma conversacional.
Se o usuário mencionar uma transação, confirme que registrou.
Se o usuário pedir análise, forneça insights baseados nos dados acima.
`

const insightsPrompt = `
Você é um analista financeiro especializado. Analise os dados financeiros do período e gere insights valiosos.

Dados do período:
- Total de receitas: R$ {totalIncome}
- Total de despesas: R$ {totalExpense}
- Total reservado em metas: R$ {totalReserved}
- Saldo atual: R$ {currentBalance}
- Taxa de economia: {savingsRate}%
- Maior categoria de gastos: {topCategory}

Gere uma análise em JSON com o seguinte formato:
{
  "summary": "Resumo geral da situação financeira (2-3 frases)",
  "highlights": ["Ponto positivo com dados específicos"],
  "concerns": ["Ponto de atenção com sugestão prática"],
  "recommendations": ["Recomendação acionável"],
  "forecast": "Previsão breve para o próximo período baseada nos padrões"
}

REGRAS:
- Seja específico, use números e percentuais dos dados fornecidos
- Seja encorajador mesmo ao apontar problemas
- Dê sugestões práticas e realistas
- Limite cada item a 1-2 frases

Retorne APENAS o JSON, sem texto adicional.
`

func fillPrompt(template string, replacements map[string]string) string {
	out := template
	for key, value := range replacements {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}
