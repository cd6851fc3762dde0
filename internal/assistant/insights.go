package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
	"github.com/GleristonCastro/dio-gesinfopro/internal/store"
)

// Insights is the structured analysis of the current month's finances.
type Insights struct {
	Summary         string   `json:"summary"`
	Highlights      []string `json:"highlights"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
	Forecast        string   `json:"forecast"`
}

// MonthlyInsights aggregates the month's totals and asks the generation
// model for an analysis. Generator failures degrade to a deterministic local
// summary; only store failures propagate.
func (a *Assistant) MonthlyInsights(ctx context.Context, userID string) (*Insights, error) {
	monthStart := a.monthStart()
	income, err := a.store.SumByKind(ctx, userID, domain.Income, &monthStart)
	if err != nil {
		return nil, err
	}
	expense, err := a.store.SumByKind(ctx, userID, domain.Expense, &monthStart)
	if err != nil {
		return nil, err
	}
	goals, err := a.store.ListActiveGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	reserved := decimal.Zero
	for _, g := range goals {
		reserved = reserved.Add(g.CurrentAmount)
	}
	balance := income.Sub(expense)

	savingsRate := decimal.Zero
	if income.IsPositive() {
		savingsRate = balance.Div(income).Mul(decimal.NewFromInt(100)).Round(1)
	}

	topCategory := "nenhuma"
	name, total, err := a.store.TopExpenseCategory(ctx, userID, &monthStart)
	switch {
	case err == nil:
		topCategory = fmt.Sprintf("%s (R$ %s)", name, total.StringFixed(2))
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	prompt := fillPrompt(insightsPrompt, map[string]string{
		"totalIncome":    income.StringFixed(2),
		"totalExpense":   expense.StringFixed(2),
		"totalReserved":  reserved.StringFixed(2),
		"currentBalance": balance.StringFixed(2),
		"savingsRate":    savingsRate.String(),
		"topCategory":    topCategory,
	})

	raw, err := a.gen.GenerateJSON(ctx, prompt)
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("insights generation failed, using fallback")
		return fallbackInsights(income, expense, balance, savingsRate), nil
	}

	var insights Insights
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &insights); err != nil || insights.Summary == "" {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("insights response malformed, using fallback")
		return fallbackInsights(income, expense, balance, savingsRate), nil
	}
	return &insights, nil
}

// fallbackInsights is the canned analysis used when the model is
// unavailable or returns garbage.
func fallbackInsights(income, expense, balance, savingsRate decimal.Decimal) *Insights {
	summary := fmt.Sprintf("No mês você registrou R$ %s em receitas e R$ %s em despesas, fechando com saldo de R$ %s.",
		income.StringFixed(2), expense.StringFixed(2), balance.StringFixed(2))

	highlight := "Continue registrando suas transações para acompanhar sua evolução."
	if savingsRate.IsPositive() {
		highlight = fmt.Sprintf("Sua taxa de economia está em %s%% — bom trabalho!", savingsRate.String())
	}

	concern := "Nenhum ponto crítico identificado neste período."
	if balance.IsNegative() {
		concern = "Suas despesas superaram as receitas neste mês; revise os gastos das maiores categorias."
	}

	return &Insights{
		Summary:         summary,
		Highlights:      []string{highlight},
		Concerns:        []string{concern},
		Recommendations: []string{"Defina metas de economia e faça reservas regulares para acompanhar seu progresso."},
		Forecast:        "Mantendo o padrão atual de receitas e despesas, seu saldo deve evoluir de forma semelhante no próximo mês.",
	}
}
