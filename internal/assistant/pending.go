package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

// confirmRe matches an affirmative reply to the goal-creation offer:
// "Sim, criar meta de 2000", "1", "quero", "criar com 500".
var confirmRe = regexp.MustCompile(`(?i)^(?:sim|1|criar|quero|\d)`)

// pendingFromHistory returns the pending intent of the immediately previous
// assistant turn, if any. The current user message is already persisted, so
// it is the newest entry and the prior assistant turn sits right behind it.
func (a *Assistant) pendingFromHistory(ctx context.Context, userID string) (*domain.PendingIntent, error) {
	msgs, err := a.store.RecentMessages(ctx, userID, 2)
	if err != nil {
		return nil, err
	}
	if len(msgs) < 2 || msgs[1].Role != domain.RoleAssistant {
		return nil, nil
	}
	return msgs[1].Pending, nil
}

// resumePending tries to interpret the message as a reply to a pending
// prompt. handled=false means the message did not answer the prompt and
// should go through normal classification instead.
func (a *Assistant) resumePending(ctx context.Context, userID, message string, p *domain.PendingIntent) (*Reply, bool, error) {
	switch p.Kind {
	case domain.PendingGoalCreationKind:
		if p.GoalCreation == nil {
			return nil, false, nil
		}
		return a.resumeGoalCreation(ctx, userID, message, p.GoalCreation)
	case domain.PendingReservationConfirmKind:
		if p.ReservationConfirm == nil {
			return nil, false, nil
		}
		return a.resumeReservationConfirm(ctx, userID, message, p.ReservationConfirm)
	case domain.PendingTransactionConfirmKind:
		if p.TransactionConfirm == nil {
			return nil, false, nil
		}
		return a.resumeTransactionConfirm(ctx, userID, message, p.TransactionConfirm)
	}
	return nil, false, nil
}

// resumeGoalCreation handles "Sim, criar meta de 2000" after the assistant
// offered to create a goal. The offer carries the suggested name and, when
// it came from a reservation attempt, the amount to reserve right away.
func (a *Assistant) resumeGoalCreation(ctx context.Context, userID, message string, p *domain.PendingGoalCreation) (*Reply, bool, error) {
	trimmed := strings.TrimSpace(message)
	if !confirmRe.MatchString(trimmed) {
		return nil, false, nil
	}
	m := amountRe.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, false, nil
	}
	target, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil || !target.IsPositive() {
		return nil, false, nil
	}

	goal := &domain.Goal{
		UserID:        userID,
		Name:          p.Name,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
	}
	if err := a.store.CreateGoal(ctx, goal); err != nil {
		return nil, true, err
	}

	if !p.ReservationAmount.IsPositive() {
		return &Reply{Text: replyGoalCreatedPlain(goal), GoalCreated: true}, true, nil
	}

	// A reservation was waiting for this goal to exist; apply it now if the
	// balance allows.
	balance, err := a.store.Balance(ctx, userID)
	if err != nil {
		return nil, true, err
	}
	if balance.LessThan(p.ReservationAmount) {
		return &Reply{
			Text:        replyGoalCreatedReservationShort(goal, p.ReservationAmount, balance),
			GoalCreated: true,
		}, true, nil
	}

	updated, err := a.reserve(ctx, userID, goal, p.ReservationAmount)
	if err != nil {
		return nil, true, err
	}
	return &Reply{
		Text:               replyGoalCreatedWithReservation(updated, p.ReservationAmount),
		GoalCreated:        true,
		TransactionCreated: true,
	}, true, nil
}

// resumeReservationConfirm handles the numbered reply to "saldo
// insuficiente" on a reservation: 1 reserves only the available balance,
// 2 waits.
func (a *Assistant) resumeReservationConfirm(ctx context.Context, userID, message string, p *domain.PendingReservationConfirm) (*Reply, bool, error) {
	switch option(message) {
	case "1":
		if !p.Available.IsPositive() {
			return &Reply{Text: replyReservationCancelled()}, true, nil
		}
		goal, err := a.store.GetGoal(ctx, p.GoalID)
		if err != nil {
			return nil, true, err
		}
		updated, err := a.reserve(ctx, userID, goal, p.Available)
		if err != nil {
			return nil, true, err
		}
		return &Reply{Text: replyReservationDone(updated, p.Available), TransactionCreated: true}, true, nil
	case "2":
		return &Reply{Text: replyReservationCancelled()}, true, nil
	}
	return nil, false, nil
}

// resumeTransactionConfirm handles the numbered reply to "saldo
// insuficiente" on a plain expense: 1 records anyway, 2 records only the
// available amount, 3 cancels.
func (a *Assistant) resumeTransactionConfirm(ctx context.Context, userID, message string, p *domain.PendingTransactionConfirm) (*Reply, bool, error) {
	record := func(amount decimal.Decimal) (*Reply, bool, error) {
		category, err := a.store.FindOrCreateCategory(ctx, userID, p.Category)
		if err != nil {
			return nil, true, err
		}
		tx := &domain.Transaction{
			UserID:      userID,
			Amount:      amount,
			Kind:        p.Kind,
			Description: p.Description,
			CategoryID:  &category.ID,
			Date:        p.Date,
		}
		if err := a.store.CreateTransaction(ctx, tx); err != nil {
			return nil, true, err
		}
		parsed := &ParsedTransaction{Amount: amount, Kind: p.Kind, Description: p.Description, Category: p.Category, Date: p.Date}
		return &Reply{Text: replyTransactionRecorded(parsed, category.Name, nil), TransactionCreated: true}, true, nil
	}

	switch option(message) {
	case "1":
		return record(p.Amount)
	case "2":
		if !p.Available.IsPositive() {
			return &Reply{Text: replyTransactionCancelled()}, true, nil
		}
		return record(p.Available)
	case "3":
		return &Reply{Text: replyTransactionCancelled()}, true, nil
	}
	return nil, false, nil
}

// option returns the leading option digit of a numbered reply, or "".
func option(message string) string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return ""
	}
	switch trimmed[0] {
	case '1', '2', '3':
		return string(trimmed[0])
	}
	return ""
}

// reserve moves amount from the available balance into the goal: an EXPENSE
// transaction linked to the goal, the accumulated-amount increment, then the
// completion check. Returns the goal as it stands afterwards.
func (a *Assistant) reserve(ctx context.Context, userID string, goal *domain.Goal, amount decimal.Decimal) (*domain.Goal, error) {
	category, err := a.store.FindOrCreateCategory(ctx, userID, defaultCategory)
	if err != nil {
		return nil, err
	}
	tx := &domain.Transaction{
		UserID:      userID,
		Amount:      amount,
		Kind:        domain.Expense,
		Description: "Reserva para " + goal.Name,
		CategoryID:  &category.ID,
		GoalID:      &goal.ID,
		Date:        a.now(),
	}
	if err := a.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	if _, err := a.store.AddToGoalAmount(ctx, goal.ID, amount); err != nil {
		return nil, fmt.Errorf("assistant: reserve: %w", err)
	}
	updated, err := a.store.MarkGoalCompletedIfTargetMet(ctx, goal.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}
