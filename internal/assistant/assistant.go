// Package assistant implements the conversational engine: it classifies each
// user message, extracts or parses the structured operation it describes,
// validates it against the ledger and performs the resulting mutation, or
// falls back to free-form chat.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
	"github.com/GleristonCastro/dio-gesinfopro/internal/store"
)

// defaultCategory receives reservation and withdrawal transactions.
const defaultCategory = "Outros"

// Assistant is the message orchestrator. One instance serves all owners;
// every call is an independent request-scoped operation whose only memory is
// the persisted chat history.
type Assistant struct {
	store  *store.Store
	parser *Parser
	gen    Generator
	log    zerolog.Logger
	now    func() time.Time
}

// New creates an Assistant over the given store and text generator.
func New(st *store.Store, gen Generator, log zerolog.Logger) *Assistant {
	return &Assistant{
		store:  st,
		parser: NewParser(gen),
		gen:    gen,
		log:    log,
		now:    time.Now,
	}
}

// Reply is the outcome of one handled message. The side-effect flags let the
// presentation layer refresh derived views; the pending payloads describe a
// prompt awaiting the user's next turn.
type Reply struct {
	Text               string                            `json:"message"`
	TransactionCreated bool                              `json:"transactionCreated,omitempty"`
	GoalCreated        bool                              `json:"goalCreated,omitempty"`
	NeedsConfirmation  bool                              `json:"needsConfirmation,omitempty"`
	NeedsGoalCreation  bool                              `json:"needsGoalCreation,omitempty"`
	SuggestedGoal      string                            `json:"suggestedGoal,omitempty"`
	ReservationAmount  *decimal.Decimal                  `json:"reservationAmount,omitempty"`
	PendingReservation *domain.PendingReservationConfirm `json:"pendingReservation,omitempty"`
	PendingTransaction *domain.PendingTransactionConfirm `json:"pendingTransaction,omitempty"`

	// pending is persisted with the assistant message so the next turn can
	// resume it.
	pending *domain.PendingIntent
}

// HandleMessage processes one user message end to end: persist the user
// turn, resume any pending prompt or classify and execute the intent, then
// persist the assistant turn. Errors are collaborator failures; the caller
// turns them into a generic apology.
func (a *Assistant) HandleMessage(ctx context.Context, userID, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("assistant: empty message")
	}

	userMsg := &domain.ChatMessage{UserID: userID, Role: domain.RoleUser, Content: message}
	if err := a.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	reply, err := a.dispatch(ctx, userID, message)
	if err != nil {
		return nil, err
	}

	assistantMsg := &domain.ChatMessage{
		UserID:  userID,
		Role:    domain.RoleAssistant,
		Content: reply.Text,
		Pending: reply.pending,
	}
	if err := a.store.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}
	return reply, nil
}

func (a *Assistant) dispatch(ctx context.Context, userID, message string) (*Reply, error) {
	pending, err := a.pendingFromHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		reply, handled, err := a.resumePending(ctx, userID, message, pending)
		if err != nil {
			return nil, err
		}
		if handled {
			return reply, nil
		}
	}

	intent := Classify(message)
	a.log.Debug().Str("user_id", userID).Stringer("intent", intent).Msg("message classified")

	switch intent {
	case IntentWithdrawal:
		return a.handleWithdrawal(ctx, userID, message)
	case IntentReservation:
		return a.handleReservation(ctx, userID, message)
	case IntentGoal:
		return a.handleGoal(ctx, userID, message)
	case IntentTransaction:
		return a.handleTransaction(ctx, userID, message)
	default:
		return a.handleConversation(ctx, userID, message)
	}
}

func (a *Assistant) handleTransaction(ctx context.Context, userID, message string) (*Reply, error) {
	parsed, err := a.parser.ParseTransaction(ctx, message)
	if err != nil {
		if errors.Is(err, ErrUnparseable) {
			a.log.Warn().Err(err).Str("user_id", userID).Msg("transaction not parseable")
			return &Reply{Text: replyTransactionClarification}, nil
		}
		return nil, err
	}

	if parsed.Kind == domain.Expense {
		balance, err := a.store.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
		if balance.LessThan(parsed.Amount) {
			pending := &domain.PendingIntent{
				Kind: domain.PendingTransactionConfirmKind,
				TransactionConfirm: &domain.PendingTransactionConfirm{
					Amount:      parsed.Amount,
					Kind:        parsed.Kind,
					Description: parsed.Description,
					Category:    parsed.Category,
					Date:        parsed.Date,
					Available:   balance,
				},
			}
			return &Reply{
				Text:               replyExpenseExceedsBalance(parsed.Amount, balance),
				NeedsConfirmation:  true,
				PendingTransaction: pending.TransactionConfirm,
				pending:            pending,
			}, nil
		}
	}

	category, err := a.store.FindOrCreateCategory(ctx, userID, parsed.Category)
	if err != nil {
		return nil, err
	}

	// An expense whose description or raw message mentions an active goal's
	// name counts toward that goal. First match wins.
	var linked *domain.Goal
	if parsed.Kind == domain.Expense {
		goals, err := a.store.ListActiveGoals(ctx, userID)
		if err != nil {
			return nil, err
		}
		descLower := strings.ToLower(parsed.Description)
		msgLower := strings.ToLower(message)
		for _, g := range goals {
			name := strings.ToLower(g.Name)
			if strings.Contains(descLower, name) || strings.Contains(msgLower, name) {
				linked = g
				break
			}
		}
	}

	tx := &domain.Transaction{
		UserID:      userID,
		Amount:      parsed.Amount,
		Kind:        parsed.Kind,
		Description: parsed.Description,
		CategoryID:  &category.ID,
		Date:        parsed.Date,
	}
	if linked != nil {
		tx.GoalID = &linked.ID
	}
	if err := a.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	if linked != nil {
		if _, err := a.store.AddToGoalAmount(ctx, linked.ID, parsed.Amount); err != nil {
			return nil, err
		}
		if linked, err = a.store.MarkGoalCompletedIfTargetMet(ctx, linked.ID); err != nil {
			return nil, err
		}
	}

	return &Reply{Text: replyTransactionRecorded(parsed, category.Name, linked), TransactionCreated: true}, nil
}

func (a *Assistant) handleGoal(ctx context.Context, userID, message string) (*Reply, error) {
	parsed, err := a.parser.ParseGoal(ctx, message)
	if err != nil {
		if errors.Is(err, ErrUnparseable) {
			a.log.Warn().Err(err).Str("user_id", userID).Msg("goal not parseable")
			return &Reply{Text: replyGoalClarification}, nil
		}
		return nil, err
	}

	existing, err := a.store.FindActiveGoalByName(ctx, userID, parsed.Name)
	if err == nil {
		return &Reply{Text: replyGoalAlreadyExists(existing)}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	goal := &domain.Goal{
		UserID:        userID,
		Name:          parsed.Name,
		TargetAmount:  parsed.TargetAmount,
		CurrentAmount: decimal.Zero,
		Deadline:      parsed.Deadline,
	}
	if err := a.store.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return &Reply{Text: replyGoalCreated(goal), GoalCreated: true}, nil
}

func (a *Assistant) handleReservation(ctx context.Context, userID, message string) (*Reply, error) {
	slots, ok := reservationExtractor.Extract(message)
	if !ok {
		return &Reply{Text: replyReservationClarification}, nil
	}

	balance, err := a.store.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	goal, err := a.store.FindActiveGoalByName(ctx, userID, slots.Target)
	if errors.Is(err, store.ErrNotFound) {
		// Offer to create the goal; the next turn resumes with the
		// reservation amount carried along.
		pending := &domain.PendingIntent{
			Kind: domain.PendingGoalCreationKind,
			GoalCreation: &domain.PendingGoalCreation{
				Name:              slots.Target,
				ReservationAmount: slots.Amount,
			},
		}
		amount := slots.Amount
		return &Reply{
			Text:              replyOfferGoalCreation(slots.Target, slots.Amount),
			NeedsGoalCreation: true,
			SuggestedGoal:     slots.Target,
			ReservationAmount: &amount,
			pending:           pending,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if balance.LessThan(slots.Amount) {
		pending := &domain.PendingIntent{
			Kind: domain.PendingReservationConfirmKind,
			ReservationConfirm: &domain.PendingReservationConfirm{
				GoalID:    goal.ID,
				GoalName:  goal.Name,
				Requested: slots.Amount,
				Available: balance,
			},
		}
		return &Reply{
			Text:               replyReservationExceedsBalance(goal.Name, slots.Amount, balance),
			NeedsConfirmation:  true,
			PendingReservation: pending.ReservationConfirm,
			pending:            pending,
		}, nil
	}

	updated, err := a.reserve(ctx, userID, goal, slots.Amount)
	if err != nil {
		return nil, err
	}
	return &Reply{Text: replyReservationDone(updated, slots.Amount), TransactionCreated: true}, nil
}

func (a *Assistant) handleWithdrawal(ctx context.Context, userID, message string) (*Reply, error) {
	slots, ok := withdrawalExtractor.Extract(message)
	if !ok {
		return &Reply{Text: replyWithdrawalClarification}, nil
	}

	goal, err := a.store.FindActiveGoalByName(ctx, userID, slots.Target)
	if errors.Is(err, store.ErrNotFound) {
		return &Reply{Text: replyGoalNotFound(slots.Target)}, nil
	}
	if err != nil {
		return nil, err
	}

	if goal.CurrentAmount.LessThan(slots.Amount) {
		return &Reply{Text: replyWithdrawalExceedsReserved(goal, slots.Amount)}, nil
	}

	// Decrement first: the store rejects any delta that would leave the goal
	// negative, so a concurrent withdrawal cannot overdraw it.
	updated, err := a.store.AddToGoalAmount(ctx, goal.ID, slots.Amount.Neg())
	if errors.Is(err, store.ErrGoalFundsExceeded) {
		return &Reply{Text: replyWithdrawalExceedsReserved(goal, slots.Amount)}, nil
	}
	if err != nil {
		return nil, err
	}

	category, err := a.store.FindOrCreateCategory(ctx, userID, defaultCategory)
	if err != nil {
		return nil, restoreGoalOnError(ctx, a, goal.ID, slots.Amount, err)
	}
	tx := &domain.Transaction{
		UserID:      userID,
		Amount:      slots.Amount,
		Kind:        domain.Income,
		Description: "Retirada da meta " + goal.Name,
		CategoryID:  &category.ID,
		GoalID:      &goal.ID,
		Date:        a.now(),
	}
	if err := a.store.CreateTransaction(ctx, tx); err != nil {
		return nil, restoreGoalOnError(ctx, a, goal.ID, slots.Amount, err)
	}

	return &Reply{Text: replyWithdrawalDone(updated, slots.Amount), TransactionCreated: true}, nil
}

// restoreGoalOnError re-adds a decremented amount when the paired ledger
// entry could not be written, so the goal never loses funds without a
// transaction recording the movement.
func restoreGoalOnError(ctx context.Context, a *Assistant, goalID string, amount decimal.Decimal, cause error) error {
	if _, err := a.store.AddToGoalAmount(ctx, goalID, amount); err != nil {
		a.log.Error().Err(err).Str("goal_id", goalID).Msg("failed to restore goal amount")
	}
	return cause
}

func (a *Assistant) handleConversation(ctx context.Context, userID, message string) (*Reply, error) {
	monthStart := a.monthStart()
	income, err := a.store.SumByKind(ctx, userID, domain.Income, &monthStart)
	if err != nil {
		return nil, err
	}
	expense, err := a.store.SumByKind(ctx, userID, domain.Expense, &monthStart)
	if err != nil {
		return nil, err
	}
	goals, err := a.store.CountActiveGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	system := fillPrompt(assistantSystemPrompt, map[string]string{
		"currentBalance": income.Sub(expense).StringFixed(2),
		"monthExpenses":  expense.StringFixed(2),
		"monthIncome":    income.StringFixed(2),
		"activeGoals":    fmt.Sprintf("%d", goals),
	})

	history, err := a.recentHistory(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	prompt := system + "\n\nHistórico recente:\n" + history + "\n\nUsuário: " + message + "\n\nAssistente:"

	text, err := a.gen.GenerateText(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		// The chat path degrades to a canned reply instead of failing.
		a.log.Warn().Err(err).Str("user_id", userID).Msg("chat generation failed, using fallback")
		return &Reply{Text: replyFallback}, nil
	}
	return &Reply{Text: strings.TrimSpace(text)}, nil
}

// recentHistory renders the last turns before the current message, oldest
// first, in the "Usuário:/Assistente:" form the chat prompt expects.
func (a *Assistant) recentHistory(ctx context.Context, userID string, turns int) (string, error) {
	msgs, err := a.store.RecentMessages(ctx, userID, turns+1)
	if err != nil {
		return "", err
	}
	if len(msgs) <= 1 {
		return "", nil
	}
	msgs = msgs[1:] // drop the current user message

	var b strings.Builder
	for i := len(msgs) - 1; i >= 0; i-- {
		speaker := "Usuário"
		if msgs[i].Role == domain.RoleAssistant {
			speaker = "Assistente"
		}
		b.WriteString(speaker + ": " + msgs[i].Content + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (a *Assistant) monthStart() time.Time {
	now := a.now()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}
