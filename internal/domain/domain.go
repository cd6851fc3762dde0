// Package domain defines the core entities of the finance assistant:
// transactions, savings goals, chat messages and the pending dialogue state
// carried between conversation turns.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes money coming in from money going out.
type TransactionKind string

const (
	Income  TransactionKind = "INCOME"
	Expense TransactionKind = "EXPENSE"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"
)

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// Transaction is one ledger entry. A non-nil GoalID marks it as a movement
// into a goal (EXPENSE) or back out of one (INCOME).
type Transaction struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Kind        TransactionKind
	Description string
	CategoryID  *string
	GoalID      *string
	Date        time.Time
	CreatedAt   time.Time
}

// Goal is a savings target the user reserves money toward.
type Goal struct {
	ID            string
	UserID        string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      *time.Time
	Status        GoalStatus
	CreatedAt     time.Time
}

// TargetMet reports whether the accumulated amount reached the target.
func (g *Goal) TargetMet() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Progress returns the completion percentage (0-100, may exceed 100).
func (g *Goal) Progress() decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
}

// Category is a transaction category, either global (UserID nil) or
// owner-scoped. Created on demand when the parser produces an unknown name.
type Category struct {
	ID     string
	Name   string
	UserID *string
	Custom bool
}

// ChatMessage is one turn of the conversation. Messages are append-only and
// are the only memory the assistant has between requests; assistant messages
// may carry a PendingIntent awaiting the user's next reply.
type ChatMessage struct {
	ID        string
	UserID    string
	Role      Role
	Content   string
	Pending   *PendingIntent
	CreatedAt time.Time
}
