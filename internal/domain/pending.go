package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingKind tags the variant of a PendingIntent.
type PendingKind string

const (
	// PendingGoalCreationKind: assistant offered to create a goal and is
	// waiting for "sim, criar meta de <valor>".
	PendingGoalCreationKind PendingKind = "goal_creation"
	// PendingReservationConfirmKind: a reservation exceeded the available
	// balance and the assistant offered to reserve only what is available.
	PendingReservationConfirmKind PendingKind = "reservation_confirm"
	// PendingTransactionConfirmKind: an expense exceeded the available
	// balance and the assistant offered three numbered options.
	PendingTransactionConfirmKind PendingKind = "transaction_confirm"
)

// PendingIntent is the dialogue state persisted with an assistant message.
// Exactly one payload field is set, matching Kind. Storing this explicitly
// keeps the multi-turn flow independent of the reply's exact wording.
type PendingIntent struct {
	Kind               PendingKind                `json:"kind"`
	GoalCreation       *PendingGoalCreation       `json:"goal_creation,omitempty"`
	ReservationConfirm *PendingReservationConfirm `json:"reservation_confirm,omitempty"`
	TransactionConfirm *PendingTransactionConfirm `json:"transaction_confirm,omitempty"`
}

// PendingGoalCreation carries the suggested goal name and, when the offer
// came from a failed reservation, the amount to reserve once the goal exists.
type PendingGoalCreation struct {
	Name              string          `json:"name"`
	ReservationAmount decimal.Decimal `json:"reservation_amount"`
}

// PendingReservationConfirm carries the reservation that could not be fully
// funded, so the next turn can reserve the available amount instead.
type PendingReservationConfirm struct {
	GoalID    string          `json:"goal_id"`
	GoalName  string          `json:"goal_name"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
}

// PendingTransactionConfirm carries an expense held back by the balance
// check, plus the balance seen at that moment.
type PendingTransactionConfirm struct {
	Amount      decimal.Decimal `json:"amount"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Available   decimal.Decimal `json:"available"`
}
