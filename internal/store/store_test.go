package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", v, err)
	}
	return d
}

func TestBalance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entries := []struct {
		amount string
		kind   domain.TransactionKind
	}{
		{"1000", domain.Income},
		{"250.50", domain.Expense},
		{"49.50", domain.Expense},
	}
	for _, e := range entries {
		err := s.CreateTransaction(ctx, &domain.Transaction{
			UserID:      "u1",
			Amount:      dec(t, e.amount),
			Kind:        e.kind,
			Description: "test",
			Date:        time.Now(),
		})
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	balance, err := s.Balance(ctx, "u1")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if want := dec(t, "700"); !balance.Equal(want) {
		t.Errorf("Balance = %s, want %s", balance, want)
	}

	// Another owner's ledger is untouched.
	other, err := s.Balance(ctx, "u2")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if !other.IsZero() {
		t.Errorf("Balance for empty ledger = %s, want 0", other)
	}
}

func TestSumByKindSince(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	for _, tx := range []*domain.Transaction{
		{UserID: "u1", Amount: dec(t, "100"), Kind: domain.Expense, Description: "old", Date: old},
		{UserID: "u1", Amount: dec(t, "40"), Kind: domain.Expense, Description: "recent", Date: recent},
	} {
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sum, err := s.SumByKind(ctx, "u1", domain.Expense, &since)
	if err != nil {
		t.Fatalf("SumByKind failed: %v", err)
	}
	if want := dec(t, "40"); !sum.Equal(want) {
		t.Errorf("SumByKind since %s = %s, want %s", since.Format("2006-01-02"), sum, want)
	}
}

func TestTopExpenseCategory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	food, err := s.FindOrCreateCategory(ctx, "u1", "Alimentação")
	if err != nil {
		t.Fatalf("FindOrCreateCategory failed: %v", err)
	}
	transport, err := s.FindOrCreateCategory(ctx, "u1", "Transporte")
	if err != nil {
		t.Fatalf("FindOrCreateCategory failed: %v", err)
	}

	entries := []struct {
		amount   string
		kind     domain.TransactionKind
		category *string
	}{
		{"120", domain.Expense, &food.ID},
		{"80", domain.Expense, &food.ID},
		{"150", domain.Expense, &transport.ID},
		{"1000", domain.Income, &food.ID},
	}
	for _, e := range entries {
		err := s.CreateTransaction(ctx, &domain.Transaction{
			UserID: "u1", Amount: dec(t, e.amount), Kind: e.kind,
			Description: "test", CategoryID: e.category, Date: time.Now(),
		})
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	name, total, err := s.TopExpenseCategory(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("TopExpenseCategory failed: %v", err)
	}
	if name != "Alimentação" {
		t.Errorf("top category = %q, want %q", name, "Alimentação")
	}
	if !total.Equal(dec(t, "200")) {
		t.Errorf("top total = %s, want 200", total)
	}

	if _, _, err := s.TopExpenseCategory(ctx, "u2", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty ledger error = %v, want ErrNotFound", err)
	}
}

func TestAddToGoalAmount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &domain.Goal{UserID: "u1", Name: "Viagem", TargetAmount: dec(t, "2000")}
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	updated, err := s.AddToGoalAmount(ctx, g.ID, dec(t, "300"))
	if err != nil {
		t.Fatalf("AddToGoalAmount(+300) failed: %v", err)
	}
	if !updated.CurrentAmount.Equal(dec(t, "300")) {
		t.Errorf("CurrentAmount = %s, want 300", updated.CurrentAmount)
	}

	// A decrement below zero is rejected and mutates nothing.
	_, err = s.AddToGoalAmount(ctx, g.ID, dec(t, "-400"))
	if !errors.Is(err, ErrGoalFundsExceeded) {
		t.Fatalf("AddToGoalAmount(-400) error = %v, want ErrGoalFundsExceeded", err)
	}
	after, err := s.GetGoal(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !after.CurrentAmount.Equal(dec(t, "300")) {
		t.Errorf("CurrentAmount after rejected decrement = %s, want 300", after.CurrentAmount)
	}

	// Draining to exactly zero is allowed.
	updated, err = s.AddToGoalAmount(ctx, g.ID, dec(t, "-300"))
	if err != nil {
		t.Fatalf("AddToGoalAmount(-300) failed: %v", err)
	}
	if !updated.CurrentAmount.IsZero() {
		t.Errorf("CurrentAmount = %s, want 0", updated.CurrentAmount)
	}

	_, err = s.AddToGoalAmount(ctx, "missing", dec(t, "10"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("AddToGoalAmount on missing goal error = %v, want ErrNotFound", err)
	}
}

func TestMarkGoalCompletedIfTargetMet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &domain.Goal{UserID: "u1", Name: "Reserva", TargetAmount: dec(t, "500")}
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	// Below target: stays ACTIVE.
	if _, err := s.AddToGoalAmount(ctx, g.ID, dec(t, "499.99")); err != nil {
		t.Fatalf("AddToGoalAmount failed: %v", err)
	}
	got, err := s.MarkGoalCompletedIfTargetMet(ctx, g.ID)
	if err != nil {
		t.Fatalf("MarkGoalCompletedIfTargetMet failed: %v", err)
	}
	if got.Status != domain.GoalActive {
		t.Errorf("Status below target = %s, want %s", got.Status, domain.GoalActive)
	}

	// At target: transitions to COMPLETED.
	if _, err := s.AddToGoalAmount(ctx, g.ID, dec(t, "0.01")); err != nil {
		t.Fatalf("AddToGoalAmount failed: %v", err)
	}
	got, err = s.MarkGoalCompletedIfTargetMet(ctx, g.ID)
	if err != nil {
		t.Fatalf("MarkGoalCompletedIfTargetMet failed: %v", err)
	}
	if got.Status != domain.GoalCompleted {
		t.Errorf("Status at target = %s, want %s", got.Status, domain.GoalCompleted)
	}

	// COMPLETED never reverts, even after a withdrawal below target.
	if _, err := s.AddToGoalAmount(ctx, g.ID, dec(t, "-200")); err != nil {
		t.Fatalf("AddToGoalAmount failed: %v", err)
	}
	got, err = s.MarkGoalCompletedIfTargetMet(ctx, g.ID)
	if err != nil {
		t.Fatalf("MarkGoalCompletedIfTargetMet failed: %v", err)
	}
	if got.Status != domain.GoalCompleted {
		t.Errorf("Status after withdrawal = %s, want %s", got.Status, domain.GoalCompleted)
	}
}

func TestFindActiveGoalByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	goals := []*domain.Goal{
		{UserID: "u1", Name: "Viagem para Europa", TargetAmount: dec(t, "5000")},
		{UserID: "u1", Name: "Carro novo", TargetAmount: dec(t, "30000")},
		{UserID: "u2", Name: "Viagem", TargetAmount: dec(t, "1000")},
	}
	for _, g := range goals {
		if err := s.CreateGoal(ctx, g); err != nil {
			t.Fatalf("CreateGoal failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		userID   string
		keyword  string
		wantName string
		wantErr  error
	}{
		{name: "substring match", userID: "u1", keyword: "viagem", wantName: "Viagem para Europa"},
		{name: "case folded", userID: "u1", keyword: "CARRO", wantName: "Carro novo"},
		{name: "other owner isolated", userID: "u2", keyword: "carro", wantErr: ErrNotFound},
		{name: "no match", userID: "u1", keyword: "moto", wantErr: ErrNotFound},
		{name: "empty keyword", userID: "u1", keyword: "  ", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := s.FindActiveGoalByName(ctx, tt.userID, tt.keyword)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FindActiveGoalByName error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindActiveGoalByName failed: %v", err)
			}
			if g.Name != tt.wantName {
				t.Errorf("FindActiveGoalByName = %q, want %q", g.Name, tt.wantName)
			}
		})
	}
}

func TestFindActiveGoalByNameSkipsCompleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := &domain.Goal{UserID: "u1", Name: "Viagem", TargetAmount: dec(t, "100")}
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if _, err := s.AddToGoalAmount(ctx, g.ID, dec(t, "100")); err != nil {
		t.Fatalf("AddToGoalAmount failed: %v", err)
	}
	if _, err := s.MarkGoalCompletedIfTargetMet(ctx, g.ID); err != nil {
		t.Fatalf("MarkGoalCompletedIfTargetMet failed: %v", err)
	}

	if _, err := s.FindActiveGoalByName(ctx, "u1", "viagem"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindActiveGoalByName on completed goal error = %v, want ErrNotFound", err)
	}
}

func TestFindOrCreateCategory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c1, err := s.FindOrCreateCategory(ctx, "u1", "Outros")
	if err != nil {
		t.Fatalf("FindOrCreateCategory failed: %v", err)
	}
	if c1.ID == "" {
		t.Fatal("created category has empty id")
	}

	// Case-insensitive hit reuses the row.
	c2, err := s.FindOrCreateCategory(ctx, "u1", "outros")
	if err != nil {
		t.Fatalf("FindOrCreateCategory failed: %v", err)
	}
	if c2.ID != c1.ID {
		t.Errorf("FindOrCreateCategory created duplicate: %s vs %s", c2.ID, c1.ID)
	}

	// Global categories are shared across owners.
	c3, err := s.FindOrCreateCategory(ctx, "u2", "Outros")
	if err != nil {
		t.Fatalf("FindOrCreateCategory failed: %v", err)
	}
	if c3.ID != c1.ID {
		t.Errorf("global category not shared: %s vs %s", c3.ID, c1.ID)
	}
}

func TestAppendAndRecentMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	pending := &domain.PendingIntent{
		Kind: domain.PendingGoalCreationKind,
		GoalCreation: &domain.PendingGoalCreation{
			Name:              "viagem",
			ReservationAmount: dec(t, "300"),
		},
	}

	msgs := []*domain.ChatMessage{
		{UserID: "u1", Role: domain.RoleUser, Content: "Reservei 300 para viagem", CreatedAt: base},
		{UserID: "u1", Role: domain.RoleAssistant, Content: "Deseja criar a meta?", Pending: pending, CreatedAt: base.Add(time.Second)},
	}
	for _, m := range msgs {
		if err := s.AppendMessage(ctx, m); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	got, err := s.RecentMessages(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentMessages returned %d messages, want 2", len(got))
	}
	if got[0].Role != domain.RoleAssistant {
		t.Errorf("most recent role = %s, want %s", got[0].Role, domain.RoleAssistant)
	}
	if got[0].Pending == nil {
		t.Fatal("pending intent not round-tripped")
	}
	if got[0].Pending.Kind != domain.PendingGoalCreationKind {
		t.Errorf("pending kind = %s, want %s", got[0].Pending.Kind, domain.PendingGoalCreationKind)
	}
	if gc := got[0].Pending.GoalCreation; gc == nil || gc.Name != "viagem" || !gc.ReservationAmount.Equal(dec(t, "300")) {
		t.Errorf("pending payload not round-tripped: %+v", got[0].Pending.GoalCreation)
	}
	if got[1].Pending != nil {
		t.Errorf("user message has pending intent: %+v", got[1].Pending)
	}
}
