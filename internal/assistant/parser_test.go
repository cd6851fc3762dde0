package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

// stubGenerator is a deterministic Generator for tests.
type stubGenerator struct {
	generateTextFunc func(ctx context.Context, prompt string) (string, error)
	generateJSONFunc func(ctx context.Context, prompt string) (string, error)
}

func (s *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if s.generateTextFunc != nil {
		return s.generateTextFunc(ctx, prompt)
	}
	return "", nil
}

func (s *stubGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if s.generateJSONFunc != nil {
		return s.generateJSONFunc(ctx, prompt)
	}
	return "", nil
}

func jsonGenerator(raw string) *stubGenerator {
	return &stubGenerator{
		generateJSONFunc: func(ctx context.Context, prompt string) (string, error) {
			return raw, nil
		},
	}
}

func fixedParser(gen Generator, now time.Time) *Parser {
	p := NewParser(gen)
	p.now = func() time.Time { return now }
	return p
}

func TestParseTransaction(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		response string
		want     *ParsedTransaction
		wantErr  bool
	}{
		{
			name:     "clean JSON",
			response: `{"amount": 50, "type": "EXPENSE", "description": "Compra no mercado", "category": "Alimentação", "date": "today"}`,
			want: &ParsedTransaction{
				Amount:      decimal.NewFromInt(50),
				Kind:        domain.Expense,
				Description: "Compra no mercado",
				Category:    "Alimentação",
				Date:        now,
			},
		},
		{
			name: "fenced JSON",
			response: "```json\n" +
				`{"amount": 1000, "type": "INCOME", "description": "Salário", "category": "Salário", "date": "today"}` +
				"\n```",
			want: &ParsedTransaction{
				Amount:      decimal.NewFromInt(1000),
				Kind:        domain.Income,
				Description: "Salário",
				Category:    "Salário",
				Date:        now,
			},
		},
		{
			name:     "prose before the object",
			response: "Aqui está o resultado: {\"amount\": 20, \"type\": \"EXPENSE\", \"description\": \"Café\", \"category\": \"Alimentação\", \"date\": \"today\"}",
			want: &ParsedTransaction{
				Amount:      decimal.NewFromInt(20),
				Kind:        domain.Expense,
				Description: "Café",
				Category:    "Alimentação",
				Date:        now,
			},
		},
		{
			name:     "truncated object repaired",
			response: `{"amount": 30, "type": "EXPENSE", "description": "Uber", "category": "Transporte"`,
			want: &ParsedTransaction{
				Amount:      decimal.NewFromInt(30),
				Kind:        domain.Expense,
				Description: "Uber",
				Category:    "Transporte",
				Date:        now,
			},
		},
		{
			name:     "amount as numeric string",
			response: `{"amount": "45,90", "type": "EXPENSE", "description": "Farmácia", "category": "Saúde", "date": "today"}`,
			want: &ParsedTransaction{
				Amount:      decimal.RequireFromString("45.90"),
				Kind:        domain.Expense,
				Description: "Farmácia",
				Category:    "Saúde",
				Date:        now,
			},
		},
		{
			name:     "missing category defaults to Outros",
			response: `{"amount": 15, "type": "EXPENSE", "description": "Pipoca", "date": "today"}`,
			want: &ParsedTransaction{
				Amount:      decimal.NewFromInt(15),
				Kind:        domain.Expense,
				Description: "Pipoca",
				Category:    "Outros",
				Date:        now,
			},
		},
		{
			name:     "yesterday date",
			response: `{"amount": 10, "type": "EXPENSE", "description": "Pão", "category": "Alimentação", "date": "yesterday"}`,
			want: &ParsedTransaction{
				Amount:      decimal.NewFromInt(10),
				Kind:        domain.Expense,
				Description: "Pão",
				Category:    "Alimentação",
				Date:        now.AddDate(0, 0, -1),
			},
		},
		{
			name:     "absolute date",
			response: `{"amount": 10, "type": "EXPENSE", "description": "Pão", "category": "Alimentação", "date": "2026-08-15"}`,
			want: &ParsedTransaction{
				Amount:      decimal.NewFromInt(10),
				Kind:        domain.Expense,
				Description: "Pão",
				Category:    "Alimentação",
				Date:        time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
		{
			name:     "not JSON at all",
			response: "desculpe, não entendi",
			wantErr:  true,
		},
		{
			name:     "zero amount rejected",
			response: `{"amount": 0, "type": "EXPENSE", "description": "x", "category": "Outros", "date": "today"}`,
			wantErr:  true,
		},
		{
			name:     "negative amount rejected",
			response: `{"amount": -5, "type": "EXPENSE", "description": "x", "category": "Outros", "date": "today"}`,
			wantErr:  true,
		},
		{
			name:     "unknown type rejected",
			response: `{"amount": 5, "type": "TRANSFER", "description": "x", "category": "Outros", "date": "today"}`,
			wantErr:  true,
		},
		{
			name:     "missing description rejected",
			response: `{"amount": 5, "type": "EXPENSE", "category": "Outros", "date": "today"}`,
			wantErr:  true,
		},
		{
			name:     "unparseable date rejected",
			response: `{"amount": 5, "type": "EXPENSE", "description": "x", "category": "Outros", "date": "amanhã"}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixedParser(jsonGenerator(tt.response), now)
			got, err := p.ParseTransaction(context.Background(), "mensagem")
			if tt.wantErr {
				if !errors.Is(err, ErrUnparseable) {
					t.Fatalf("ParseTransaction error = %v, want ErrUnparseable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTransaction failed: %v", err)
			}
			if !got.Amount.Equal(tt.want.Amount) {
				t.Errorf("Amount = %s, want %s", got.Amount, tt.want.Amount)
			}
			if got.Kind != tt.want.Kind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.want.Kind)
			}
			if got.Description != tt.want.Description {
				t.Errorf("Description = %q, want %q", got.Description, tt.want.Description)
			}
			if got.Category != tt.want.Category {
				t.Errorf("Category = %q, want %q", got.Category, tt.want.Category)
			}
			if !got.Date.Equal(tt.want.Date) {
				t.Errorf("Date = %s, want %s", got.Date, tt.want.Date)
			}
		})
	}
}

func TestParseTransactionGeneratorError(t *testing.T) {
	gen := &stubGenerator{
		generateJSONFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	p := NewParser(gen)
	_, err := p.ParseTransaction(context.Background(), "Gastei 50 no mercado")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrUnparseable) {
		t.Errorf("generator failure classified as ErrUnparseable: %v", err)
	}
}

func TestParseGoal(t *testing.T) {
	deadline := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		response     string
		wantName     string
		wantTarget   string
		wantDeadline *time.Time
		wantErr      bool
	}{
		{
			name:       "without deadline",
			response:   `{"name": "Viagem", "targetAmount": 5000, "deadline": null}`,
			wantName:   "Viagem",
			wantTarget: "5000",
		},
		{
			name:         "with deadline",
			response:     `{"name": "Carro", "targetAmount": 30000, "deadline": "2026-12-31"}`,
			wantName:     "Carro",
			wantTarget:   "30000",
			wantDeadline: &deadline,
		},
		{
			name:       "fenced",
			response:   "```json\n{\"name\": \"Casa\", \"targetAmount\": 100000}\n```",
			wantName:   "Casa",
			wantTarget: "100000",
		},
		{
			name:     "missing name",
			response: `{"targetAmount": 5000}`,
			wantErr:  true,
		},
		{
			name:     "missing target",
			response: `{"name": "Viagem"}`,
			wantErr:  true,
		},
		{
			name:     "bad deadline",
			response: `{"name": "Viagem", "targetAmount": 5000, "deadline": "dezembro"}`,
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(jsonGenerator(tt.response))
			got, err := p.ParseGoal(context.Background(), "mensagem")
			if tt.wantErr {
				if !errors.Is(err, ErrUnparseable) {
					t.Fatalf("ParseGoal error = %v, want ErrUnparseable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGoal failed: %v", err)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if !got.TargetAmount.Equal(decimal.RequireFromString(tt.wantTarget)) {
				t.Errorf("TargetAmount = %s, want %s", got.TargetAmount, tt.wantTarget)
			}
			switch {
			case tt.wantDeadline == nil && got.Deadline != nil:
				t.Errorf("Deadline = %v, want nil", got.Deadline)
			case tt.wantDeadline != nil && (got.Deadline == nil || !got.Deadline.Equal(*tt.wantDeadline)):
				t.Errorf("Deadline = %v, want %v", got.Deadline, tt.wantDeadline)
			}
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a": 1}`, want: `{"a": 1}`},
		{name: "fenced with language", in: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "fenced bare", in: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "leading prose", in: "Resultado: {\"a\": 1}", want: `{"a": 1}`},
		{name: "whitespace", in: "  {\"a\": 1}  ", want: `{"a": 1}`},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
