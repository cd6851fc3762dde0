package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

// Generator is the injected text-generation capability. Tests substitute a
// deterministic stub returning canned output.
type Generator interface {
	// GenerateText produces a free-form reply.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateJSON produces output constrained to a JSON object.
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// ErrUnparseable marks a message the model could not turn into a valid
// structured record. Callers answer with a clarification, never a default.
var ErrUnparseable = errors.New("assistant: message not parseable")

// ParsedTransaction is the normalized record produced for a plain
// transaction message.
type ParsedTransaction struct {
	Amount      decimal.Decimal
	Kind        domain.TransactionKind
	Description string
	Category    string
	Date        time.Time
}

// ParsedGoal is the normalized record produced for a goal-creation message.
type ParsedGoal struct {
	Name         string
	TargetAmount decimal.Decimal
	Deadline     *time.Time
}

// Parser turns free text into structured records via the generation model.
type Parser struct {
	gen Generator
	now func() time.Time
}

// NewParser creates a parser over the given generator.
func NewParser(gen Generator) *Parser {
	return &Parser{gen: gen, now: time.Now}
}

// ParseTransaction extracts amount, kind, description, category and date
// from a transaction message. Returns ErrUnparseable when the model output
// is empty, malformed beyond repair, or fails validation.
func (p *Parser) ParseTransaction(ctx context.Context, message string) (*ParsedTransaction, error) {
	raw, err := p.gen.GenerateJSON(ctx, fillPrompt(transactionParserPrompt, map[string]string{"userMessage": message}))
	if err != nil {
		return nil, fmt.Errorf("parser: transaction generate: %w", err)
	}

	jsonText := cleanModelJSON(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrUnparseable)
	}

	// The model sometimes truncates the object; try one repair by closing it
	// with the default date field before giving up.
	if !strings.HasSuffix(jsonText, "}") {
		jsonText = strings.TrimRight(jsonText, ", \n") + ",\n  \"date\": \"today\"\n}"
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrUnparseable, err)
	}

	amount, err := amountField(obj, "amount")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	kind, err := stringField(obj, "type")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if kind != string(domain.Income) && kind != string(domain.Expense) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrUnparseable, kind)
	}

	description, err := stringField(obj, "description")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	category := "Outros"
	if c, err := stringField(obj, "category"); err == nil {
		category = c
	}

	date, err := p.parseDate(obj["date"])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	return &ParsedTransaction{
		Amount:      amount,
		Kind:        domain.TransactionKind(kind),
		Description: description,
		Category:    category,
		Date:        date,
	}, nil
}

// ParseGoal extracts name, target amount and optional deadline from a
// goal-creation message.
func (p *Parser) ParseGoal(ctx context.Context, message string) (*ParsedGoal, error) {
	raw, err := p.gen.GenerateJSON(ctx, fillPrompt(goalParserPrompt, map[string]string{"userMessage": message}))
	if err != nil {
		return nil, fmt.Errorf("parser: goal generate: %w", err)
	}

	jsonText := cleanModelJSON(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrUnparseable)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrUnparseable, err)
	}

	name, err := stringField(obj, "name")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	target, err := amountField(obj, "targetAmount")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	goal := &ParsedGoal{Name: name, TargetAmount: target}

	if raw, ok := obj["deadline"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok || s == "" {
			return goal, nil
		}
		deadline, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid deadline %q", ErrUnparseable, s)
		}
		goal.Deadline = &deadline
	}

	return goal, nil
}

// parseDate handles the relative tokens "today" and "yesterday"; anything
// else must be an absolute YYYY-MM-DD date or the parse fails.
func (p *Parser) parseDate(raw interface{}) (time.Time, error) {
	s, _ := raw.(string)
	switch s {
	case "", "today":
		return p.now(), nil
	case "yesterday":
		return p.now().AddDate(0, 0, -1), nil
	}
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return date, nil
}

// cleanModelJSON strips markdown code fences and any stray text around the
// outermost JSON object.
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

	// Keep only from the first '{' when the model prefixed prose. The tail
	// is preserved so truncated objects can still be repaired.
	if start := strings.Index(s, "{"); start > 0 {
		s = strings.TrimSpace(s[start:])
	}
	return s
}

func stringField(obj map[string]interface{}, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("required field %q is empty or not a string", key)
	}
	return s, nil
}

// amountField accepts a JSON number or a numeric string and requires a
// finite value greater than zero.
func amountField(obj map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("missing required field %q", key)
	}

	var amount decimal.Decimal
	switch val := v.(type) {
	case float64:
		amount = decimal.NewFromFloat(val)
	case string:
		parsed, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(val), ",", "."))
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q is not a number: %q", key, val)
		}
		amount = parsed
	default:
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number", key, v)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("field %q must be positive, got %s", key, amount)
	}
	return amount, nil
}
