package assistant

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Slots holds the amount and goal keyword extracted from a reservation or
// withdrawal message.
type Slots struct {
	Amount decimal.Decimal
	Target string
}

// slotPattern is one entry of an ordered target-extraction table.
type slotPattern struct {
	re    *regexp.Regexp
	group int
}

// Extractor pulls slots out of a message using an ordered pattern table, so
// the Portuguese-specific patterns can be swapped without touching the
// orchestration.
type Extractor struct {
	amount  *regexp.Regexp
	targets []slotPattern
}

// amountRe matches the first numeric token, allowing comma or dot decimals:
// "500", "50.00", "50,5".
var amountRe = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)`)

// reservationExtractor handles destinations: "para viagem", "pra a meta de
// casa", "na meta carro", "do presente".
var reservationExtractor = &Extractor{
	amount: amountRe,
	targets: []slotPattern{
		{re: regexp.MustCompile(`(?i)(?:para|pra)\s+(?:a\s+)?(?:meta\s+)?(?:de\s+)?([\w\s]+?)(?:[.,!?]|$)`), group: 1},
		{re: regexp.MustCompile(`(?i)(?:na|no)\s+(?:meta\s+)?([\w\s]+?)(?:[.,!?]|$)`), group: 1},
		{re: regexp.MustCompile(`(?i)(?:da|do)\s+([\w\s]+?)(?:[.,!?]|$)`), group: 1},
	},
}

// withdrawalExtractor handles origins, most specific first: "da reserva da
// viagem", "da meta de casa", "da viagem".
var withdrawalExtractor = &Extractor{
	amount: amountRe,
	targets: []slotPattern{
		{re: regexp.MustCompile(`(?i)(?:da|do)\s+reserva\s+(?:d[aeo]\s+)?([\w\s]+?)(?:[.,!?]|$)`), group: 1},
		{re: regexp.MustCompile(`(?i)(?:da|do)\s+meta\s+(?:de\s+)?([\w\s]+?)(?:[.,!?]|$)`), group: 1},
		{re: regexp.MustCompile(`(?i)(?:da|do)\s+([\w\s]+?)(?:[.,!?]|$)`), group: 1},
	},
}

// Extract returns the amount and target keyword, or ok=false when either is
// missing. Callers must answer with a clarification instead of guessing.
func (e *Extractor) Extract(message string) (Slots, bool) {
	m := e.amount.FindStringSubmatch(message)
	if m == nil {
		return Slots{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil || !amount.IsPositive() {
		return Slots{}, false
	}

	for _, p := range e.targets {
		if m := p.re.FindStringSubmatch(message); m != nil {
			target := strings.ToLower(strings.TrimSpace(m[p.group]))
			if target == "" {
				continue
			}
			return Slots{Amount: amount, Target: target}, true
		}
	}
	return Slots{}, false
}
