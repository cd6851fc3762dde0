package assistant

import (
	"regexp"
	"strings"
)

// Intent is the classified purpose of one user message.
type Intent int

const (
	IntentConversation Intent = iota
	IntentWithdrawal
	IntentReservation
	IntentGoal
	IntentTransaction
)

func (i Intent) String() string {
	switch i {
	case IntentWithdrawal:
		return "withdrawal"
	case IntentReservation:
		return "reservation"
	case IntentGoal:
		return "goal"
	case IntentTransaction:
		return "transaction"
	default:
		return "conversation"
	}
}

var (
	withdrawalVerbs = []string{
		"retirar", "retirei", "retire",
		"sacar", "saquei", "saque",
		"pegar", "peguei", "pegue",
	}
	reservationVerbs = []string{
		"reservar", "reservei", "reserve",
		"separar", "separei", "separe",
		"guardar", "guardei", "guarde",
	}
	goalKeywords = []string{
		"meta", "objetivo", "economizar", "poupar",
		"quero juntar", "planejar", "sonho",
	}
	transactionKeywords = []string{
		"gastei", "paguei", "pagou", "comprei", "comprou",
		"recebi", "recebeu", "ganhei", "ganhou",
		"salário", "despesa", "receita", "pagar", "receber",
	}

	hasDigitRe          = regexp.MustCompile(`\d`)
	originRe            = regexp.MustCompile(`(?i)(?:da|do)\s+\w+`)
	destinationRe       = regexp.MustCompile(`(?i)(?:para|pra|na|no|da|do)\s+\w+`)
	startsActionVerbRe  = regexp.MustCompile(`(?i)^(?:reservei|guardei|separei|coloquei)`)
	startsReserveVerbRe = regexp.MustCompile(`(?i)^(?:reservei|guardei|separei|quero)`)
)

// Classify picks the intent of a message. The predicates run in strict
// specificity order with early return: withdrawal and reservation demand a
// verb, an amount and a preposition, so they go before the broad keyword
// matches for goals and transactions.
func Classify(message string) Intent {
	switch {
	case isWithdrawal(message):
		return IntentWithdrawal
	case isReservation(message):
		return IntentReservation
	case isGoal(message):
		return IntentGoal
	case isTransaction(message):
		return IntentTransaction
	default:
		return IntentConversation
	}
}

// isWithdrawal requires a withdrawal verb, a digit and an origin like
// "da viagem".
func isWithdrawal(message string) bool {
	return containsAny(message, withdrawalVerbs) &&
		hasDigitRe.MatchString(message) &&
		originRe.MatchString(message)
}

// isReservation requires a reservation verb, a digit and a destination like
// "para viagem".
func isReservation(message string) bool {
	return containsAny(message, reservationVerbs) &&
		hasDigitRe.MatchString(message) &&
		destinationRe.MatchString(message)
}

// isGoal requires a goal keyword and rejects messages opening with a
// completed-action verb, so "Reservei 500..." is not read as a new goal.
func isGoal(message string) bool {
	return containsAny(message, goalKeywords) &&
		!startsActionVerbRe.MatchString(strings.TrimSpace(message))
}

// isTransaction requires a transaction keyword and rejects messages opening
// with a reservation verb.
func isTransaction(message string) bool {
	if startsReserveVerbRe.MatchString(strings.TrimSpace(message)) {
		return false
	}
	return containsAny(message, transactionKeywords)
}

func containsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
