package assistant

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GleristonCastro/dio-gesinfopro/internal/domain"
)

// User-facing replies, in Brazilian Portuguese. The multi-turn flows no
// longer depend on this wording (the pending intent is stored explicitly),
// so these templates can change freely.

func brl(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}

func pct(value decimal.Decimal) string {
	return value.Round(0).String()
}

const (
	replyFallback = "Desculpe, tive um problema ao processar sua mensagem. Pode tentar novamente?"

	replyTransactionClarification = "⚠️ Desculpe, não consegui processar essa transação. Pode tentar de outra forma? Por exemplo:\n" +
		"• \"Gastei 50 no mercado\"\n• \"Recebi 1000 de salário\"\n• \"Paguei 200 de conta de luz\""

	replyReservationClarification = "⚠️ Não consegui entender sua reserva. Tente algo como:\n" +
		"• \"Reservei 500 para viagem\"\n• \"Guardei 100 para presente\"\n• \"Separei 1000 para carro\""

	replyWithdrawalClarification = "⚠️ Não consegui entender. Tente: \"Retirar 400 da viagem\""

	replyGoalClarification = "⚠️ Não consegui entender sua meta. Tente algo como:\n" +
		"• \"Quero juntar 5000 para viagem\"\n• \"Minha meta é economizar 2000 até dezembro\""
)

func replyTransactionRecorded(tx *ParsedTransaction, categoryName string, linked *domain.Goal) string {
	kind := "uma receita"
	if tx.Kind == domain.Expense {
		kind = "uma despesa"
	}
	msg := fmt.Sprintf("✅ Entendi! Registrei %s de %s em %s.", kind, brl(tx.Amount), categoryName)
	if linked != nil {
		msg += fmt.Sprintf(" 🎯 Vinculei à sua meta %q.", linked.Name)
	}
	return msg
}

func replyExpenseExceedsBalance(amount, balance decimal.Decimal) string {
	return fmt.Sprintf("⚠️ Opa! Você está tentando gastar %s, mas seu saldo atual é de %s.\n\n"+
		"Deseja:\n1️⃣ Registrar mesmo assim (ficará com saldo negativo)\n"+
		"2️⃣ Registrar apenas o valor disponível (%s)\n3️⃣ Cancelar esta despesa\n\n"+
		"Responda com o número da opção.", brl(amount), brl(balance), brl(balance))
}

func replyGoalCreated(goal *domain.Goal) string {
	msg := fmt.Sprintf("🎯 Que legal! Criei sua meta %q com o objetivo de %s", goal.Name, brl(goal.TargetAmount))
	if goal.Deadline != nil {
		msg += " até " + goal.Deadline.Format("02/01/2006")
	}
	return msg + ". Vamos juntos alcançar esse objetivo! 💪"
}

func replyGoalAlreadyExists(goal *domain.Goal) string {
	return fmt.Sprintf("ℹ️ Você já tem uma meta ativa chamada %q de %s.\n\nQuer criar uma nova meta ou usar essa?",
		goal.Name, brl(goal.TargetAmount))
}

func replyOfferGoalCreation(keyword string, amount decimal.Decimal) string {
	return fmt.Sprintf("⚠️ Você está tentando reservar %s para %q, mas não encontrei essa meta.\n\n"+
		"💡 Quer que eu crie uma meta de %q agora?\n\nResponda:\n"+
		"1️⃣ \"Sim, criar meta de [valor]\" (ex: Sim, criar meta de 5000)\n"+
		"2️⃣ Ou simplesmente: \"Quero juntar [valor] para %s\"",
		brl(amount), keyword, keyword, keyword)
}

func replyReservationExceedsBalance(goalName string, amount, balance decimal.Decimal) string {
	return fmt.Sprintf("⚠️ Você quer reservar %s para %q, mas seu saldo atual é apenas %s.\n\n"+
		"💡 Você precisa de mais %s para fazer essa reserva.\n\nDeseja:\n"+
		"1️⃣ Reservar o valor disponível (%s)\n2️⃣ Aguardar até ter o valor total\n\n"+
		"Responda com o número da opção.",
		brl(amount), goalName, brl(balance), brl(amount.Sub(balance)), brl(balance))
}

func replyReservationDone(goal *domain.Goal, amount decimal.Decimal) string {
	if goal.Status == domain.GoalCompleted {
		return fmt.Sprintf("🎉 PARABÉNS! Você concluiu sua meta %q! 🎊\n\n"+
			"✅ Meta alcançada: %s de %s\n\n🏆 Objetivo conquistado! Continue assim! 💪",
			goal.Name, brl(goal.CurrentAmount), brl(goal.TargetAmount))
	}
	return fmt.Sprintf("✅ Perfeito! Reservei %s para sua meta %q.\n\n"+
		"🎯 Progresso: %s%% • %s de %s\n\nContinue assim! 💪",
		brl(amount), goal.Name, pct(goal.Progress()), brl(goal.CurrentAmount), brl(goal.TargetAmount))
}

func replyGoalCreatedWithReservation(goal *domain.Goal, reserved decimal.Decimal) string {
	return fmt.Sprintf("🎯 Perfeito! Criei sua meta %q com objetivo de %s.\n\n"+
		"✅ E já reservei %s para essa meta!\n\n📊 Progresso: %s%% • %s de %s\n\nContinue assim! 💪",
		goal.Name, brl(goal.TargetAmount), brl(reserved), pct(goal.Progress()),
		brl(goal.CurrentAmount), brl(goal.TargetAmount))
}

func replyGoalCreatedReservationShort(goal *domain.Goal, reservation, balance decimal.Decimal) string {
	return fmt.Sprintf("🎯 Meta %q criada com objetivo de %s!\n\n"+
		"⚠️ Mas você não tem saldo suficiente para reservar %s agora. Seu saldo é %s.\n\n"+
		"Assim que tiver saldo, diga: \"Reservar [valor] para %s\"",
		goal.Name, brl(goal.TargetAmount), brl(reservation), brl(balance), goal.Name)
}

func replyGoalCreatedPlain(goal *domain.Goal) string {
	return fmt.Sprintf("🎯 Perfeito! Criei sua meta %q com objetivo de %s.\n\n"+
		"Agora você já pode fazer reservas para essa meta! 💪", goal.Name, brl(goal.TargetAmount))
}

func replyGoalNotFound(keyword string) string {
	return fmt.Sprintf("⚠️ Não encontrei uma meta ativa chamada %q.", keyword)
}

func replyWithdrawalExceedsReserved(goal *domain.Goal, amount decimal.Decimal) string {
	return fmt.Sprintf("⚠️ Você só tem %s reservado na meta %q.\n\nNão é possível retirar %s.",
		brl(goal.CurrentAmount), goal.Name, brl(amount))
}

func replyWithdrawalDone(goal *domain.Goal, amount decimal.Decimal) string {
	return fmt.Sprintf("✅ Retirei %s da meta %q.\n\n"+
		"📊 Novo saldo da meta: %s de %s (%s%%)\n\n💰 O valor voltou para seu saldo disponível!",
		brl(amount), goal.Name, brl(goal.CurrentAmount), brl(goal.TargetAmount), pct(goal.Progress()))
}

func replyReservationCancelled() string {
	return "👍 Sem problemas! Vou aguardar. Quando tiver o valor total, é só me avisar."
}

func replyTransactionCancelled() string {
	return "👍 Despesa cancelada. Nada foi registrado."
}
