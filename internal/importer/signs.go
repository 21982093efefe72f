package importer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/model"
)

// SignRule marks descriptions containing Phrase as Type.
type SignRule struct {
	Phrase string
	Type   model.TxType
}

// SignRules infers the polarity of an unsigned amount from its description.
// Rules are tried in order and the first phrase found wins; descriptions that
// match nothing get Default. The result is only as good as the phrase
// coverage.
type SignRules struct {
	Rules   []SignRule
	Default model.TxType
}

// DefaultSignRules returns the built-in keyword table. Expense phrases come
// first so "pago tarjeta de credito" stays an expense. Unmatched rows default
// to expense.
func DefaultSignRules() SignRules {
	var rules []SignRule
	for _, p := range []string{
		"compra", "purchase", "pago", "payment", "cargo", "charge",
		"comision", "fee", "impuesto", "tax", "itbms", "retiro", "withdrawal",
		"atm", "supermercado", "restaurante", "restaurant", "farmacia",
		"gasolinera", "combustible", "uber", "amazon", "netflix", "spotify",
	} {
		rules = append(rules, SignRule{Phrase: p, Type: model.TypeExpense})
	}
	for _, p := range []string{
		"transferencia recibida", "transf recibida", "transfer received",
		"deposito", "deposit", "interes", "interest",
		"credito", "credit", "abono", "reembolso", "refund", "devolucion",
		"nomina", "salario", "salary", "planilla",
	} {
		rules = append(rules, SignRule{Phrase: p, Type: model.TypeIncome})
	}
	return SignRules{Rules: rules, Default: model.TypeExpense}
}

// Infer returns the type the description indicates.
func (s SignRules) Infer(description string) model.TxType {
	text := fold(description)
	for _, r := range s.Rules {
		if strings.Contains(text, fold(r.Phrase)) {
			return r.Type
		}
	}
	if s.Default == "" {
		return model.TypeExpense
	}
	return s.Default
}

// Apply signs an unsigned magnitude per Infer.
func (s SignRules) Apply(description string, magnitude decimal.Decimal) decimal.Decimal {
	if s.Infer(description) == model.TypeExpense {
		return magnitude.Abs().Neg()
	}
	return magnitude.Abs()
}
