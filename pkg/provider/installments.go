package provider

import (
	"fmt"
	"time"

	"github.com/fintlab/cardledger/pkg/domain"
)

// fixInstallments collapses the visible legs of each installment purchase
// into one transaction. Legs of the same purchase share voucher identifier
// and supplier description. The representative leg is the plan's first
// (number == 1) when visible, otherwise the earliest-dated leg; its amounts
// become the sum over all visible legs and its installment descriptor is
// dropped, since the collapsed record stands for the whole purchase.
func fixInstallments(txns []*domain.Transaction) []*domain.Transaction {
	type group struct {
		rep               *domain.Transaction
		repHasFirstLeg    bool
		original, charged float64
	}

	key := func(t *domain.Transaction) string {
		return fmt.Sprintf("%d|%s", t.Identifier, t.Description)
	}

	groups := map[string]*group{}
	for _, t := range txns {
		if t.Type != domain.TypeInstallments || t.Installments == nil {
			continue
		}
		g, ok := groups[key(t)]
		if !ok {
			g = &group{}
			groups[key(t)] = g
		}
		g.original += t.OriginalAmount
		g.charged += t.ChargedAmount

		switch {
		case t.Installments.Number == 1:
			g.rep = t
			g.repHasFirstLeg = true
		case g.rep == nil:
			g.rep = t
		case !g.repHasFirstLeg && t.Date.Before(g.rep.Date):
			g.rep = t
		}
	}

	out := make([]*domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Type != domain.TypeInstallments || t.Installments == nil {
			out = append(out, t)
			continue
		}
		g := groups[key(t)]
		if g.rep != t {
			continue
		}
		collapsed := *t
		collapsed.Type = domain.TypeNormal
		collapsed.Installments = nil
		collapsed.OriginalAmount = g.original
		collapsed.ChargedAmount = g.charged
		out = append(out, &collapsed)
	}
	return out
}

// filterOldTransactions drops transactions dated before start. Zero-dated
// transactions (unparseable institution dates) always pass. When installment
// legs are kept separate (combineInstallments), a leg older than start
// survives while its plan could still have legs on or after start.
// Idempotent at both call sites: per account-month and on the merged ledger.
func filterOldTransactions(txns []*domain.Transaction, start time.Time, combineInstallments bool) []*domain.Transaction {
	out := make([]*domain.Transaction, 0, len(txns))
	for _, t := range txns {
		if keepInWindow(t, start, combineInstallments) {
			out = append(out, t)
		}
	}
	return out
}

func keepInWindow(t *domain.Transaction, start time.Time, combineInstallments bool) bool {
	if t.Date.IsZero() {
		return true
	}
	if combineInstallments && t.Type == domain.TypeInstallments && t.Installments != nil {
		lastLeg := t.Date.AddDate(0, t.Installments.Total-t.Installments.Number, 0)
		if !lastLeg.Before(start) {
			return true
		}
	}
	return !t.Date.Before(start)
}
