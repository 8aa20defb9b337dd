package services

import (
	"sort"
	"time"

	"carteira/internal/core"
	"carteira/internal/state"
)

// billCycle resolves which month's bill a charge lands on: a charge dated
// on or after the card's closing day rolls into the next month's bill.
func billCycle(d time.Time, closingDay int) (time.Month, int) {
	if d.Day() >= closingDay {
		return core.NextMonth(d.Month(), d.Year())
	}
	return d.Month(), d.Year()
}

// Statement computes one card's bill for the selected month/year cycle.
func (e *Engine) Statement(cardID int64, month time.Month, year int) (core.CardStatement, error) {
	s := e.state.Snapshot()
	card := findCreditCard(s.CreditCards, cardID)
	if card == nil {
		return core.CardStatement{}, core.ErrNotFound
	}
	return cardStatement(s, *card, month, year), nil
}

func cardStatement(s state.Snapshot, card core.CreditCard, month time.Month, year int) core.CardStatement {
	st := core.CardStatement{Card: card, Month: month, Year: year}

	// Map generated expense id -> settlement, so the effective bill date of
	// an auto-generated row is the moment it was actually charged.
	generatedBy := make(map[int64]*core.FixedPayment)
	for i := range s.FixedPayments {
		p := &s.FixedPayments[i]
		if p.GeneratedExpenseID != 0 {
			generatedBy[p.GeneratedExpenseID] = p
		}
	}

	for _, exp := range s.Expenses {
		if exp.CreditCardID != card.ID {
			continue
		}
		payment, isGenerated := generatedBy[exp.ID]

		if !isGenerated {
			st.CommittedTotal.Cents += exp.Amount.Cents
		}

		effective := exp.Date.Time
		if isGenerated {
			effective = payment.PaidAt
		}
		if m, y := billCycle(effective, card.ClosingDay); m == month && y == year {
			st.CurrentTotal.Cents += exp.Amount.Cents
			lineType := core.LineVariable
			if isGenerated {
				lineType = core.LineFixedPaid
			}
			st.Lines = append(st.Lines, core.StatementLine{
				Type:        lineType,
				Description: exp.Description,
				Amount:      exp.Amount,
				Date:        exp.Date,
			})
		}
	}

	// Forward projection: unpaid active fixed items whose theoretical due
	// date resolves into this cycle. The prior month is checked too because
	// a due day on or after the closing day rolls forward.
	prevMonth, prevYear := core.PrevMonth(month, year)
	for _, fe := range s.FixedExpenses {
		if fe.CreditCardID != card.ID {
			continue
		}
		st.CommittedTotal.Cents += fe.Amount.Cents

		for _, bucket := range []core.MonthFilter{
			{Month: month, Year: year},
			{Month: prevMonth, Year: prevYear},
		} {
			if !ActiveInMonth(fe.EffectiveFrom, fe.EffectiveUntil, bucket.Month, bucket.Year) {
				continue
			}
			if findFixedPayment(s.FixedPayments, fe.ID, bucket.Month, bucket.Year) != nil {
				continue
			}
			due := core.NewDate(bucket.Year, bucket.Month, core.ClampDay(fe.DueDay, bucket.Year, bucket.Month))
			if m, y := billCycle(due.Time, card.ClosingDay); m == month && y == year {
				st.PendingTotal.Cents += fe.Amount.Cents
				st.Lines = append(st.Lines, core.StatementLine{
					Type:        core.LineFixedExpected,
					Description: fe.Name,
					Amount:      fe.Amount,
					Date:        due,
				})
			}
		}
	}

	st.ProjectedTotal = core.Money{Cents: st.CurrentTotal.Cents + st.PendingTotal.Cents}
	st.AvailableLimit = card.Limit.Sub(st.CommittedTotal)

	if p := findCardPayment(s.CreditCardPayments, card.ID, month, year); p != nil {
		st.Paid = true
		st.PaidAt = p.PaidAt
	}

	sort.SliceStable(st.Lines, func(i, j int) bool {
		return st.Lines[i].Date.Before(st.Lines[j].Date.Time)
	})
	return st
}

// CardsSummary aggregates every card's statement for the combined
// utilization view.
func (e *Engine) CardsSummary(month time.Month, year int) core.CardsSummary {
	s := e.state.Snapshot()

	out := core.CardsSummary{Month: month, Year: year}
	for _, card := range s.CreditCards {
		st := cardStatement(s, card, month, year)
		out.TotalLimit.Cents += card.Limit.Cents
		out.TotalCommitted.Cents += st.CommittedTotal.Cents
		out.TotalCurrent.Cents += st.CurrentTotal.Cents
		out.TotalProjected.Cents += st.ProjectedTotal.Cents
		out.Cards = append(out.Cards, st)
	}
	return out
}
