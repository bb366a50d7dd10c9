package core

// PaymentRow is one payment leg as read from storage, before bucketing.
// EntityID is the business entity the payment belongs to (sale id for
// POS and layaway rows, membership id for membership rows); transaction
// counts deduplicate on it, never on the row.
type PaymentRow struct {
	EntityID        string
	Method          string // free-form, normalized during bucketing
	AmountCents     int64  // gross charge, commission already included
	CommissionCents int64  // informational, never added to totals
}

// StreamTotals is the aggregate of one revenue stream.
type StreamTotals struct {
	Methods      MethodAmounts `json:"-"`
	Transactions int           `json:"transactions"`
	Commissions  Money         `json:"commissions"`

	// Unrecognized holds the raw method strings that fell back to the
	// efectivo bucket, for logging by the caller.
	Unrecognized []string `json:"-"`
}

// ExpenseTotals is the expense side of an aggregate.
type ExpenseTotals struct {
	Amount Money `json:"amount"`
	Count  int   `json:"count"`
}

// CombinedTotals merges the three revenue streams and the expense total.
type CombinedTotals struct {
	Methods      MethodAmounts `json:"-"`
	Transactions int           `json:"transactions"`
	Commissions  Money         `json:"commissions"`
	NetAmount    Money         `json:"net_amount"`
}

// Aggregate is the full cash position for one day or month.
type Aggregate struct {
	Period       string // the YYYY-MM-DD or YYYY-MM input
	POS          StreamTotals
	Abonos       StreamTotals
	Memberships  StreamTotals
	Expenses     ExpenseTotals
	Totals       CombinedTotals
	GrandTotal   Money
	FinalBalance Money
}

// BucketPayments folds payment rows into per-method totals. Amounts are
// commission-inclusive, so only AmountCents feeds the buckets; the
// commission column is summed separately and never re-added. Transaction
// count is the number of distinct entity IDs seen.
func BucketPayments(rows []PaymentRow) StreamTotals {
	var out StreamTotals
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		method, recognized := NormalizeMethod(row.Method)
		if !recognized {
			out.Unrecognized = append(out.Unrecognized, row.Method)
		}
		out.Methods.Add(method, Money{Cents: row.AmountCents})
		out.Commissions.Cents += row.CommissionCents
		if _, dup := seen[row.EntityID]; !dup {
			seen[row.EntityID] = struct{}{}
			out.Transactions++
		}
	}
	return out
}

// SumExpenses totals active expense entries.
func SumExpenses(expenses []Expense) ExpenseTotals {
	var out ExpenseTotals
	for _, e := range expenses {
		out.Amount.Cents += e.Amount.Cents
		out.Count++
	}
	return out
}

// Merge combines the stream totals into the final aggregate for period.
func Merge(period string, pos, abonos, memberships StreamTotals, expenses ExpenseTotals) Aggregate {
	agg := Aggregate{
		Period:      period,
		POS:         pos,
		Abonos:      abonos,
		Memberships: memberships,
		Expenses:    expenses,
	}

	agg.Totals.Methods.Efectivo.Cents = pos.Methods.Efectivo.Cents + abonos.Methods.Efectivo.Cents + memberships.Methods.Efectivo.Cents
	agg.Totals.Methods.Transferencia.Cents = pos.Methods.Transferencia.Cents + abonos.Methods.Transferencia.Cents + memberships.Methods.Transferencia.Cents
	agg.Totals.Methods.Debito.Cents = pos.Methods.Debito.Cents + abonos.Methods.Debito.Cents + memberships.Methods.Debito.Cents
	agg.Totals.Methods.Credito.Cents = pos.Methods.Credito.Cents + abonos.Methods.Credito.Cents + memberships.Methods.Credito.Cents
	agg.Totals.Methods.Total.Cents = pos.Methods.Total.Cents + abonos.Methods.Total.Cents + memberships.Methods.Total.Cents
	agg.Totals.Transactions = pos.Transactions + abonos.Transactions + memberships.Transactions
	agg.Totals.Commissions.Cents = pos.Commissions.Cents + abonos.Commissions.Cents + memberships.Commissions.Cents

	agg.GrandTotal = agg.Totals.Methods.Total
	agg.Totals.NetAmount.Cents = agg.GrandTotal.Cents - agg.Totals.Commissions.Cents
	agg.FinalBalance.Cents = agg.GrandTotal.Cents - expenses.Amount.Cents

	return agg
}
