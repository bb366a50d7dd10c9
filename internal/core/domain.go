package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MethodEfectivo      PaymentMethod = "efectivo"
	MethodTransferencia PaymentMethod = "transferencia"
	MethodDebito        PaymentMethod = "debito"
	MethodCredito       PaymentMethod = "credito"
)

const (
	SaleTypeSale    = "sale"
	SaleTypeLayaway = "layaway"

	SaleStatusCompleted = "completed"
	SaleStatusPending   = "pending"
	SaleStatusCancelled = "cancelled"
	SaleStatusRefunded  = "refunded"
	SaleStatusExpired   = "expired"
)

const (
	ExpenseActive  ExpenseStatus = "active"
	ExpenseDeleted ExpenseStatus = "deleted"
)

type (
	PaymentMethod string
	ExpenseType   string
	ExpenseStatus string

	// Expense is a single ledger entry scoped to a civil date.
	// Soft-deleted entries keep their row for audit and are excluded
	// from every aggregation.
	Expense struct {
		ID            string        `json:"id"`
		Date          string        `json:"expense_date"` // YYYY-MM-DD
		Type          ExpenseType   `json:"expense_type"`
		Description   string        `json:"description"`
		Amount        Money         `json:"amount"`
		ReceiptNumber string        `json:"receipt_number,omitempty"`
		Notes         string        `json:"notes,omitempty"`
		Status        ExpenseStatus `json:"status"`
		CreatedAt     time.Time     `json:"created_at"`
		CreatedBy     string        `json:"created_by"`
		UpdatedAt     time.Time     `json:"updated_at"`
		UpdatedBy     string        `json:"updated_by"`
	}

	// MethodAmounts is a per-payment-method breakdown plus its sum.
	MethodAmounts struct {
		Efectivo      Money `json:"efectivo"`
		Transferencia Money `json:"transferencia"`
		Debito        Money `json:"debito"`
		Credito       Money `json:"credito"`
		Total         Money `json:"total"`
	}

	// CashCut is the denormalized daily snapshot, keyed by cut date
	// (at most one per date). The synchronizer only ever rewrites
	// ExpensesAmount, FinalBalance and the update stamps; everything
	// else is fixed at creation time.
	CashCut struct {
		ID                string        `json:"id"`
		CutDate           string        `json:"cut_date"` // YYYY-MM-DD
		CutNumber         string        `json:"cut_number"`
		IsManual          bool          `json:"is_manual"`
		POS               MethodAmounts `json:"pos"`
		Abonos            MethodAmounts `json:"abonos"`
		Memberships       MethodAmounts `json:"memberships"`
		Totals            MethodAmounts `json:"totals"`
		GrandTotal        Money         `json:"grand_total"`
		ExpensesAmount    Money         `json:"expenses_amount"`
		FinalBalance      Money         `json:"final_balance"`
		TotalTransactions int           `json:"total_transactions"`
		TotalCommissions  Money         `json:"total_commissions"`
		Status            string        `json:"status"`
		Notes             string        `json:"notes,omitempty"`
		CreatedBy         string        `json:"created_by"`
		CreatorName       string        `json:"creator_name,omitempty"`
		CreatedAt         time.Time     `json:"created_at"`
		UpdatedBy         string        `json:"updated_by"`
		UpdatedAt         time.Time     `json:"updated_at"`
	}
)

// ExpenseTypes is the closed set of ledger categories.
var ExpenseTypes = []ExpenseType{
	"nomina",
	"suplementos",
	"servicios",
	"mantenimiento",
	"limpieza",
	"marketing",
	"equipamiento",
	"otros",
}

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidRange   = errors.New("invalid date range")
	ErrInvalidExpense = errors.New("invalid expense")
	ErrNotFound       = errors.New("not found")
)

// NormalizeMethod maps a free-form payment method string onto the four
// recognized buckets. Unrecognized values fall back to efectivo; the
// second return reports whether the value was recognized so callers can
// log the fallback.
func NormalizeMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodEfectivo:
		return MethodEfectivo, true
	case MethodTransferencia:
		return MethodTransferencia, true
	case MethodDebito:
		return MethodDebito, true
	case MethodCredito:
		return MethodCredito, true
	default:
		return MethodEfectivo, false
	}
}

func (t ExpenseType) Valid() bool {
	for _, known := range ExpenseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Validate checks the caller-supplied fields of an expense. Audit stamps
// and status are filled by the service, not validated here.
func (e Expense) Validate() error {
	if _, err := ParseCivilDate(e.Date); err != nil {
		return fmt.Errorf("%w: expense_date %q", ErrInvalidExpense, e.Date)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown expense_type %q", ErrInvalidExpense, e.Type)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: empty description", ErrInvalidExpense)
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidExpense)
	}
	if e.Amount.Cents <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidExpense)
	}
	return nil
}

// Add accumulates amount into the bucket for method and into the total.
func (m *MethodAmounts) Add(method PaymentMethod, amount Money) {
	switch method {
	case MethodTransferencia:
		m.Transferencia.Cents += amount.Cents
	case MethodDebito:
		m.Debito.Cents += amount.Cents
	case MethodCredito:
		m.Credito.Cents += amount.Cents
	default:
		m.Efectivo.Cents += amount.Cents
	}
	m.Total.Cents += amount.Cents
}

// CheckBalance verifies the two cut invariants:
// grand_total = pos_total + abonos_total + membership_total and
// final_balance = grand_total - expenses_amount.
func (c CashCut) CheckBalance() error {
	if sum := c.POS.Total.Cents + c.Abonos.Total.Cents + c.Memberships.Total.Cents; sum != c.GrandTotal.Cents {
		return fmt.Errorf("cut %s: grand_total %d does not match stream sum %d", c.CutNumber, c.GrandTotal.Cents, sum)
	}
	if want := c.GrandTotal.Cents - c.ExpensesAmount.Cents; want != c.FinalBalance.Cents {
		return fmt.Errorf("cut %s: final_balance %d does not match grand_total-expenses %d", c.CutNumber, c.FinalBalance.Cents, want)
	}
	return nil
}
