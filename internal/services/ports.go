package services

import (
	"context"
	"time"

	"muscleup/internal/core"
	"muscleup/internal/storage"
)

// PaymentSource reads payment legs for the three revenue streams over a
// UTC [start, end) window.
type PaymentSource interface {
	POSPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error)
	LayawayPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error)
	MembershipPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error)
}

// ExpenseStore persists ledger entries.
type ExpenseStore interface {
	ActiveExpensesByDate(ctx context.Context, date string) ([]core.Expense, error)
	ActiveExpensesBetween(ctx context.Context, firstDay, lastDay string) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	SoftDeleteExpense(ctx context.Context, id, notes, actor string, at time.Time) error
	HardDeleteExpense(ctx context.Context, id string) error
}

// ExpenseReader is the read-only slice of ExpenseStore used by the
// aggregator and the synchronizer.
type ExpenseReader interface {
	ActiveExpensesByDate(ctx context.Context, date string) ([]core.Expense, error)
	ActiveExpensesBetween(ctx context.Context, firstDay, lastDay string) ([]core.Expense, error)
}

// CutStore persists and queries daily cash cuts.
type CutStore interface {
	CutByDate(ctx context.Context, cutDate string) (core.CashCut, error)
	CutByID(ctx context.Context, id string) (core.CashCut, error)
	UpdateCutSync(ctx context.Context, id string, expensesAmount, finalBalance core.Money, actor string, at time.Time) error
	ListCuts(ctx context.Context, f storage.HistoryFilter, sort storage.HistorySort, limit, offset int) ([]core.CashCut, error)
	CutStats(ctx context.Context, f storage.HistoryFilter) (storage.HistoryStats, error)
}
