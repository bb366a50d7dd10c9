package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"muscleup/internal/amqp"
	"muscleup/internal/core"
)

// SyncInfo is the outcome of one synchronization attempt. Failures ride
// here as data so the mutation that triggered the sync never rolls back.
type SyncInfo struct {
	Synchronized    bool       `json:"synchronized"`
	Reason          string     `json:"reason,omitempty"`
	Error           string     `json:"error,omitempty"`
	CutID           string     `json:"cut_id,omitempty"`
	CutNumber       string     `json:"cut_number,omitempty"`
	ExpenseCount    int        `json:"expense_count"`
	PreviousAmount  core.Money `json:"previous_expenses_amount"`
	NewAmount       core.Money `json:"new_expenses_amount"`
	Difference      core.Money `json:"difference"`
	PreviousBalance core.Money `json:"previous_final_balance"`
	NewBalance      core.Money `json:"new_final_balance"`
}

// CutSynchronizer keeps a cut's expense-derived columns consistent with
// the expense ledger. Each run is a full recompute, so re-running with
// no intervening change yields identical output.
type CutSynchronizer struct {
	expenses   ExpenseReader
	cuts       CutStore
	amqpClient *amqp.Client
}

func NewCutSynchronizer(expenses ExpenseReader, cuts CutStore, amqpClient *amqp.Client) *CutSynchronizer {
	return &CutSynchronizer{
		expenses:   expenses,
		cuts:       cuts,
		amqpClient: amqpClient,
	}
}

// SyncDate recomputes the active expense total for date and rewrites the
// matching cut, if one exists. A date without a cut is a normal outcome,
// not an error.
func (s *CutSynchronizer) SyncDate(ctx context.Context, date, actor string) SyncInfo {
	if _, err := core.ParseCivilDate(date); err != nil {
		return SyncInfo{Error: err.Error()}
	}

	list, err := s.expenses.ActiveExpensesByDate(ctx, date)
	if err != nil {
		slog.ErrorContext(ctx, "Cut sync failed to read expenses", "date", date, "error", err)
		return SyncInfo{Error: err.Error()}
	}
	totals := core.SumExpenses(list)

	cut, err := s.cuts.CutByDate(ctx, date)
	if errors.Is(err, core.ErrNotFound) {
		slog.DebugContext(ctx, "No cut for date, nothing to synchronize", "date", date)
		return SyncInfo{
			Reason:       "no cut for this date",
			ExpenseCount: totals.Count,
			NewAmount:    totals.Amount,
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "Cut sync failed to read cut", "date", date, "error", err)
		return SyncInfo{Error: err.Error()}
	}

	newBalance := core.Money{Cents: cut.GrandTotal.Cents - totals.Amount.Cents}
	now := time.Now().UTC()

	if err := s.cuts.UpdateCutSync(ctx, cut.ID, totals.Amount, newBalance, actor, now); err != nil {
		slog.ErrorContext(ctx, "Cut sync failed to update cut",
			"date", date,
			"cut_id", cut.ID,
			"error", err)
		return SyncInfo{Error: err.Error()}
	}

	info := SyncInfo{
		Synchronized:    true,
		CutID:           cut.ID,
		CutNumber:       cut.CutNumber,
		ExpenseCount:    totals.Count,
		PreviousAmount:  cut.ExpensesAmount,
		NewAmount:       totals.Amount,
		Difference:      core.Money{Cents: totals.Amount.Cents - cut.ExpensesAmount.Cents},
		PreviousBalance: cut.FinalBalance,
		NewBalance:      newBalance,
	}

	slog.InfoContext(ctx, "Cut synchronized",
		"date", date,
		"cut_number", cut.CutNumber,
		"expenses_amount_cents", totals.Amount.Cents,
		"final_balance_cents", newBalance.Cents,
		"difference_cents", info.Difference.Cents)

	s.publishSynchronized(ctx, date, cut, totals.Amount, newBalance, actor)

	return info
}

func (s *CutSynchronizer) publishSynchronized(ctx context.Context, date string, cut core.CashCut, expensesAmount, finalBalance core.Money, actor string) {
	if s.amqpClient == nil {
		return
	}

	msg := &amqp.CutSynchronizedMessage{
		CutID:               cut.ID,
		CutDate:             date,
		CutNumber:           cut.CutNumber,
		ExpensesAmountCents: expensesAmount.Cents,
		FinalBalanceCents:   finalBalance.Cents,
		Actor:               actor,
		Timestamp:           time.Now(),
	}
	if err := s.amqpClient.PublishCutSynchronized(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish cut synchronized message",
			"cut_id", cut.ID, "error", err)
	}
}
