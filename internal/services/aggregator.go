package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"muscleup/internal/core"
)

// AggregationFailed reports which revenue stream's query failed. The
// aggregate is all-or-nothing; a partial result is never returned.
type AggregationFailed struct {
	Stream string
	Err    error
}

func (e *AggregationFailed) Error() string {
	return fmt.Sprintf("aggregate %s stream: %v", e.Stream, e.Err)
}

func (e *AggregationFailed) Unwrap() error {
	return e.Err
}

// RevenueAggregator computes the cash position for a civil day or month.
// Pure read path, no side effects.
type RevenueAggregator struct {
	payments PaymentSource
	expenses ExpenseReader
}

func NewRevenueAggregator(payments PaymentSource, expenses ExpenseReader) *RevenueAggregator {
	return &RevenueAggregator{
		payments: payments,
		expenses: expenses,
	}
}

// Daily aggregates one civil day given as YYYY-MM-DD.
func (a *RevenueAggregator) Daily(ctx context.Context, date string) (core.Aggregate, error) {
	start, end, err := core.DayRange(date)
	if err != nil {
		return core.Aggregate{}, err
	}
	return a.aggregate(ctx, date, start, end, func(ctx context.Context) ([]core.Expense, error) {
		return a.expenses.ActiveExpensesByDate(ctx, date)
	})
}

// Monthly aggregates one civil month given as YYYY-MM.
func (a *RevenueAggregator) Monthly(ctx context.Context, month string) (core.Aggregate, error) {
	start, end, firstDay, lastDay, err := core.MonthRange(month)
	if err != nil {
		return core.Aggregate{}, err
	}
	return a.aggregate(ctx, month, start, end, func(ctx context.Context) ([]core.Expense, error) {
		return a.expenses.ActiveExpensesBetween(ctx, firstDay, lastDay)
	})
}

func (a *RevenueAggregator) aggregate(ctx context.Context, period string, start, end time.Time, fetchExpenses func(context.Context) ([]core.Expense, error)) (core.Aggregate, error) {
	var (
		pos         core.StreamTotals
		abonos      core.StreamTotals
		memberships core.StreamTotals
		expenses    core.ExpenseTotals
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := a.payments.POSPayments(gctx, start, end)
		if err != nil {
			return &AggregationFailed{Stream: "pos", Err: err}
		}
		pos = core.BucketPayments(rows)
		return nil
	})

	g.Go(func() error {
		rows, err := a.payments.LayawayPayments(gctx, start, end)
		if err != nil {
			return &AggregationFailed{Stream: "abonos", Err: err}
		}
		abonos = core.BucketPayments(rows)
		return nil
	})

	g.Go(func() error {
		rows, err := a.payments.MembershipPayments(gctx, start, end)
		if err != nil {
			return &AggregationFailed{Stream: "memberships", Err: err}
		}
		memberships = core.BucketPayments(rows)
		return nil
	})

	g.Go(func() error {
		list, err := fetchExpenses(gctx)
		if err != nil {
			return &AggregationFailed{Stream: "expenses", Err: err}
		}
		expenses = core.SumExpenses(list)
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.Aggregate{}, err
	}

	logUnrecognized(ctx, period, "pos", pos.Unrecognized)
	logUnrecognized(ctx, period, "abonos", abonos.Unrecognized)
	logUnrecognized(ctx, period, "memberships", memberships.Unrecognized)

	return core.Merge(period, pos, abonos, memberships, expenses), nil
}

func logUnrecognized(ctx context.Context, period, stream string, methods []string) {
	for _, m := range methods {
		slog.WarnContext(ctx, "Unrecognized payment method, counted as efectivo",
			"period", period,
			"stream", stream,
			"method", m)
	}
}
