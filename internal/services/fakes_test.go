package services

import (
	"context"
	"time"

	"muscleup/internal/core"
	"muscleup/internal/storage"
)

type fakePayments struct {
	pos         []core.PaymentRow
	abonos      []core.PaymentRow
	memberships []core.PaymentRow

	failStream string
	failErr    error
}

func (f *fakePayments) POSPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	if f.failStream == "pos" {
		return nil, f.failErr
	}
	return f.pos, nil
}

func (f *fakePayments) LayawayPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	if f.failStream == "abonos" {
		return nil, f.failErr
	}
	return f.abonos, nil
}

func (f *fakePayments) MembershipPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	if f.failStream == "memberships" {
		return nil, f.failErr
	}
	return f.memberships, nil
}

type fakeExpenseStore struct {
	expenses map[string]core.Expense
	failErr  error
}

func newFakeExpenseStore() *fakeExpenseStore {
	return &fakeExpenseStore{expenses: make(map[string]core.Expense)}
}

func (f *fakeExpenseStore) ActiveExpensesByDate(ctx context.Context, date string) ([]core.Expense, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	var out []core.Expense
	for _, e := range f.expenses {
		if e.Date == date && e.Status == core.ExpenseActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenseStore) ActiveExpensesBetween(ctx context.Context, firstDay, lastDay string) ([]core.Expense, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	var out []core.Expense
	for _, e := range f.expenses {
		if e.Date >= firstDay && e.Date <= lastDay && e.Status == core.ExpenseActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenseStore) CreateExpense(ctx context.Context, e core.Expense) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeExpenseStore) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (f *fakeExpenseStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	existing, ok := f.expenses[e.ID]
	if !ok || existing.Status != core.ExpenseActive {
		return core.ErrNotFound
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeExpenseStore) SoftDeleteExpense(ctx context.Context, id, notes, actor string, at time.Time) error {
	e, ok := f.expenses[id]
	if !ok || e.Status != core.ExpenseActive {
		return core.ErrNotFound
	}
	e.Status = core.ExpenseDeleted
	e.Notes = notes
	e.UpdatedAt = at
	e.UpdatedBy = actor
	f.expenses[id] = e
	return nil
}

func (f *fakeExpenseStore) HardDeleteExpense(ctx context.Context, id string) error {
	if _, ok := f.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

type fakeCutStore struct {
	cuts    map[string]core.CashCut // keyed by cut_date
	failErr error

	listResult []core.CashCut
	stats      storage.HistoryStats

	lastFilter storage.HistoryFilter
	lastSort   storage.HistorySort
	lastLimit  int
	lastOffset int
}

func newFakeCutStore() *fakeCutStore {
	return &fakeCutStore{cuts: make(map[string]core.CashCut)}
}

func (f *fakeCutStore) CutByDate(ctx context.Context, cutDate string) (core.CashCut, error) {
	if f.failErr != nil {
		return core.CashCut{}, f.failErr
	}
	c, ok := f.cuts[cutDate]
	if !ok {
		return core.CashCut{}, core.ErrNotFound
	}
	return c, nil
}

func (f *fakeCutStore) CutByID(ctx context.Context, id string) (core.CashCut, error) {
	for _, c := range f.cuts {
		if c.ID == id {
			return c, nil
		}
	}
	return core.CashCut{}, core.ErrNotFound
}

func (f *fakeCutStore) UpdateCutSync(ctx context.Context, id string, expensesAmount, finalBalance core.Money, actor string, at time.Time) error {
	for date, c := range f.cuts {
		if c.ID == id {
			c.ExpensesAmount = expensesAmount
			c.FinalBalance = finalBalance
			c.UpdatedBy = actor
			c.UpdatedAt = at
			f.cuts[date] = c
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeCutStore) ListCuts(ctx context.Context, filter storage.HistoryFilter, sort storage.HistorySort, limit, offset int) ([]core.CashCut, error) {
	f.lastFilter = filter
	f.lastSort = sort
	f.lastLimit = limit
	f.lastOffset = offset
	return f.listResult, nil
}

func (f *fakeCutStore) CutStats(ctx context.Context, filter storage.HistoryFilter) (storage.HistoryStats, error) {
	f.lastFilter = filter
	return f.stats, nil
}
