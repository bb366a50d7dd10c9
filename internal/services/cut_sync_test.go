package services

import (
	"context"
	"errors"
	"testing"

	"muscleup/internal/core"
)

func cutForDate(date string, grandTotalCents int64) core.CashCut {
	return core.CashCut{
		ID:           "cut-" + date,
		CutDate:      date,
		CutNumber:    "CUT-001",
		GrandTotal:   core.Money{Cents: grandTotalCents},
		FinalBalance: core.Money{Cents: grandTotalCents},
	}
}

func TestSyncDateWithExistingCut(t *testing.T) {
	expenses := newFakeExpenseStore()
	expenses.expenses["e1"] = core.Expense{
		ID:     "e1",
		Date:   "2025-01-10",
		Amount: core.Money{Cents: 20000},
		Status: core.ExpenseActive,
	}
	cuts := newFakeCutStore()
	cuts.cuts["2025-01-10"] = cutForDate("2025-01-10", 15000)

	info := NewCutSynchronizer(expenses, cuts, nil).SyncDate(context.Background(), "2025-01-10", "user-1")

	if !info.Synchronized {
		t.Fatalf("SyncDate not synchronized: %+v", info)
	}
	if info.NewAmount.Cents != 20000 {
		t.Errorf("new amount = %d, want 20000", info.NewAmount.Cents)
	}
	if info.NewBalance.Cents != -5000 {
		t.Errorf("new balance = %d, want -5000", info.NewBalance.Cents)
	}
	if info.Difference.Cents != 20000 {
		t.Errorf("difference = %d, want 20000", info.Difference.Cents)
	}
	if info.CutNumber != "CUT-001" {
		t.Errorf("cut number = %q, want CUT-001", info.CutNumber)
	}

	stored := cuts.cuts["2025-01-10"]
	if stored.ExpensesAmount.Cents != 20000 || stored.FinalBalance.Cents != -5000 {
		t.Errorf("stored cut = expenses %d balance %d, want 20000 / -5000",
			stored.ExpensesAmount.Cents, stored.FinalBalance.Cents)
	}
	if stored.UpdatedBy != "user-1" {
		t.Errorf("updated_by = %q, want user-1", stored.UpdatedBy)
	}
}

func TestSyncDateAfterSoftDelete(t *testing.T) {
	expenses := newFakeExpenseStore()
	expenses.expenses["e1"] = core.Expense{
		ID:     "e1",
		Date:   "2025-01-10",
		Amount: core.Money{Cents: 20000},
		Status: core.ExpenseDeleted,
	}
	cuts := newFakeCutStore()
	cut := cutForDate("2025-01-10", 15000)
	cut.ExpensesAmount = core.Money{Cents: 20000}
	cut.FinalBalance = core.Money{Cents: -5000}
	cuts.cuts["2025-01-10"] = cut

	info := NewCutSynchronizer(expenses, cuts, nil).SyncDate(context.Background(), "2025-01-10", "user-1")

	if !info.Synchronized {
		t.Fatalf("SyncDate not synchronized: %+v", info)
	}
	if info.NewAmount.Cents != 0 {
		t.Errorf("new amount = %d, want 0", info.NewAmount.Cents)
	}
	if info.NewBalance.Cents != 15000 {
		t.Errorf("new balance = %d, want 15000", info.NewBalance.Cents)
	}
	if info.Difference.Cents != -20000 {
		t.Errorf("difference = %d, want -20000", info.Difference.Cents)
	}
}

func TestSyncDateWithoutCut(t *testing.T) {
	sync := NewCutSynchronizer(newFakeExpenseStore(), newFakeCutStore(), nil)

	info := sync.SyncDate(context.Background(), "2025-01-10", "user-1")

	if info.Synchronized {
		t.Error("SyncDate synchronized without a cut")
	}
	if info.Error != "" {
		t.Errorf("absence of a cut should not be an error, got %q", info.Error)
	}
	if info.Reason == "" {
		t.Error("expected a reason for skipping synchronization")
	}
}

func TestSyncDateIdempotent(t *testing.T) {
	expenses := newFakeExpenseStore()
	expenses.expenses["e1"] = core.Expense{
		ID:     "e1",
		Date:   "2025-01-10",
		Amount: core.Money{Cents: 7500},
		Status: core.ExpenseActive,
	}
	cuts := newFakeCutStore()
	cuts.cuts["2025-01-10"] = cutForDate("2025-01-10", 50000)

	sync := NewCutSynchronizer(expenses, cuts, nil)

	first := sync.SyncDate(context.Background(), "2025-01-10", "user-1")
	second := sync.SyncDate(context.Background(), "2025-01-10", "user-1")

	if !first.Synchronized || !second.Synchronized {
		t.Fatalf("expected both runs synchronized: %+v / %+v", first, second)
	}
	if second.NewAmount != first.NewAmount || second.NewBalance != first.NewBalance {
		t.Errorf("rerun changed amounts: first %+v, second %+v", first, second)
	}
	if second.Difference.Cents != 0 {
		t.Errorf("rerun difference = %d, want 0", second.Difference.Cents)
	}
}

func TestSyncDateInvalidDate(t *testing.T) {
	sync := NewCutSynchronizer(newFakeExpenseStore(), newFakeCutStore(), nil)

	info := sync.SyncDate(context.Background(), "not-a-date", "user-1")

	if info.Synchronized {
		t.Error("SyncDate synchronized an invalid date")
	}
	if info.Error == "" {
		t.Error("expected an error for invalid date")
	}
}

func TestSyncDateStorageFailure(t *testing.T) {
	expenses := newFakeExpenseStore()
	cuts := newFakeCutStore()
	cuts.failErr = errors.New("database locked")

	info := NewCutSynchronizer(expenses, cuts, nil).SyncDate(context.Background(), "2025-01-10", "user-1")

	if info.Synchronized {
		t.Error("SyncDate synchronized despite storage failure")
	}
	if info.Error == "" {
		t.Error("expected storage failure to surface in Error")
	}
}
