package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"muscleup/internal/amqp"
	"muscleup/internal/core"
)

// ExpenseService orchestrates ledger mutations: persist first, then
// best-effort cut synchronization and event publishing. Sync and publish
// failures never roll back the mutation.
type ExpenseService struct {
	store      ExpenseStore
	sync       *CutSynchronizer
	amqpClient *amqp.Client
}

func NewExpenseService(store ExpenseStore, sync *CutSynchronizer, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		store:      store,
		sync:       sync,
		amqpClient: amqpClient,
	}
}

// Create validates and persists a new active expense, then synchronizes
// the cut for its date.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense, actor string) (core.Expense, SyncInfo, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, SyncInfo{}, err
	}

	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.Status = core.ExpenseActive
	e.CreatedAt = now
	e.CreatedBy = actor
	e.UpdatedAt = now
	e.UpdatedBy = actor

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, SyncInfo{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"id", e.ID,
		"date", e.Date,
		"type", e.Type,
		"amount_cents", e.Amount.Cents,
		"actor", actor)

	info := s.sync.SyncDate(ctx, e.Date, actor)
	s.publishChanged(ctx, e.ID, e.Date, "created", actor)

	return e, info, nil
}

// Update overwrites the mutable fields of an active expense. When the
// expense moves to another date, both the old and the new date are
// resynchronized so neither day's cut goes stale.
func (s *ExpenseService) Update(ctx context.Context, id string, in core.Expense, actor string) (core.Expense, SyncInfo, error) {
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, SyncInfo{}, err
	}
	if existing.Status != core.ExpenseActive {
		return core.Expense{}, SyncInfo{}, core.ErrNotFound
	}

	updated := existing
	updated.Date = in.Date
	updated.Type = in.Type
	updated.Description = in.Description
	updated.Amount = in.Amount
	updated.ReceiptNumber = in.ReceiptNumber
	updated.Notes = in.Notes
	if err := updated.Validate(); err != nil {
		return core.Expense{}, SyncInfo{}, err
	}
	updated.UpdatedAt = time.Now().UTC()
	updated.UpdatedBy = actor

	if err := s.store.UpdateExpense(ctx, updated); err != nil {
		return core.Expense{}, SyncInfo{}, err
	}

	slog.InfoContext(ctx, "Expense updated",
		"id", id,
		"date", updated.Date,
		"amount_cents", updated.Amount.Cents,
		"actor", actor)

	if existing.Date != updated.Date {
		oldInfo := s.sync.SyncDate(ctx, existing.Date, actor)
		if oldInfo.Error != "" {
			slog.ErrorContext(ctx, "Failed to resynchronize previous date",
				"id", id,
				"date", existing.Date,
				"error", oldInfo.Error)
		}
		s.publishChanged(ctx, id, existing.Date, "updated", actor)
	}

	info := s.sync.SyncDate(ctx, updated.Date, actor)
	s.publishChanged(ctx, id, updated.Date, "updated", actor)

	return updated, info, nil
}

// Delete removes an expense. Soft deletion keeps the row for audit and
// only applies to active expenses; hard deletion drops the row outright.
// Either way the date's cut is resynchronized afterwards.
func (s *ExpenseService) Delete(ctx context.Context, id string, hard bool, actor string) (core.Expense, SyncInfo, error) {
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, SyncInfo{}, err
	}

	now := time.Now().UTC()

	if hard {
		if err := s.store.HardDeleteExpense(ctx, id); err != nil {
			return core.Expense{}, SyncInfo{}, err
		}
	} else {
		if existing.Status != core.ExpenseActive {
			return core.Expense{}, SyncInfo{}, core.ErrNotFound
		}
		notes := deletionNote(existing.Notes, actor, now)
		if err := s.store.SoftDeleteExpense(ctx, id, notes, actor, now); err != nil {
			return core.Expense{}, SyncInfo{}, err
		}
		existing.Notes = notes
		existing.Status = core.ExpenseDeleted
	}
	existing.UpdatedAt = now
	existing.UpdatedBy = actor

	slog.InfoContext(ctx, "Expense deleted",
		"id", id,
		"date", existing.Date,
		"hard", hard,
		"actor", actor)

	info := s.sync.SyncDate(ctx, existing.Date, actor)
	s.publishChanged(ctx, id, existing.Date, "deleted", actor)

	return existing, info, nil
}

func deletionNote(notes, actor string, at time.Time) string {
	marker := fmt.Sprintf("[deleted by %s at %s]", actor, at.Format(time.RFC3339))
	if strings.TrimSpace(notes) == "" {
		return marker
	}
	return notes + " " + marker
}

// TypeSummary is the per-category slice of a day's ledger.
type TypeSummary struct {
	Type  core.ExpenseType `json:"type"`
	Count int              `json:"count"`
	Total core.Money       `json:"total"`
}

// DayLedger is the full listing for one civil date.
type DayLedger struct {
	Date     string         `json:"date"`
	Expenses []core.Expense `json:"expenses"`
	Total    core.Money     `json:"total"`
	Count    int            `json:"count"`
	ByType   []TypeSummary  `json:"by_type"`
}

// ListDay returns the active expenses for a civil date, newest first,
// with a total and a per-type breakdown.
func (s *ExpenseService) ListDay(ctx context.Context, date string) (DayLedger, error) {
	if _, err := core.ParseCivilDate(date); err != nil {
		return DayLedger{}, err
	}

	list, err := s.store.ActiveExpensesByDate(ctx, date)
	if err != nil {
		return DayLedger{}, fmt.Errorf("list day expenses: %w", err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	totals := core.SumExpenses(list)

	byType := make(map[core.ExpenseType]*TypeSummary)
	for _, e := range list {
		summary, ok := byType[e.Type]
		if !ok {
			summary = &TypeSummary{Type: e.Type}
			byType[e.Type] = summary
		}
		summary.Count++
		summary.Total.Cents += e.Amount.Cents
	}

	ledger := DayLedger{
		Date:     date,
		Expenses: list,
		Total:    totals.Amount,
		Count:    totals.Count,
	}
	for _, t := range core.ExpenseTypes {
		if summary, ok := byType[t]; ok {
			ledger.ByType = append(ledger.ByType, *summary)
		}
	}

	return ledger, nil
}

// IsValidationError reports whether err should map to a bad-request
// response rather than a server failure.
func IsValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidExpense) || errors.Is(err, core.ErrInvalidRange) || errors.Is(err, core.ErrInvalidAmount)
}

func (s *ExpenseService) publishChanged(ctx context.Context, id, date, action, actor string) {
	if s.amqpClient == nil {
		return
	}

	msg := amqp.NewExpenseChangedMessage(id, date, action, actor)
	if err := s.amqpClient.PublishExpenseChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense changed message",
			"id", id,
			"date", date,
			"action", action,
			"error", err)
	}
}
