package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"muscleup/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Timestamps are stored as fixed-width RFC3339 UTC strings so that string
// comparison in SQL matches chronological order. RFC3339Nano would not
// work here: it trims trailing zeros, and variable-length fractions break
// lexicographic ordering at range boundaries.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// POSPayments returns the payment legs of completed point-of-sale
// transactions created in [start, end).
func (r *SQLiteRepository) POSPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	rows, err := r.queries.GetPOSPayments(ctx, PaymentRangeParams{Start: formatTime(start), End: formatTime(end)})
	if err != nil {
		return nil, fmt.Errorf("get pos payments: %w", err)
	}
	return toPaymentRows(rows), nil
}

// LayawayPayments returns abono legs dated in [start, end). Legs whose
// parent layaway was cancelled are filtered out in the query.
func (r *SQLiteRepository) LayawayPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	rows, err := r.queries.GetLayawayPayments(ctx, PaymentRangeParams{Start: formatTime(start), End: formatTime(end)})
	if err != nil {
		return nil, fmt.Errorf("get layaway payments: %w", err)
	}
	return toPaymentRows(rows), nil
}

// MembershipPayments returns membership payment legs created in [start, end).
func (r *SQLiteRepository) MembershipPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	rows, err := r.queries.GetMembershipPayments(ctx, PaymentRangeParams{Start: formatTime(start), End: formatTime(end)})
	if err != nil {
		return nil, fmt.Errorf("get membership payments: %w", err)
	}
	return toPaymentRows(rows), nil
}

func toPaymentRows(rows []PaymentDetailRow) []core.PaymentRow {
	out := make([]core.PaymentRow, len(rows))
	for i, row := range rows {
		out[i] = core.PaymentRow{
			EntityID:        row.EntityID,
			Method:          row.PaymentMethod,
			AmountCents:     row.AmountCents,
			CommissionCents: row.CommissionCents,
		}
	}
	return out
}

func (r *SQLiteRepository) ActiveExpensesByDate(ctx context.Context, date string) ([]core.Expense, error) {
	rows, err := r.queries.GetActiveExpensesByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("get active expenses by date: %w", err)
	}
	return toExpenses(rows), nil
}

func (r *SQLiteRepository) ActiveExpensesBetween(ctx context.Context, firstDay, lastDay string) ([]core.Expense, error) {
	rows, err := r.queries.GetActiveExpensesBetween(ctx, firstDay, lastDay)
	if err != nil {
		return nil, fmt.Errorf("get active expenses between: %w", err)
	}
	return toExpenses(rows), nil
}

func toExpenses(rows []Expense) []core.Expense {
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = toExpense(row)
	}
	return out
}

func toExpense(row Expense) core.Expense {
	return core.Expense{
		ID:            row.ID,
		Date:          row.ExpenseDate,
		Type:          core.ExpenseType(row.ExpenseType),
		Description:   row.Description,
		Amount:        core.Money{Cents: row.AmountCents},
		ReceiptNumber: row.ReceiptNumber.String,
		Notes:         row.Notes.String,
		Status:        core.ExpenseStatus(row.Status),
		CreatedAt:     parseTime(row.CreatedAt),
		CreatedBy:     row.CreatedBy,
		UpdatedAt:     parseTime(row.UpdatedAt),
		UpdatedBy:     row.UpdatedBy,
	}
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		ID:            e.ID,
		ExpenseDate:   e.Date,
		ExpenseType:   string(e.Type),
		Description:   e.Description,
		AmountCents:   e.Amount.Cents,
		ReceiptNumber: nullString(e.ReceiptNumber),
		Notes:         nullString(e.Notes),
		CreatedAt:     formatTime(e.CreatedAt),
		CreatedBy:     e.CreatedBy,
	})
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return toExpense(row), nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	affected, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		ID:            e.ID,
		ExpenseDate:   e.Date,
		ExpenseType:   string(e.Type),
		Description:   e.Description,
		AmountCents:   e.Amount.Cents,
		ReceiptNumber: nullString(e.ReceiptNumber),
		Notes:         nullString(e.Notes),
		UpdatedAt:     formatTime(e.UpdatedAt),
		UpdatedBy:     e.UpdatedBy,
	})
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SoftDeleteExpense(ctx context.Context, id, notes, actor string, at time.Time) error {
	affected, err := r.queries.SoftDeleteExpense(ctx, SoftDeleteExpenseParams{
		ID:        id,
		Notes:     nullString(notes),
		UpdatedAt: formatTime(at),
		UpdatedBy: actor,
	})
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) HardDeleteExpense(ctx context.Context, id string) error {
	affected, err := r.queries.HardDeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("hard delete expense: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CutByDate(ctx context.Context, cutDate string) (core.CashCut, error) {
	row, err := r.queries.GetCashCutByDate(ctx, cutDate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CashCut{}, core.ErrNotFound
	}
	if err != nil {
		return core.CashCut{}, fmt.Errorf("get cash cut by date: %w", err)
	}
	return toCashCut(row), nil
}

func (r *SQLiteRepository) CutByID(ctx context.Context, id string) (core.CashCut, error) {
	row, err := r.queries.GetCashCut(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CashCut{}, core.ErrNotFound
	}
	if err != nil {
		return core.CashCut{}, fmt.Errorf("get cash cut: %w", err)
	}
	return toCashCut(row), nil
}

// UpdateCutSync rewrites the expense-derived columns of a cut. Nothing
// else on the row is touched.
func (r *SQLiteRepository) UpdateCutSync(ctx context.Context, id string, expensesAmount, finalBalance core.Money, actor string, at time.Time) error {
	affected, err := r.queries.UpdateCashCutSync(ctx, UpdateCashCutSyncParams{
		ID:                  id,
		ExpensesAmountCents: expensesAmount.Cents,
		FinalBalanceCents:   finalBalance.Cents,
		UpdatedAt:           formatTime(at),
		UpdatedBy:           actor,
	})
	if err != nil {
		return fmt.Errorf("update cash cut sync: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateCut(ctx context.Context, c core.CashCut) error {
	if err := r.queries.CreateCashCut(ctx, fromCashCut(c)); err != nil {
		return fmt.Errorf("create cash cut: %w", err)
	}
	return nil
}

func toCashCut(row CashCut) core.CashCut {
	return core.CashCut{
		ID:        row.ID,
		CutDate:   row.CutDate,
		CutNumber: row.CutNumber,
		IsManual:  row.IsManual,
		POS: core.MethodAmounts{
			Efectivo:      core.Money{Cents: row.PosEfectivoCents},
			Transferencia: core.Money{Cents: row.PosTransferenciaCents},
			Debito:        core.Money{Cents: row.PosDebitoCents},
			Credito:       core.Money{Cents: row.PosCreditoCents},
			Total:         core.Money{Cents: row.PosTotalCents},
		},
		Abonos: core.MethodAmounts{
			Efectivo:      core.Money{Cents: row.AbonosEfectivoCents},
			Transferencia: core.Money{Cents: row.AbonosTransferenciaCents},
			Debito:        core.Money{Cents: row.AbonosDebitoCents},
			Credito:       core.Money{Cents: row.AbonosCreditoCents},
			Total:         core.Money{Cents: row.AbonosTotalCents},
		},
		Memberships: core.MethodAmounts{
			Efectivo:      core.Money{Cents: row.MembershipEfectivoCents},
			Transferencia: core.Money{Cents: row.MembershipTransferenciaCents},
			Debito:        core.Money{Cents: row.MembershipDebitoCents},
			Credito:       core.Money{Cents: row.MembershipCreditoCents},
			Total:         core.Money{Cents: row.MembershipTotalCents},
		},
		Totals: core.MethodAmounts{
			Efectivo:      core.Money{Cents: row.TotalEfectivoCents},
			Transferencia: core.Money{Cents: row.TotalTransferenciaCents},
			Debito:        core.Money{Cents: row.TotalDebitoCents},
			Credito:       core.Money{Cents: row.TotalCreditoCents},
			Total:         core.Money{Cents: row.GrandTotalCents},
		},
		GrandTotal:        core.Money{Cents: row.GrandTotalCents},
		ExpensesAmount:    core.Money{Cents: row.ExpensesAmountCents},
		FinalBalance:      core.Money{Cents: row.FinalBalanceCents},
		TotalTransactions: int(row.TotalTransactions),
		TotalCommissions:  core.Money{Cents: row.TotalCommissionsCents},
		Status:            row.Status,
		Notes:             row.Notes.String,
		CreatedBy:         row.CreatedBy,
		CreatorName:       row.CreatorName.String,
		CreatedAt:         parseTime(row.CreatedAt),
		UpdatedBy:         row.UpdatedBy,
		UpdatedAt:         parseTime(row.UpdatedAt),
	}
}

func fromCashCut(c core.CashCut) CashCut {
	return CashCut{
		ID:                           c.ID,
		CutDate:                      c.CutDate,
		CutNumber:                    c.CutNumber,
		IsManual:                     c.IsManual,
		PosEfectivoCents:             c.POS.Efectivo.Cents,
		PosTransferenciaCents:        c.POS.Transferencia.Cents,
		PosDebitoCents:               c.POS.Debito.Cents,
		PosCreditoCents:              c.POS.Credito.Cents,
		PosTotalCents:                c.POS.Total.Cents,
		AbonosEfectivoCents:          c.Abonos.Efectivo.Cents,
		AbonosTransferenciaCents:     c.Abonos.Transferencia.Cents,
		AbonosDebitoCents:            c.Abonos.Debito.Cents,
		AbonosCreditoCents:           c.Abonos.Credito.Cents,
		AbonosTotalCents:             c.Abonos.Total.Cents,
		MembershipEfectivoCents:      c.Memberships.Efectivo.Cents,
		MembershipTransferenciaCents: c.Memberships.Transferencia.Cents,
		MembershipDebitoCents:        c.Memberships.Debito.Cents,
		MembershipCreditoCents:       c.Memberships.Credito.Cents,
		MembershipTotalCents:         c.Memberships.Total.Cents,
		TotalEfectivoCents:           c.Totals.Efectivo.Cents,
		TotalTransferenciaCents:      c.Totals.Transferencia.Cents,
		TotalDebitoCents:             c.Totals.Debito.Cents,
		TotalCreditoCents:            c.Totals.Credito.Cents,
		GrandTotalCents:              c.GrandTotal.Cents,
		ExpensesAmountCents:          c.ExpensesAmount.Cents,
		FinalBalanceCents:            c.FinalBalance.Cents,
		TotalTransactions:            int64(c.TotalTransactions),
		TotalCommissionsCents:        c.TotalCommissions.Cents,
		Status:                       c.Status,
		Notes:                        nullString(c.Notes),
		CreatedBy:                    c.CreatedBy,
		CreatorName:                  nullString(c.CreatorName),
		CreatedAt:                    formatTime(c.CreatedAt),
		UpdatedBy:                    c.UpdatedBy,
		UpdatedAt:                    formatTime(c.UpdatedAt),
	}
}

// HistoryFilter narrows the cut history listing. Zero values mean no
// filtering on that field.
type HistoryFilter struct {
	Search   string
	DateFrom string
	DateTo   string
	Status   string
	IsManual *bool
}

// HistorySort is a validated sort clause for the cut history listing.
type HistorySort struct {
	Column string // one of the cash_cuts columns whitelisted by the service
	Desc   bool
}

// HistoryStats aggregates all cuts matching a filter, independent of
// pagination.
type HistoryStats struct {
	Count              int64
	GrandTotalSumCents int64
	ManualCount        int64
	AutomaticCount     int64
}

func buildHistoryWhere(f HistoryFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Search != "" {
		like := "%" + f.Search + "%"
		clauses = append(clauses, "(cut_number LIKE ? OR notes LIKE ? OR creator_name LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.DateFrom != "" {
		clauses = append(clauses, "cut_date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		clauses = append(clauses, "cut_date <= ?")
		args = append(args, f.DateTo)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.IsManual != nil {
		clauses = append(clauses, "is_manual = ?")
		args = append(args, *f.IsManual)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListCuts returns one page of cuts matching the filter. The sort column
// must come from the service-side whitelist; it is interpolated into the
// query, never user input directly.
func (r *SQLiteRepository) ListCuts(ctx context.Context, f HistoryFilter, sort HistorySort, limit, offset int) ([]core.CashCut, error) {
	where, args := buildHistoryWhere(f)

	order := " ORDER BY " + sort.Column
	if sort.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	query := "SELECT " + cashCutColumns + " FROM cash_cuts" + where + order + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cuts: %w", err)
	}
	defer rows.Close()

	var cuts []core.CashCut
	for rows.Next() {
		var row CashCut
		if err := scanCashCut(rows, &row); err != nil {
			return nil, fmt.Errorf("scan cut: %w", err)
		}
		cuts = append(cuts, toCashCut(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cuts: %w", err)
	}
	return cuts, nil
}

// CutStats computes aggregates over every cut matching the filter, using
// the same predicate as ListCuts so the page and its stats agree.
func (r *SQLiteRepository) CutStats(ctx context.Context, f HistoryFilter) (HistoryStats, error) {
	where, args := buildHistoryWhere(f)

	query := `SELECT COUNT(*),
COALESCE(SUM(grand_total_cents), 0),
COALESCE(SUM(CASE WHEN is_manual THEN 1 ELSE 0 END), 0),
COALESCE(SUM(CASE WHEN is_manual THEN 0 ELSE 1 END), 0)
FROM cash_cuts` + where

	var stats HistoryStats
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.Count,
		&stats.GrandTotalSumCents,
		&stats.ManualCount,
		&stats.AutomaticCount,
	)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("cut stats: %w", err)
	}
	return stats, nil
}
