package storage

import (
	"context"
	"database/sql"
)

// DBTX matches both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// PaymentDetailRow is one payment leg with the id of the business entity
// it belongs to.
type PaymentDetailRow struct {
	EntityID        string
	PaymentMethod   string
	AmountCents     int64
	CommissionCents int64
}

type Expense struct {
	ID            string
	ExpenseDate   string
	ExpenseType   string
	Description   string
	AmountCents   int64
	ReceiptNumber sql.NullString
	Notes         sql.NullString
	Status        string
	CreatedAt     string
	CreatedBy     string
	UpdatedAt     string
	UpdatedBy     string
}

type CashCut struct {
	ID                           string
	CutDate                      string
	CutNumber                    string
	IsManual                     bool
	PosEfectivoCents             int64
	PosTransferenciaCents        int64
	PosDebitoCents               int64
	PosCreditoCents              int64
	PosTotalCents                int64
	AbonosEfectivoCents          int64
	AbonosTransferenciaCents     int64
	AbonosDebitoCents            int64
	AbonosCreditoCents           int64
	AbonosTotalCents             int64
	MembershipEfectivoCents      int64
	MembershipTransferenciaCents int64
	MembershipDebitoCents        int64
	MembershipCreditoCents       int64
	MembershipTotalCents         int64
	TotalEfectivoCents           int64
	TotalTransferenciaCents      int64
	TotalDebitoCents             int64
	TotalCreditoCents            int64
	GrandTotalCents              int64
	ExpensesAmountCents          int64
	FinalBalanceCents            int64
	TotalTransactions            int64
	TotalCommissionsCents        int64
	Status                       string
	Notes                        sql.NullString
	CreatedBy                    string
	CreatorName                  sql.NullString
	CreatedAt                    string
	UpdatedBy                    string
	UpdatedAt                    string
}

type PaymentRangeParams struct {
	Start string
	End   string
}

const getPOSPayments = `-- name: GetPOSPayments :many
SELECT d.sale_id, d.payment_method, d.amount_cents, d.commission_cents
FROM sale_payment_details d
JOIN sales s ON s.id = d.sale_id
WHERE s.sale_type = 'sale'
  AND s.status = 'completed'
  AND s.created_at >= ? AND s.created_at < ?
  AND d.is_partial_payment = 0
`

func (q *Queries) GetPOSPayments(ctx context.Context, arg PaymentRangeParams) ([]PaymentDetailRow, error) {
	return q.queryPaymentRows(ctx, getPOSPayments, arg.Start, arg.End)
}

const getLayawayPayments = `-- name: GetLayawayPayments :many
SELECT d.sale_id, d.payment_method, d.amount_cents, d.commission_cents
FROM sale_payment_details d
JOIN sales s ON s.id = d.sale_id
WHERE s.sale_type = 'layaway'
  AND s.status != 'cancelled'
  AND d.payment_date >= ? AND d.payment_date < ?
`

func (q *Queries) GetLayawayPayments(ctx context.Context, arg PaymentRangeParams) ([]PaymentDetailRow, error) {
	return q.queryPaymentRows(ctx, getLayawayPayments, arg.Start, arg.End)
}

const getMembershipPayments = `-- name: GetMembershipPayments :many
SELECT membership_id, payment_method, amount_cents, commission_cents
FROM membership_payment_details
WHERE created_at >= ? AND created_at < ?
`

func (q *Queries) GetMembershipPayments(ctx context.Context, arg PaymentRangeParams) ([]PaymentDetailRow, error) {
	return q.queryPaymentRows(ctx, getMembershipPayments, arg.Start, arg.End)
}

func (q *Queries) queryPaymentRows(ctx context.Context, query string, args ...interface{}) ([]PaymentDetailRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentDetailRow
	for rows.Next() {
		var i PaymentDetailRow
		if err := rows.Scan(&i.EntityID, &i.PaymentMethod, &i.AmountCents, &i.CommissionCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const expenseColumns = `id, expense_date, expense_type, description, amount_cents, receipt_number, notes, status, created_at, created_by, updated_at, updated_by`

const getActiveExpensesByDate = `-- name: GetActiveExpensesByDate :many
SELECT ` + expenseColumns + `
FROM expenses
WHERE expense_date = ? AND status = 'active'
ORDER BY created_at
`

func (q *Queries) GetActiveExpensesByDate(ctx context.Context, expenseDate string) ([]Expense, error) {
	return q.queryExpenses(ctx, getActiveExpensesByDate, expenseDate)
}

const getActiveExpensesBetween = `-- name: GetActiveExpensesBetween :many
SELECT ` + expenseColumns + `
FROM expenses
WHERE expense_date >= ? AND expense_date <= ? AND status = 'active'
ORDER BY expense_date, created_at
`

func (q *Queries) GetActiveExpensesBetween(ctx context.Context, firstDay, lastDay string) ([]Expense, error) {
	return q.queryExpenses(ctx, getActiveExpensesBetween, firstDay, lastDay)
}

func (q *Queries) queryExpenses(ctx context.Context, query string, args ...interface{}) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := scanExpense(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(s scanner, i *Expense) error {
	return s.Scan(
		&i.ID,
		&i.ExpenseDate,
		&i.ExpenseType,
		&i.Description,
		&i.AmountCents,
		&i.ReceiptNumber,
		&i.Notes,
		&i.Status,
		&i.CreatedAt,
		&i.CreatedBy,
		&i.UpdatedAt,
		&i.UpdatedBy,
	)
}

type CreateExpenseParams struct {
	ID            string
	ExpenseDate   string
	ExpenseType   string
	Description   string
	AmountCents   int64
	ReceiptNumber sql.NullString
	Notes         sql.NullString
	CreatedAt     string
	CreatedBy     string
}

const createExpense = `-- name: CreateExpense :exec
INSERT INTO expenses (id, expense_date, expense_type, description, amount_cents, receipt_number, notes, status, created_at, created_by, updated_at, updated_by)
VALUES (?, ?, ?, ?, ?, ?, ?, 'active', ?, ?, ?, ?)
`

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		arg.ID,
		arg.ExpenseDate,
		arg.ExpenseType,
		arg.Description,
		arg.AmountCents,
		arg.ReceiptNumber,
		arg.Notes,
		arg.CreatedAt,
		arg.CreatedBy,
		arg.CreatedAt,
		arg.CreatedBy,
	)
	return err
}

const getExpense = `-- name: GetExpense :one
SELECT ` + expenseColumns + `
FROM expenses
WHERE id = ?
`

func (q *Queries) GetExpense(ctx context.Context, id string) (Expense, error) {
	var i Expense
	err := scanExpense(q.db.QueryRowContext(ctx, getExpense, id), &i)
	return i, err
}

type UpdateExpenseParams struct {
	ID            string
	ExpenseDate   string
	ExpenseType   string
	Description   string
	AmountCents   int64
	ReceiptNumber sql.NullString
	Notes         sql.NullString
	UpdatedAt     string
	UpdatedBy     string
}

const updateExpense = `-- name: UpdateExpense :execrows
UPDATE expenses
SET expense_date = ?, expense_type = ?, description = ?, amount_cents = ?,
    receipt_number = ?, notes = ?, updated_at = ?, updated_by = ?
WHERE id = ? AND status = 'active'
`

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateExpense,
		arg.ExpenseDate,
		arg.ExpenseType,
		arg.Description,
		arg.AmountCents,
		arg.ReceiptNumber,
		arg.Notes,
		arg.UpdatedAt,
		arg.UpdatedBy,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type SoftDeleteExpenseParams struct {
	ID        string
	Notes     sql.NullString
	UpdatedAt string
	UpdatedBy string
}

const softDeleteExpense = `-- name: SoftDeleteExpense :execrows
UPDATE expenses
SET status = 'deleted', notes = ?, updated_at = ?, updated_by = ?
WHERE id = ? AND status = 'active'
`

func (q *Queries) SoftDeleteExpense(ctx context.Context, arg SoftDeleteExpenseParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, softDeleteExpense, arg.Notes, arg.UpdatedAt, arg.UpdatedBy, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const hardDeleteExpense = `-- name: HardDeleteExpense :execrows
DELETE FROM expenses WHERE id = ?
`

func (q *Queries) HardDeleteExpense(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, hardDeleteExpense, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const cashCutColumns = `id, cut_date, cut_number, is_manual,
pos_efectivo_cents, pos_transferencia_cents, pos_debito_cents, pos_credito_cents, pos_total_cents,
abonos_efectivo_cents, abonos_transferencia_cents, abonos_debito_cents, abonos_credito_cents, abonos_total_cents,
membership_efectivo_cents, membership_transferencia_cents, membership_debito_cents, membership_credito_cents, membership_total_cents,
total_efectivo_cents, total_transferencia_cents, total_debito_cents, total_credito_cents,
grand_total_cents, expenses_amount_cents, final_balance_cents, total_transactions, total_commissions_cents,
status, notes, created_by, creator_name, created_at, updated_by, updated_at`

const getCashCutByDate = `-- name: GetCashCutByDate :one
SELECT ` + cashCutColumns + `
FROM cash_cuts
WHERE cut_date = ?
`

func (q *Queries) GetCashCutByDate(ctx context.Context, cutDate string) (CashCut, error) {
	var i CashCut
	err := scanCashCut(q.db.QueryRowContext(ctx, getCashCutByDate, cutDate), &i)
	return i, err
}

const getCashCut = `-- name: GetCashCut :one
SELECT ` + cashCutColumns + `
FROM cash_cuts
WHERE id = ?
`

func (q *Queries) GetCashCut(ctx context.Context, id string) (CashCut, error) {
	var i CashCut
	err := scanCashCut(q.db.QueryRowContext(ctx, getCashCut, id), &i)
	return i, err
}

func scanCashCut(s scanner, i *CashCut) error {
	return s.Scan(
		&i.ID,
		&i.CutDate,
		&i.CutNumber,
		&i.IsManual,
		&i.PosEfectivoCents,
		&i.PosTransferenciaCents,
		&i.PosDebitoCents,
		&i.PosCreditoCents,
		&i.PosTotalCents,
		&i.AbonosEfectivoCents,
		&i.AbonosTransferenciaCents,
		&i.AbonosDebitoCents,
		&i.AbonosCreditoCents,
		&i.AbonosTotalCents,
		&i.MembershipEfectivoCents,
		&i.MembershipTransferenciaCents,
		&i.MembershipDebitoCents,
		&i.MembershipCreditoCents,
		&i.MembershipTotalCents,
		&i.TotalEfectivoCents,
		&i.TotalTransferenciaCents,
		&i.TotalDebitoCents,
		&i.TotalCreditoCents,
		&i.GrandTotalCents,
		&i.ExpensesAmountCents,
		&i.FinalBalanceCents,
		&i.TotalTransactions,
		&i.TotalCommissionsCents,
		&i.Status,
		&i.Notes,
		&i.CreatedBy,
		&i.CreatorName,
		&i.CreatedAt,
		&i.UpdatedBy,
		&i.UpdatedAt,
	)
}

type UpdateCashCutSyncParams struct {
	ID                  string
	ExpensesAmountCents int64
	FinalBalanceCents   int64
	UpdatedAt           string
	UpdatedBy           string
}

const updateCashCutSync = `-- name: UpdateCashCutSync :execrows
UPDATE cash_cuts
SET expenses_amount_cents = ?, final_balance_cents = ?, updated_at = ?, updated_by = ?
WHERE id = ?
`

func (q *Queries) UpdateCashCutSync(ctx context.Context, arg UpdateCashCutSyncParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateCashCutSync,
		arg.ExpensesAmountCents,
		arg.FinalBalanceCents,
		arg.UpdatedAt,
		arg.UpdatedBy,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createCashCut = `-- name: CreateCashCut :exec
INSERT INTO cash_cuts (` + cashCutColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateCashCut(ctx context.Context, arg CashCut) error {
	_, err := q.db.ExecContext(ctx, createCashCut,
		arg.ID,
		arg.CutDate,
		arg.CutNumber,
		arg.IsManual,
		arg.PosEfectivoCents,
		arg.PosTransferenciaCents,
		arg.PosDebitoCents,
		arg.PosCreditoCents,
		arg.PosTotalCents,
		arg.AbonosEfectivoCents,
		arg.AbonosTransferenciaCents,
		arg.AbonosDebitoCents,
		arg.AbonosCreditoCents,
		arg.AbonosTotalCents,
		arg.MembershipEfectivoCents,
		arg.MembershipTransferenciaCents,
		arg.MembershipDebitoCents,
		arg.MembershipCreditoCents,
		arg.MembershipTotalCents,
		arg.TotalEfectivoCents,
		arg.TotalTransferenciaCents,
		arg.TotalDebitoCents,
		arg.TotalCreditoCents,
		arg.GrandTotalCents,
		arg.ExpensesAmountCents,
		arg.FinalBalanceCents,
		arg.TotalTransactions,
		arg.TotalCommissionsCents,
		arg.Status,
		arg.Notes,
		arg.CreatedBy,
		arg.CreatorName,
		arg.CreatedAt,
		arg.UpdatedBy,
		arg.UpdatedAt,
	)
	return err
}
