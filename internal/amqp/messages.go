package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys on the topic exchange.
const (
	RouteExpenseChanged  = "expense.changed"
	RouteCutSynchronized = "cut.synchronized"
)

// ExpenseChangedMessage announces an expense mutation. It carries only
// the civil date to resynchronize; consumers recompute from storage, so
// the message being stale or duplicated is harmless.
type ExpenseChangedMessage struct {
	ExpenseID string    `json:"expense_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangedMessage(expenseID, date, action, actor string) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		ExpenseID: expenseID,
		Date:      date,
		Action:    action,
		Actor:     actor,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CutSynchronizedMessage announces that a cut's expense-derived columns
// were rewritten.
type CutSynchronizedMessage struct {
	CutID               string    `json:"cut_id"`
	CutDate             string    `json:"cut_date"`
	CutNumber           string    `json:"cut_number"`
	ExpensesAmountCents int64     `json:"expenses_amount_cents"`
	FinalBalanceCents   int64     `json:"final_balance_cents"`
	Actor               string    `json:"actor"`
	Timestamp           time.Time `json:"timestamp"`
}

func (m *CutSynchronizedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
