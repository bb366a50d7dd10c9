package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"muscleup/internal/core"
	"muscleup/internal/services"
	"muscleup/internal/storage"
)

type stubPayments struct {
	pos   []core.PaymentRow
	calls int
}

func (f *stubPayments) POSPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	f.calls++
	return f.pos, nil
}

func (f *stubPayments) LayawayPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	return nil, nil
}

func (f *stubPayments) MembershipPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRow, error) {
	return nil, nil
}

type stubExpenseStore struct {
	expenses map[string]core.Expense
}

func (f *stubExpenseStore) ActiveExpensesByDate(ctx context.Context, date string) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range f.expenses {
		if e.Date == date && e.Status == core.ExpenseActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *stubExpenseStore) ActiveExpensesBetween(ctx context.Context, firstDay, lastDay string) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range f.expenses {
		if e.Date >= firstDay && e.Date <= lastDay && e.Status == core.ExpenseActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *stubExpenseStore) CreateExpense(ctx context.Context, e core.Expense) error {
	f.expenses[e.ID] = e
	return nil
}

func (f *stubExpenseStore) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (f *stubExpenseStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	existing, ok := f.expenses[e.ID]
	if !ok || existing.Status != core.ExpenseActive {
		return core.ErrNotFound
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *stubExpenseStore) SoftDeleteExpense(ctx context.Context, id, notes, actor string, at time.Time) error {
	e, ok := f.expenses[id]
	if !ok || e.Status != core.ExpenseActive {
		return core.ErrNotFound
	}
	e.Status = core.ExpenseDeleted
	e.Notes = notes
	f.expenses[id] = e
	return nil
}

func (f *stubExpenseStore) HardDeleteExpense(ctx context.Context, id string) error {
	if _, ok := f.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

type stubCutStore struct {
	cuts  map[string]core.CashCut
	stats storage.HistoryStats
}

func (f *stubCutStore) CutByDate(ctx context.Context, cutDate string) (core.CashCut, error) {
	c, ok := f.cuts[cutDate]
	if !ok {
		return core.CashCut{}, core.ErrNotFound
	}
	return c, nil
}

func (f *stubCutStore) CutByID(ctx context.Context, id string) (core.CashCut, error) {
	for _, c := range f.cuts {
		if c.ID == id {
			return c, nil
		}
	}
	return core.CashCut{}, core.ErrNotFound
}

func (f *stubCutStore) UpdateCutSync(ctx context.Context, id string, expensesAmount, finalBalance core.Money, actor string, at time.Time) error {
	for date, c := range f.cuts {
		if c.ID == id {
			c.ExpensesAmount = expensesAmount
			c.FinalBalance = finalBalance
			f.cuts[date] = c
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *stubCutStore) ListCuts(ctx context.Context, filter storage.HistoryFilter, sort storage.HistorySort, limit, offset int) ([]core.CashCut, error) {
	var out []core.CashCut
	for _, c := range f.cuts {
		out = append(out, c)
	}
	return out, nil
}

func (f *stubCutStore) CutStats(ctx context.Context, filter storage.HistoryFilter) (storage.HistoryStats, error) {
	return f.stats, nil
}

func newTestServer(payments *stubPayments, expStore *stubExpenseStore, cutStore *stubCutStore) *Server {
	sync := services.NewCutSynchronizer(expStore, cutStore, nil)
	return NewServer(":0",
		services.NewRevenueAggregator(payments, expStore),
		services.NewExpenseService(expStore, sync, nil),
		services.NewCutHistory(cutStore),
		sync,
		16, time.Minute)
}

func emptyFixtures() (*stubPayments, *stubExpenseStore, *stubCutStore) {
	return &stubPayments{},
		&stubExpenseStore{expenses: make(map[string]core.Expense)},
		&stubCutStore{cuts: make(map[string]core.CashCut)}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return body
}

func TestHandleDailyCut(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	payments.pos = []core.PaymentRow{
		{EntityID: "sale-1", Method: "efectivo", AmountCents: 10000},
		{EntityID: "sale-1", Method: "DEBITO", AmountCents: 5000, CommissionCents: 150},
	}
	srv := newTestServer(payments, expStore, cutStore)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/daily?date=2025-01-10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	pos := body["pos"].(map[string]interface{})
	if pos["total"].(float64) != 150.00 {
		t.Errorf("pos.total = %v, want 150.00", pos["total"])
	}
	if pos["transactions"].(float64) != 1 {
		t.Errorf("pos.transactions = %v, want 1", pos["transactions"])
	}
	if body["grand_total"].(float64) != 150.00 {
		t.Errorf("grand_total = %v, want 150.00", body["grand_total"])
	}
	totals := body["totals"].(map[string]interface{})
	if totals["net_amount"].(float64) != 148.50 {
		t.Errorf("net_amount = %v, want 148.50", totals["net_amount"])
	}
}

func TestHandleDailyCutInvalidDate(t *testing.T) {
	srv := newTestServer(emptyFixtures())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/daily?date=bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleDailyCutMethodNotAllowed(t *testing.T) {
	srv := newTestServer(emptyFixtures())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cuts/daily?date=2025-01-10", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleMonthlyCut(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	expStore.expenses["e1"] = core.Expense{
		ID: "e1", Date: "2025-01-15", Amount: core.Money{Cents: 5000}, Status: core.ExpenseActive,
	}
	srv := newTestServer(payments, expStore, cutStore)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/monthly?month=2025-01", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	expenses := body["expenses"].(map[string]interface{})
	if expenses["amount"].(float64) != 50.00 {
		t.Errorf("expenses.amount = %v, want 50.00", expenses["amount"])
	}
}

func TestCreateExpense(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	cutStore.cuts["2025-01-10"] = core.CashCut{
		ID:         "cut-1",
		CutDate:    "2025-01-10",
		CutNumber:  "CUT-001",
		GrandTotal: core.Money{Cents: 15000},
	}
	srv := newTestServer(payments, expStore, cutStore)

	payload := `{"expense_date":"2025-01-10","expense_type":"servicios","description":"Recibo de luz","amount":200.00}`
	req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(payload))
	req.Header.Set("X-Actor-ID", "user-7")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	expense := body["expense"].(map[string]interface{})
	if expense["id"].(string) == "" {
		t.Error("expense id is empty")
	}
	if expense["created_by"].(string) != "user-7" {
		t.Errorf("created_by = %v, want user-7", expense["created_by"])
	}
	syncInfo := body["sync_info"].(map[string]interface{})
	if syncInfo["synchronized"].(bool) != true {
		t.Errorf("sync_info.synchronized = %v, want true", syncInfo["synchronized"])
	}
	if syncInfo["new_final_balance"].(float64) != -50.00 {
		t.Errorf("new_final_balance = %v, want -50.00", syncInfo["new_final_balance"])
	}
}

func TestCreateExpenseWithoutCut(t *testing.T) {
	srv := newTestServer(emptyFixtures())

	payload := `{"expense_date":"2025-01-10","expense_type":"otros","description":"Garrafones","amount":"150.50"}`
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(payload)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	syncInfo := body["sync_info"].(map[string]interface{})
	if syncInfo["synchronized"].(bool) != false {
		t.Error("sync_info.synchronized should be false with no cut")
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv := newTestServer(emptyFixtures())

	payload := `{"expense_date":"2025-01-10","expense_type":"gasolina","description":"x","amount":10.00}`
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(payload)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestDeleteExpenseNotFound(t *testing.T) {
	srv := newTestServer(emptyFixtures())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/expenses/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateExpense(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	expStore.expenses["e1"] = core.Expense{
		ID: "e1", Date: "2025-01-10", Type: "servicios", Description: "Luz",
		Amount: core.Money{Cents: 10000}, Status: core.ExpenseActive,
	}
	srv := newTestServer(payments, expStore, cutStore)

	payload := `{"expense_date":"2025-01-10","expense_type":"servicios","description":"Luz y agua","amount":120.00}`
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/expenses/e1", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if expStore.expenses["e1"].Amount.Cents != 12000 {
		t.Errorf("stored amount = %d, want 12000", expStore.expenses["e1"].Amount.Cents)
	}
}

func TestDailyExpensesListing(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	expStore.expenses["e1"] = core.Expense{
		ID: "e1", Date: "2025-01-10", Type: "limpieza", Description: "Jabon",
		Amount: core.Money{Cents: 3000}, Status: core.ExpenseActive,
	}
	srv := newTestServer(payments, expStore, cutStore)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses/daily?date=2025-01-10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", body["count"])
	}
	if body["total"].(float64) != 30.00 {
		t.Errorf("total = %v, want 30.00", body["total"])
	}
}

func TestGetCutByID(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	cutStore.cuts["2025-01-10"] = core.CashCut{ID: "cut-1", CutDate: "2025-01-10", CutNumber: "CUT-001"}
	srv := newTestServer(payments, expStore, cutStore)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/cut-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["cut_number"].(string) != "CUT-001" {
		t.Errorf("cut_number = %v, want CUT-001", body["cut_number"])
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCutHistoryEndpoint(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	cutStore.cuts["2025-01-10"] = core.CashCut{ID: "cut-1", CutDate: "2025-01-10"}
	cutStore.stats = storage.HistoryStats{Count: 1, GrandTotalSumCents: 15000, AutomaticCount: 1}
	srv := newTestServer(payments, expStore, cutStore)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/history?page=1&limit=10&sortBy=grand_total&sortOrder=asc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	pagination := body["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 1 {
		t.Errorf("pagination.total = %v, want 1", pagination["total"])
	}
	stats := body["stats"].(map[string]interface{})
	if stats["grand_total_sum"].(float64) != 150.00 {
		t.Errorf("stats.grand_total_sum = %v, want 150.00", stats["grand_total_sum"])
	}
}

func TestDailyCutUsesCache(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	srv := newTestServer(payments, expStore, cutStore)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/daily?date=2025-01-10", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	}

	if payments.calls != 1 {
		t.Errorf("pos stream queried %d times, want 1 (cached)", payments.calls)
	}
}

func TestExpenseMutationInvalidatesCache(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	srv := newTestServer(payments, expStore, cutStore)

	get := func() map[string]interface{} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/daily?date=2025-01-10", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		return decodeBody(t, rec)
	}

	before := get()
	if before["final_balance"].(float64) != 0 {
		t.Fatalf("final_balance before = %v, want 0", before["final_balance"])
	}

	payload := `{"expense_date":"2025-01-10","expense_type":"otros","description":"Focos","amount":25.00}`
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(payload)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", rec.Code)
	}

	after := get()
	if after["final_balance"].(float64) != -25.00 {
		t.Errorf("final_balance after mutation = %v, want -25.00", after["final_balance"])
	}
}

func TestManualCutSync(t *testing.T) {
	payments, expStore, cutStore := emptyFixtures()
	cutStore.cuts["2025-01-10"] = core.CashCut{
		ID:         "cut-1",
		CutDate:    "2025-01-10",
		CutNumber:  "CUT-001",
		GrandTotal: core.Money{Cents: 15000},
	}
	expStore.expenses["e1"] = core.Expense{
		ID: "e1", Date: "2025-01-10", Amount: core.Money{Cents: 4000}, Status: core.ExpenseActive,
	}
	srv := newTestServer(payments, expStore, cutStore)

	req := httptest.NewRequest(http.MethodPost, "/api/cuts/sync?date=2025-01-10", nil)
	req.Header.Set("X-Actor-ID", "admin-1")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["synchronized"].(bool) != true {
		t.Errorf("synchronized = %v, want true", body["synchronized"])
	}
	if body["new_expenses_amount"].(float64) != 40.00 {
		t.Errorf("new_expenses_amount = %v, want 40.00", body["new_expenses_amount"])
	}
	if body["new_final_balance"].(float64) != 110.00 {
		t.Errorf("new_final_balance = %v, want 110.00", body["new_final_balance"])
	}
	if cutStore.cuts["2025-01-10"].ExpensesAmount.Cents != 4000 {
		t.Errorf("stored expenses amount = %d, want 4000", cutStore.cuts["2025-01-10"].ExpensesAmount.Cents)
	}
}

func TestManualCutSyncWithoutCut(t *testing.T) {
	srv := newTestServer(emptyFixtures())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cuts/sync?date=2025-01-10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["synchronized"].(bool) != false {
		t.Error("synchronized should be false with no cut")
	}
	if body["reason"].(string) == "" {
		t.Error("reason should explain the no-op")
	}
}

func TestManualCutSyncInvalidDate(t *testing.T) {
	srv := newTestServer(emptyFixtures())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cuts/sync?date=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cuts/sync?date=2025-01-10", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(emptyFixtures())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
