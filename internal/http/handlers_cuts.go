package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"muscleup/internal/core"
	"muscleup/internal/services"
)

// streamResponse flattens one revenue stream for the API.
type streamResponse struct {
	core.MethodAmounts
	Transactions int        `json:"transactions"`
	Commissions  core.Money `json:"commissions"`
}

type totalsResponse struct {
	core.MethodAmounts
	Transactions int        `json:"transactions"`
	Commissions  core.Money `json:"commissions"`
	NetAmount    core.Money `json:"net_amount"`
}

type aggregateResponse struct {
	Period       string             `json:"period"`
	POS          streamResponse     `json:"pos"`
	Abonos       streamResponse     `json:"abonos"`
	Memberships  streamResponse     `json:"memberships"`
	Expenses     core.ExpenseTotals `json:"expenses"`
	Totals       totalsResponse     `json:"totals"`
	GrandTotal   core.Money         `json:"grand_total"`
	FinalBalance core.Money         `json:"final_balance"`
}

func toAggregateResponse(agg core.Aggregate) aggregateResponse {
	stream := func(st core.StreamTotals) streamResponse {
		return streamResponse{
			MethodAmounts: st.Methods,
			Transactions:  st.Transactions,
			Commissions:   st.Commissions,
		}
	}
	return aggregateResponse{
		Period:      agg.Period,
		POS:         stream(agg.POS),
		Abonos:      stream(agg.Abonos),
		Memberships: stream(agg.Memberships),
		Expenses:    agg.Expenses,
		Totals: totalsResponse{
			MethodAmounts: agg.Totals.Methods,
			Transactions:  agg.Totals.Transactions,
			Commissions:   agg.Totals.Commissions,
			NetAmount:     agg.Totals.NetAmount,
		},
		GrandTotal:   agg.GrandTotal,
		FinalBalance: agg.FinalBalance,
	}
}

func (s *Server) handleDailyCut(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	s.serveAggregate(w, r, "daily:"+date, func(ctx context.Context) (core.Aggregate, error) {
		return s.aggregator.Daily(ctx, date)
	})
}

func (s *Server) handleMonthlyCut(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	s.serveAggregate(w, r, "monthly:"+month, func(ctx context.Context) (core.Aggregate, error) {
		return s.aggregator.Monthly(ctx, month)
	})
}

func (s *Server) serveAggregate(w http.ResponseWriter, r *http.Request, key string, compute func(context.Context) (core.Aggregate, error)) {
	if agg, found := s.aggregateCache.Get(key); found {
		slog.DebugContext(r.Context(), "Aggregate cache hit", "key", key)
		writeJSON(w, http.StatusOK, toAggregateResponse(agg))
		return
	}

	agg, err := compute(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	s.aggregateCache.Set(key, agg)
	writeJSON(w, http.StatusOK, toAggregateResponse(agg))
}

// handleSyncCut re-runs cut synchronization for one date on demand, the
// recovery path when a mutation's sync_info came back degraded.
func (s *Server) handleSyncCut(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if _, err := core.ParseCivilDate(date); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info := s.sync.SyncDate(r.Context(), date, actor(r))
	if info.Error != "" {
		writeJSON(w, http.StatusInternalServerError, info)
		return
	}

	s.invalidateDate(date)
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleCutHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	query := services.HistoryQuery{
		Search:    strings.TrimSpace(q.Get("search")),
		DateFrom:  strings.TrimSpace(q.Get("dateFrom")),
		DateTo:    strings.TrimSpace(q.Get("dateTo")),
		Status:    strings.TrimSpace(q.Get("status")),
		SortBy:    strings.TrimSpace(q.Get("sortBy")),
		SortOrder: strings.TrimSpace(q.Get("sortOrder")),
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		query.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		query.Limit = v
	}
	if v := q.Get("isManual"); v == "true" || v == "false" {
		manual := v == "true"
		query.IsManual = &manual
	}

	result, err := s.history.History(r.Context(), query)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if result.Cuts == nil {
		result.Cuts = []core.CashCut{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetCut(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	id, ok := pathID(r, "/api/cuts/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	cut, err := s.history.GetCut(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, cut)
}
