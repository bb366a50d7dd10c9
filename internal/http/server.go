package http

import (
	"net/http"
	"time"

	"muscleup/internal/cache"
	"muscleup/internal/core"
	"muscleup/internal/log"
	"muscleup/internal/services"
)

type Server struct {
	http.Server

	aggregator *services.RevenueAggregator
	expenses   *services.ExpenseService
	history    *services.CutHistory
	sync       *services.CutSynchronizer

	// Daily and monthly aggregates are read far more often than the
	// ledger mutates; a short TTL keeps dashboard refreshes cheap.
	aggregateCache *cache.LRUCache[core.Aggregate]
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, aggregator *services.RevenueAggregator, expenses *services.ExpenseService, history *services.CutHistory, sync *services.CutSynchronizer, cacheSize int, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: log.RequestMiddleware(mux),
		},
		aggregator:     aggregator,
		expenses:       expenses,
		history:        history,
		sync:           sync,
		aggregateCache: cache.NewLRUCache[core.Aggregate](cacheSize, cacheTTL),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/api/cuts/daily", s.handleDailyCut)
	mux.HandleFunc("/api/cuts/monthly", s.handleMonthlyCut)
	mux.HandleFunc("/api/cuts/history", s.handleCutHistory)
	mux.HandleFunc("/api/cuts/sync", s.handleSyncCut)
	mux.HandleFunc("/api/cuts/", s.handleGetCut)
	mux.HandleFunc("/api/expenses", s.handleCreateExpense)
	mux.HandleFunc("/api/expenses/daily", s.handleDailyExpenses)
	mux.HandleFunc("/api/expenses/", s.handleExpenseByID)

	return s
}

// AggregateCache exposes the cache for expiry sweeps by a cache.Manager.
func (s *Server) AggregateCache() *cache.LRUCache[core.Aggregate] {
	return s.aggregateCache
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
