package services

import (
	"context"
	"fmt"
	"log/slog"

	"muscleup/internal/core"
	"muscleup/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// historySortColumns whitelists the sortable columns. Anything else
// falls back to the cut date.
var historySortColumns = map[string]string{
	"cut_date":        "cut_date",
	"cut_number":      "cut_number",
	"grand_total":     "grand_total_cents",
	"final_balance":   "final_balance_cents",
	"expenses_amount": "expenses_amount_cents",
	"created_at":      "created_at",
}

// HistoryQuery is the caller-facing filter for the cut history listing.
type HistoryQuery struct {
	Page      int
	Limit     int
	Search    string
	DateFrom  string
	DateTo    string
	Status    string
	IsManual  *bool
	SortBy    string
	SortOrder string
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// HistoryStats aggregates every cut matching the filter, regardless of
// the requested page.
type HistoryStats struct {
	Count          int64      `json:"count"`
	GrandTotalSum  core.Money `json:"grand_total_sum"`
	GrandTotalAvg  core.Money `json:"grand_total_avg"`
	ManualCount    int64      `json:"manual_count"`
	AutomaticCount int64      `json:"automatic_count"`
}

type HistoryResult struct {
	Cuts       []core.CashCut `json:"cuts"`
	Pagination Pagination     `json:"pagination"`
	Stats      HistoryStats   `json:"stats"`
}

// CutHistory answers paginated, filtered queries over stored cuts.
type CutHistory struct {
	cuts CutStore
}

func NewCutHistory(cuts CutStore) *CutHistory {
	return &CutHistory{cuts: cuts}
}

// History returns one page of cuts plus stats computed under the same
// filter, so the page and its stats never disagree. Invalid paging and
// sorting values fall back to defaults instead of failing.
func (h *CutHistory) History(ctx context.Context, q HistoryQuery) (HistoryResult, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	column, ok := historySortColumns[q.SortBy]
	if !ok {
		if q.SortBy != "" {
			slog.WarnContext(ctx, "Unknown sort column, using cut_date", "sort_by", q.SortBy)
		}
		column = "cut_date"
	}
	sort := storage.HistorySort{
		Column: column,
		Desc:   q.SortOrder != "asc",
	}

	filter := storage.HistoryFilter{
		Search:   q.Search,
		DateFrom: normalizeFilterDate(ctx, q.DateFrom),
		DateTo:   normalizeFilterDate(ctx, q.DateTo),
		Status:   q.Status,
		IsManual: q.IsManual,
	}

	stats, err := h.cuts.CutStats(ctx, filter)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("cut stats: %w", err)
	}

	cuts, err := h.cuts.ListCuts(ctx, filter, sort, limit, (page-1)*limit)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("list cuts: %w", err)
	}

	result := HistoryResult{
		Cuts: cuts,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      stats.Count,
			TotalPages: int((stats.Count + int64(limit) - 1) / int64(limit)),
		},
		Stats: HistoryStats{
			Count:          stats.Count,
			GrandTotalSum:  core.Money{Cents: stats.GrandTotalSumCents},
			ManualCount:    stats.ManualCount,
			AutomaticCount: stats.AutomaticCount,
		},
	}
	if stats.Count > 0 {
		result.Stats.GrandTotalAvg = core.Money{Cents: stats.GrandTotalSumCents / stats.Count}
	}

	return result, nil
}

// GetCut fetches a single cut by id.
func (h *CutHistory) GetCut(ctx context.Context, id string) (core.CashCut, error) {
	return h.cuts.CutByID(ctx, id)
}

// Date filters that do not parse are dropped rather than rejected; the
// listing is a search surface, not a validator.
func normalizeFilterDate(ctx context.Context, date string) string {
	if date == "" {
		return ""
	}
	if _, err := core.ParseCivilDate(date); err != nil {
		slog.WarnContext(ctx, "Ignoring unparsable date filter", "date", date)
		return ""
	}
	return date
}
