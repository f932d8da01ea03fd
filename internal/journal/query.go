package journal

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// sortColumns whitelists the sortable trade columns; the request value
// is never interpolated into SQL directly.
var sortColumns = map[string]string{
	"close_time": "close_time",
	"open_time":  "open_time",
	"net_pnl":    "net_pnl",
	"symbol":     "symbol",
	"created_at": "created_at",
}

// listQuery is the parsed pagination/sort/filter state for a trade list.
type listQuery struct {
	page     int
	pageSize int
	sortCol  string
	desc     bool

	symbol     string
	source     string
	exitReason string
	closed     *bool
}

func parseListQuery(r *http.Request) (*listQuery, error) {
	q := &listQuery{
		page:     1,
		pageSize: defaultPageSize,
		sortCol:  "close_time",
		desc:     true,
	}
	values := r.URL.Query()

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("page must be a positive integer")
		}
		q.page = n
	}
	if raw := values.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("page_size must be a positive integer")
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		q.pageSize = n
	}

	if raw := values.Get("sort"); raw != "" {
		col, ok := sortColumns[raw]
		if !ok {
			return nil, fmt.Errorf("unsupported sort column %q", raw)
		}
		q.sortCol = col
	}
	switch values.Get("order") {
	case "", "desc":
	case "asc":
		q.desc = false
	default:
		return nil, fmt.Errorf("order must be \"asc\" or \"desc\"")
	}

	q.symbol = values.Get("symbol")
	q.source = values.Get("source")
	q.exitReason = values.Get("exit_reason")

	if raw := values.Get("closed"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("closed must be a boolean")
		}
		q.closed = &b
	}

	return q, nil
}

// apply adds the filter clauses to a trade query.
func (q *listQuery) apply(tx *gorm.DB) *gorm.DB {
	if q.symbol != "" {
		tx = tx.Where("symbol = ?", q.symbol)
	}
	if q.source != "" {
		tx = tx.Where("source = ?", q.source)
	}
	if q.exitReason != "" {
		tx = tx.Where("exit_reason = ?", q.exitReason)
	}
	if q.closed != nil {
		tx = tx.Where("closed = ?", *q.closed)
	}
	return tx
}

func (q *listQuery) orderClause() string {
	dir := "asc"
	if q.desc {
		dir = "desc"
	}
	return q.sortCol + " " + dir
}

// buildStats aggregates win rate and total net P&L for the all-time and
// trailing-24h windows, bucketing by close time.
func buildStats(trades []models.AdvancedTrade) StatsResponse {
	since24h := time.Now().Add(-24 * time.Hour)

	stats24h := StatsDetail{}
	statsAllTime := StatsDetail{}

	for _, trade := range trades {
		statsAllTime.TotalTrades++
		if trade.NetPnL.IsPositive() {
			statsAllTime.ProfitableTrades++
		}
		statsAllTime.TotalNetPnL = statsAllTime.TotalNetPnL.Add(trade.NetPnL)

		if trade.CloseTime.After(since24h) {
			stats24h.TotalTrades++
			if trade.NetPnL.IsPositive() {
				stats24h.ProfitableTrades++
			}
			stats24h.TotalNetPnL = stats24h.TotalNetPnL.Add(trade.NetPnL)
		}
	}

	if statsAllTime.TotalTrades > 0 {
		statsAllTime.WinRate = float64(statsAllTime.ProfitableTrades) / float64(statsAllTime.TotalTrades)
	}
	if stats24h.TotalTrades > 0 {
		stats24h.WinRate = float64(stats24h.ProfitableTrades) / float64(stats24h.TotalTrades)
	}

	return StatsResponse{Since24h: stats24h, AllTime: statsAllTime}
}
