package journal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/sessions"
)

// Handler holds dependencies for the journal read-side and
// provisioning endpoints.
type Handler struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewHandler creates a journal API handler.
func NewHandler(db *gorm.DB, logger *zap.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

type listTradesResponse struct {
	Trades   []models.AdvancedTrade `json:"trades"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// ListTrades returns a journal's trades, newest close first by default.
// Supports ?symbol=, ?source=, ?exit_reason=, ?closed=, ?sort=, ?order=,
// ?page= and ?page_size=.
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	journal, ok := h.requireJournal(w, r)
	if !ok {
		return
	}

	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx := q.apply(h.db.Model(&models.AdvancedTrade{}).Where("journal_id = ?", journal.ID))

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		h.logger.Error("Failed to count trades", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	var trades []models.AdvancedTrade
	err = tx.
		Order(q.orderClause()).
		Limit(q.pageSize).
		Offset((q.page - 1) * q.pageSize).
		Find(&trades).Error
	if err != nil {
		h.logger.Error("Failed to get trades from database", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	writeJSON(w, http.StatusOK, listTradesResponse{
		Trades:   trades,
		Total:    total,
		Page:     q.page,
		PageSize: q.pageSize,
	})
}

// StatsDetail holds calculated statistics for a given period.
type StatsDetail struct {
	TotalTrades      int64           `json:"total_trades"`
	ProfitableTrades int64           `json:"profitable_trades"`
	WinRate          float64         `json:"win_rate"`
	TotalNetPnL      decimal.Decimal `json:"total_net_pnl"`
}

// StatsResponse is the structure for the /api/trades/stats endpoint.
type StatsResponse struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// Stats calculates win rate and total net P&L for a journal, all-time
// and over the trailing 24 hours of close times.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	journal, ok := h.requireJournal(w, r)
	if !ok {
		return
	}

	var trades []models.AdvancedTrade
	if err := h.db.Where("journal_id = ? AND closed = ?", journal.ID, true).Find(&trades).Error; err != nil {
		h.logger.Error("Failed to get trades for statistics", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to calculate statistics")
		return
	}

	writeJSON(w, http.StatusOK, buildStats(trades))
}

type createConnectionRequest struct {
	UserID          uint    `json:"user_id"`
	Name            string  `json:"name"`
	Broker          string  `json:"broker"`
	AccountNumber   string  `json:"account_number"`
	StartingCapital float64 `json:"starting_capital"`
}

type createConnectionResponse struct {
	ConnectionID uint   `json:"connection_id"`
	JournalID    uint   `json:"journal_id"`
	WebhookToken string `json:"webhook_token"`
}

// CreateConnection provisions a broker connection: a fresh journal,
// its default session windows, and the webhook token the EA will use.
// The token is only ever returned here.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req createConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.StartingCapital < 0 {
		writeError(w, http.StatusBadRequest, "starting_capital must not be negative")
		return
	}

	journal := models.TradingJournal{
		UserID:          req.UserID,
		Name:            req.Name,
		StartingCapital: decimal.NewFromFloat(req.StartingCapital),
	}
	conn := models.BrokerConnection{
		UserID:        req.UserID,
		Provider:      models.SourceMetaTrader,
		Broker:        req.Broker,
		AccountNumber: req.AccountNumber,
		WebhookToken:  uuid.NewString(),
		Active:        true,
		Status:        models.ConnectionStatusPending,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&journal).Error; err != nil {
			return err
		}
		for _, s := range sessions.DefaultsFor(journal.ID) {
			if err := tx.Create(&s).Error; err != nil {
				return err
			}
		}
		conn.JournalID = journal.ID
		return tx.Create(&conn).Error
	})
	if err != nil {
		h.logger.Error("Failed to provision connection", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to provision connection")
		return
	}

	writeJSON(w, http.StatusCreated, createConnectionResponse{
		ConnectionID: conn.ID,
		JournalID:    journal.ID,
		WebhookToken: conn.WebhookToken,
	})
}

// requireJournal resolves the ?journal_id= query parameter to a journal
// row, writing 400/404 responses itself when that fails.
func (h *Handler) requireJournal(w http.ResponseWriter, r *http.Request) (*models.TradingJournal, bool) {
	raw := r.URL.Query().Get("journal_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "journal_id is required")
		return nil, false
	}

	var journal models.TradingJournal
	if err := h.db.First(&journal, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "journal not found")
			return nil, false
		}
		h.logger.Error("Failed to load journal", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load journal")
		return nil, false
	}

	return &journal, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
