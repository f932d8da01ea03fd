package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

// TokenHeader carries the connection's webhook token. The EA sends the
// same token inside the payload; both must match.
const TokenHeader = "x-user-token"

const serviceName = "metatrader-webhook"

// Error codes returned to the EA.
const (
	CodeMissingToken    = "MISSING_TOKEN"
	CodeTokenMismatch   = "TOKEN_MISMATCH"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeValidationError = "VALIDATION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Handler serves the MetaTrader webhook endpoints.
type Handler struct {
	db        *gorm.DB
	logger    *zap.Logger
	processor *Processor
}

// NewHandler creates a webhook HTTP handler.
func NewHandler(db *gorm.DB, logger *zap.Logger, processor *Processor) *Handler {
	return &Handler{db: db, logger: logger, processor: processor}
}

type receiveResponse struct {
	Success          bool  `json:"success"`
	Duplicate        bool  `json:"duplicate,omitempty"`
	TradeID          uint  `json:"tradeId"`
	ProcessingTimeMs int64 `json:"processingTimeMs,omitempty"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Receive handles POST: the full ingestion pipeline for one closed
// trade. Duplicate deliveries of the same ticket are acknowledged as
// success, never retried into a second row.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	token := r.Header.Get(TokenHeader)
	if token == "" {
		writeError(w, http.StatusUnauthorized, errorResponse{
			Error: "missing " + TokenHeader + " header",
			Code:  CodeMissingToken,
		})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error: "failed to read request body",
			Code:  CodeInvalidJSON,
		})
		return
	}

	var ev TradeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error: "request body is not valid JSON",
			Code:  CodeInvalidJSON,
		})
		return
	}

	if ev.Token != token {
		writeError(w, http.StatusUnauthorized, errorResponse{
			Error: "header token does not match payload token",
			Code:  CodeTokenMismatch,
		})
		return
	}

	if problems := ev.Validate(); len(problems) > 0 {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "payload failed validation",
			Code:    CodeValidationError,
			Details: problems,
		})
		return
	}

	var conn models.BrokerConnection
	err = h.db.Where("webhook_token = ? AND active = ?", token, true).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusUnauthorized, errorResponse{
			Error: "token does not resolve to an active connection",
			Code:  CodeInvalidToken,
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to resolve connection", zap.Error(err))
		writeInternalError(w)
		return
	}

	result, err := h.processor.Process(&conn, &ev, body)
	if err != nil {
		h.logger.Error("Webhook processing failed",
			zap.Error(err),
			zap.Int64("ticket", ev.Ticket),
			zap.Uint("connection_id", conn.ID),
		)
		writeInternalError(w)
		return
	}

	if result.Duplicate {
		writeJSON(w, http.StatusOK, receiveResponse{
			Success:   true,
			Duplicate: true,
			TradeID:   result.TradeID,
		})
		return
	}

	writeJSON(w, http.StatusOK, receiveResponse{
		Success:          true,
		TradeID:          result.TradeID,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// Health handles GET: a liveness probe for the EA integration.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Service:   serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal server error",
		Code:    CodeInternalError,
		Message: "the trade event could not be processed",
	})
}
