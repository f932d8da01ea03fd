package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Trade sources. Webhook-ingested trades carry SourceMetaTrader and an
// external ticket ID; manually journaled trades carry SourceManual.
const (
	SourceMetaTrader = "metatrader"
	SourceManual     = "manual"
)

// Exit reason classification, inferred from P&L percentage rather than
// reported by the broker.
const (
	ExitReasonTakeProfit = "TP"
	ExitReasonStopLoss   = "SL"
	ExitReasonBreakEven  = "BE"
)

// AdvancedTrade is a single closed trade record with derived metrics.
// The composite unique index is what makes webhook replays idempotent:
// a second insert for the same (journal, external ID, source) triple
// fails with a duplicate-key error instead of creating a second row.
type AdvancedTrade struct {
	gorm.Model
	JournalID  uint   `json:"journal_id" gorm:"uniqueIndex:idx_trades_journal_external_source"`
	ExternalID string `json:"external_id" gorm:"uniqueIndex:idx_trades_journal_external_source"`
	Source     string `json:"source" gorm:"uniqueIndex:idx_trades_journal_external_source"`
	SessionID  *uint  `json:"session_id"`

	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"` // "buy" or "sell"
	Volume     float64   `json:"volume"`
	OpenPrice  float64   `json:"open_price"`
	ClosePrice float64   `json:"close_price"`
	OpenTime   time.Time `json:"open_time"`
	CloseTime  time.Time `json:"close_time" gorm:"index"`
	StopLoss   float64   `json:"stop_loss"`

	Profit     float64 `json:"profit"`
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`

	// Explicit column names: GORM's naming strategy would otherwise
	// split NetPnL into net_pn_l, breaking the sort whitelist.
	NetPnL      decimal.Decimal  `json:"net_pnl" gorm:"column:net_pnl;type:numeric(20,8)"`
	PnLPercent  *decimal.Decimal `json:"pnl_percent" gorm:"column:pnl_percent;type:numeric(20,8)"`
	RiskPercent *decimal.Decimal `json:"risk_percent" gorm:"column:risk_percent;type:numeric(20,8)"`
	ExitReason  string           `json:"exit_reason"`

	Closed     bool           `json:"closed"`
	RawPayload datatypes.JSON `json:"-"` // broker payload snapshot for audit
}
