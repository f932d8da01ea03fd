package webhook

import (
	"fmt"
	"strconv"
	"time"
)

// mtTimeLayout is the datetime format MetaTrader EAs emit, e.g.
// "2024.03.15 14:30:00". Times carry no zone and are treated as UTC.
const mtTimeLayout = "2006.01.02 15:04:05"

// TradeEvent is the JSON payload an EA posts for one closed trade.
type TradeEvent struct {
	Token          string  `json:"token"`
	Ticket         int64   `json:"ticket"`
	Account        string  `json:"account"`
	AccountBalance float64 `json:"account_balance"`
	AccountEquity  float64 `json:"account_equity"`
	AccountType    string  `json:"account_type"`
	Symbol         string  `json:"symbol"`
	Type           string  `json:"type"` // "buy" or "sell"
	Volume         float64 `json:"volume"`
	OpenPrice      float64 `json:"open_price"`
	ClosePrice     float64 `json:"close_price"`
	OpenTime       string  `json:"open_time"`
	CloseTime      string  `json:"close_time"`
	StopLoss       float64 `json:"stop_loss"`
	StopLossAmount float64 `json:"stop_loss_amount"`
	Profit         float64 `json:"profit"`
	Commission     float64 `json:"commission"`
	Swap           float64 `json:"swap"`
	Comment        string  `json:"comment"`
	Magic          int64   `json:"magic"`
	Broker         string  `json:"broker"`
	Currency       string  `json:"currency"`
	Platform       string  `json:"platform,omitempty"`
}

// ExternalID returns the broker ticket as the dedup key string.
func (e *TradeEvent) ExternalID() string {
	return strconv.FormatInt(e.Ticket, 10)
}

// Validate checks the payload shape and returns one message per
// offending field. An empty slice means the event is well formed.
func (e *TradeEvent) Validate() []string {
	var problems []string

	if e.Ticket <= 0 {
		problems = append(problems, "ticket: must be a positive integer")
	}
	if e.Account == "" {
		problems = append(problems, "account: required")
	}
	if e.Symbol == "" {
		problems = append(problems, "symbol: required")
	}
	if e.Type != "buy" && e.Type != "sell" {
		problems = append(problems, "type: must be \"buy\" or \"sell\"")
	}
	if e.Volume <= 0 {
		problems = append(problems, "volume: must be positive")
	}
	if _, err := ParseMTTime(e.OpenTime); err != nil {
		problems = append(problems, fmt.Sprintf("open_time: %v", err))
	}
	if _, err := ParseMTTime(e.CloseTime); err != nil {
		problems = append(problems, fmt.Sprintf("close_time: %v", err))
	}

	return problems
}

// ParseMTTime parses a MetaTrader "YYYY.MM.DD HH:MM:SS" timestamp as UTC.
func ParseMTTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("required")
	}
	t, err := time.ParseInLocation(mtTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected \"YYYY.MM.DD HH:MM:SS\", got %q", s)
	}
	return t, nil
}
