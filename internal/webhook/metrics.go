package webhook

import (
	"github.com/shopspring/decimal"

	"trade-journal-go/internal/models"
)

// Exit-reason thresholds on P&L percentage. Trades above the take-profit
// threshold closed at target, trades below the stop-loss threshold were
// stopped out, everything between counts as break-even.
var (
	takeProfitThreshold = decimal.NewFromFloat(1.0)
	stopLossThreshold   = decimal.NewFromFloat(-0.1)
	hundred             = decimal.NewFromInt(100)
)

// DerivedMetrics are the financial fields computed from raw broker data.
type DerivedMetrics struct {
	NetPnL      decimal.Decimal
	PnLPercent  *decimal.Decimal
	RiskPercent *decimal.Decimal
	ExitReason  string
}

// Derive computes net P&L, percentage P&L, risk percentage and the
// exit-reason classification for one trade event.
//
// The percentage denominator is the account balance before the trade
// (balance - netPnL); when that is not positive the percentage is
// omitted and the trade classifies as break-even. Risk percentage
// requires both a positive stop-loss amount and a positive journal
// starting capital.
func Derive(ev *TradeEvent, startingCapital decimal.Decimal) DerivedMetrics {
	net := decimal.NewFromFloat(ev.Profit).
		Add(decimal.NewFromFloat(ev.Commission)).
		Add(decimal.NewFromFloat(ev.Swap))

	m := DerivedMetrics{
		NetPnL:     net,
		ExitReason: models.ExitReasonBreakEven,
	}

	basis := decimal.NewFromFloat(ev.AccountBalance).Sub(net)
	if basis.IsPositive() {
		pct := net.Div(basis).Mul(hundred)
		m.PnLPercent = &pct
		m.ExitReason = classifyExit(pct)
	}

	slAmount := decimal.NewFromFloat(ev.StopLossAmount)
	if slAmount.IsPositive() && startingCapital.IsPositive() {
		risk := slAmount.Div(startingCapital).Mul(hundred)
		m.RiskPercent = &risk
	}

	return m
}

// classifyExit maps a P&L percentage to an exit reason. The boundary
// values themselves (exactly 1.0 and exactly -0.1) are break-even.
func classifyExit(pct decimal.Decimal) string {
	switch {
	case pct.GreaterThan(takeProfitThreshold):
		return models.ExitReasonTakeProfit
	case pct.LessThan(stopLossThreshold):
		return models.ExitReasonStopLoss
	default:
		return models.ExitReasonBreakEven
	}
}
