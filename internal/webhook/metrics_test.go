package webhook

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal-go/internal/models"
)

func TestDerive(t *testing.T) {
	testCases := []struct {
		name            string
		event           TradeEvent
		startingCapital float64
		expectedNet     string
		expectedPct     *float64
		expectedRisk    *float64
		expectedExit    string
	}{
		{
			name: "Net P&L sums profit, commission and swap",
			event: TradeEvent{
				Profit:         100,
				Commission:     -5,
				Swap:           -2,
				AccountBalance: 10093,
			},
			startingCapital: 10000,
			expectedNet:     "93",
			expectedPct:     floatPtr(0.93), // 93 / 10000 * 100
			expectedExit:    models.ExitReasonBreakEven,
		},
		{
			name: "Large win classifies as take profit",
			event: TradeEvent{
				Profit:         150,
				AccountBalance: 10150, // basis 10000, pct 1.5
			},
			startingCapital: 10000,
			expectedNet:     "150",
			expectedPct:     floatPtr(1.5),
			expectedExit:    models.ExitReasonTakeProfit,
		},
		{
			name: "Loss past threshold classifies as stop loss",
			event: TradeEvent{
				Profit:         -50,
				AccountBalance: 9950, // basis 10000, pct -0.5
			},
			startingCapital: 10000,
			expectedNet:     "-50",
			expectedPct:     floatPtr(-0.5),
			expectedExit:    models.ExitReasonStopLoss,
		},
		{
			name: "Exactly 1.0 percent stays break even",
			event: TradeEvent{
				Profit:         100,
				AccountBalance: 10100, // basis 10000, pct exactly 1.0
			},
			startingCapital: 10000,
			expectedNet:     "100",
			expectedPct:     floatPtr(1.0),
			expectedExit:    models.ExitReasonBreakEven,
		},
		{
			name: "Exactly -0.1 percent stays break even",
			event: TradeEvent{
				Profit:         -10,
				AccountBalance: 9990, // basis 10000, pct exactly -0.1
			},
			startingCapital: 10000,
			expectedNet:     "-10",
			expectedPct:     floatPtr(-0.1),
			expectedExit:    models.ExitReasonBreakEven,
		},
		{
			name: "Non-positive basis omits percentage",
			event: TradeEvent{
				Profit:         100,
				AccountBalance: 50, // basis -50
			},
			startingCapital: 10000,
			expectedNet:     "100",
			expectedPct:     nil,
			expectedExit:    models.ExitReasonBreakEven,
		},
		{
			name: "Risk percentage from stop loss amount",
			event: TradeEvent{
				Profit:         10,
				AccountBalance: 10010,
				StopLossAmount: 200,
			},
			startingCapital: 10000,
			expectedNet:     "10",
			expectedPct:     floatPtr(0.1),
			expectedRisk:    floatPtr(2.0), // 200 / 10000 * 100
			expectedExit:    models.ExitReasonBreakEven,
		},
		{
			name: "Risk percentage omitted without starting capital",
			event: TradeEvent{
				Profit:         10,
				AccountBalance: 10010,
				StopLossAmount: 200,
			},
			startingCapital: 0,
			expectedNet:     "10",
			expectedPct:     floatPtr(0.1),
			expectedRisk:    nil,
			expectedExit:    models.ExitReasonBreakEven,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := Derive(&tc.event, decimal.NewFromFloat(tc.startingCapital))

			assert.True(t, m.NetPnL.Equal(decimal.RequireFromString(tc.expectedNet)),
				"net pnl: expected %s, got %s", tc.expectedNet, m.NetPnL)

			if tc.expectedPct == nil {
				assert.Nil(t, m.PnLPercent)
			} else {
				require.NotNil(t, m.PnLPercent)
				pct, _ := m.PnLPercent.Float64()
				assert.InDelta(t, *tc.expectedPct, pct, 0.0001)
			}

			if tc.expectedRisk == nil {
				assert.Nil(t, m.RiskPercent)
			} else {
				require.NotNil(t, m.RiskPercent)
				risk, _ := m.RiskPercent.Float64()
				assert.InDelta(t, *tc.expectedRisk, risk, 0.0001)
			}

			assert.Equal(t, tc.expectedExit, m.ExitReason)
		})
	}
}

func floatPtr(f float64) *float64 { return &f }
