package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMTTime(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		parsed, err := ParseMTTime("2024.03.15 14:30:00")
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC), parsed)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParseMTTime("")
		assert.Error(t, err)
	})

	t.Run("WrongSeparators", func(t *testing.T) {
		_, err := ParseMTTime("2024-03-15 14:30:00")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "YYYY.MM.DD HH:MM:SS")
	})
}

func TestTradeEventValidate(t *testing.T) {
	valid := func() TradeEvent {
		return TradeEvent{
			Ticket:    123456,
			Account:   "8001001",
			Symbol:    "EURUSD",
			Type:      "buy",
			Volume:    0.5,
			OpenTime:  "2024.03.15 09:00:00",
			CloseTime: "2024.03.15 14:30:00",
		}
	}

	t.Run("ValidEvent", func(t *testing.T) {
		ev := valid()
		assert.Empty(t, ev.Validate())
	})

	testCases := []struct {
		name     string
		mutate   func(*TradeEvent)
		expected string
	}{
		{"MissingTicket", func(e *TradeEvent) { e.Ticket = 0 }, "ticket"},
		{"NegativeTicket", func(e *TradeEvent) { e.Ticket = -5 }, "ticket"},
		{"MissingAccount", func(e *TradeEvent) { e.Account = "" }, "account"},
		{"MissingSymbol", func(e *TradeEvent) { e.Symbol = "" }, "symbol"},
		{"BadType", func(e *TradeEvent) { e.Type = "hold" }, "type"},
		{"ZeroVolume", func(e *TradeEvent) { e.Volume = 0 }, "volume"},
		{"BadOpenTime", func(e *TradeEvent) { e.OpenTime = "15/03/2024" }, "open_time"},
		{"BadCloseTime", func(e *TradeEvent) { e.CloseTime = "" }, "close_time"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev := valid()
			tc.mutate(&ev)
			problems := ev.Validate()
			assert.Len(t, problems, 1)
			assert.Contains(t, problems[0], tc.expected)
		})
	}
}

func TestExternalID(t *testing.T) {
	ev := TradeEvent{Ticket: 987654321}
	assert.Equal(t, "987654321", ev.ExternalID())
}
