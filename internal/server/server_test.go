package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/database"
	"trade-journal-go/internal/webhook"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&gorm.Config{TranslateError: true},
	)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		Server:    config.Server{Port: 0},
		Bootstrap: config.Bootstrap{CapitalDriftThreshold: 100},
	}
	srv := New(cfg, zap.NewNop(), db)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// TestEndToEndIngestion provisions a connection, pushes a trade event
// through the routed webhook, and reads it back through the list API.
func TestEndToEndIngestion(t *testing.T) {
	ts := newTestServer(t)

	// Provision a connection.
	resp, err := http.Post(ts.URL+"/api/connections", "application/json",
		strings.NewReader(`{"name": "Prop Account", "broker": "FTMO", "starting_capital": 10000}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var provisioned struct {
		JournalID    uint   `json:"journal_id"`
		WebhookToken string `json:"webhook_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&provisioned))
	require.NotEmpty(t, provisioned.WebhookToken)

	// Health check on the webhook route.
	health, err := http.Get(ts.URL + "/api/integrations/metatrader/webhook")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)

	// Push one closed trade.
	event := fmt.Sprintf(`{
		"token": %q, "ticket": 555, "account": "8001001",
		"account_balance": 10093, "symbol": "EURUSD", "type": "buy",
		"volume": 0.5, "open_time": "2024.03.15 09:00:00",
		"close_time": "2024.03.15 14:30:00",
		"profit": 100, "commission": -5, "swap": -2,
		"broker": "FTMO", "currency": "USD"
	}`, provisioned.WebhookToken)

	req, err := http.NewRequest(http.MethodPost,
		ts.URL+"/api/integrations/metatrader/webhook", strings.NewReader(event))
	require.NoError(t, err)
	req.Header.Set(webhook.TokenHeader, provisioned.WebhookToken)

	pushResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer pushResp.Body.Close()
	require.Equal(t, http.StatusOK, pushResp.StatusCode)

	var pushed struct {
		Success bool `json:"success"`
		TradeID uint `json:"tradeId"`
	}
	require.NoError(t, json.NewDecoder(pushResp.Body).Decode(&pushed))
	assert.True(t, pushed.Success)
	require.NotZero(t, pushed.TradeID)

	// Read it back through the list endpoint.
	list, err := http.Get(fmt.Sprintf("%s/api/trades?journal_id=%d", ts.URL, provisioned.JournalID))
	require.NoError(t, err)
	defer list.Body.Close()
	require.Equal(t, http.StatusOK, list.StatusCode)

	var listed struct {
		Total  int64 `json:"total"`
		Trades []struct {
			ExternalID string `json:"external_id"`
			NetPnL     string `json:"net_pnl"`
		} `json:"trades"`
	}
	require.NoError(t, json.NewDecoder(list.Body).Decode(&listed))
	assert.Equal(t, int64(1), listed.Total)
	require.Len(t, listed.Trades, 1)
	assert.Equal(t, "555", listed.Trades[0].ExternalID)
	assert.Equal(t, "93", listed.Trades[0].NetPnL)
}
