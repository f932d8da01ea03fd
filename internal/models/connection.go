package models

import (
	"time"

	"gorm.io/gorm"
)

// Connection status values reported back to the dashboard.
const (
	ConnectionStatusPending   = "pending"
	ConnectionStatusConnected = "connected"
)

// BrokerConnection links an external trading account to a journal.
// The EA authenticates every webhook call with the connection's token.
type BrokerConnection struct {
	gorm.Model
	UserID        uint       `json:"user_id"`
	JournalID     uint       `json:"journal_id"`
	Provider      string     `json:"provider"` // "metatrader"
	Broker        string     `json:"broker"`
	AccountNumber string     `json:"account_number"`
	WebhookToken  string     `json:"-" gorm:"uniqueIndex"`
	Active        bool       `json:"active"`
	Status        string     `json:"status"`
	SyncCount     int64      `json:"sync_count"`
	LastSyncAt    *time.Time `json:"last_sync_at"`
}
