package models

import "gorm.io/gorm"

// TradingSession is a named time-window bucket trades are filed under
// based on their close time. Windows are expressed as minutes since
// midnight UTC and may wrap past midnight (e.g. Sydney).
type TradingSession struct {
	gorm.Model
	JournalID uint   `json:"journal_id" gorm:"index"`
	Name      string `json:"name"`
	OpensAt   int    `json:"opens_at"`  // minutes since 00:00 UTC, inclusive
	ClosesAt  int    `json:"closes_at"` // minutes since 00:00 UTC, exclusive
}
