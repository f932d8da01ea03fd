package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradingJournal groups the trades of one user account.
// StartingCapital is the denominator for risk percentage calculations.
type TradingJournal struct {
	gorm.Model
	UserID          uint            `json:"user_id"`
	Name            string          `json:"name"`
	StartingCapital decimal.Decimal `json:"starting_capital" gorm:"type:numeric(20,8)"`
}
