package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Currency struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Code          string          `gorm:"size:3;uniqueIndex;not null" json:"code"`
	Name          string          `gorm:"size:100" json:"name"`
	Symbol        string          `gorm:"size:10;not null" json:"symbol"`
	ExchangeRate  decimal.Decimal `gorm:"type:decimal(20,10);not null" json:"exchange_rate"`
	DecimalPlaces int             `gorm:"not null" json:"decimal_places"`
	IsActive      bool            `gorm:"not null;default:true;index" json:"is_active"`
	IsDefault     bool            `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ExchangeRateHistory is an append-only trail of every rate a currency has had.
type ExchangeRateHistory struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CurrencyID uint            `gorm:"not null;index:idx_rate_history_currency,priority:1" json:"currency_id"`
	Rate       decimal.Decimal `gorm:"type:decimal(20,10);not null" json:"rate"`
	ChangedBy  *uint           `gorm:"index" json:"changed_by,omitempty"`
	CreatedAt  time.Time       `gorm:"index:idx_rate_history_currency,priority:2" json:"created_at"`
}

func (ExchangeRateHistory) TableName() string { return "exchange_rate_history" }
