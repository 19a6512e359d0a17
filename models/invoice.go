package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
)

// Invoice is the monthly commission statement for one host.
type Invoice struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber    string          `gorm:"size:32;uniqueIndex;not null" json:"invoice_number"`
	UserID           uint            `gorm:"not null;uniqueIndex:idx_invoice_host_period,priority:1" json:"user_id"`
	Month            int             `gorm:"not null;uniqueIndex:idx_invoice_host_period,priority:2" json:"month"`
	Year             int             `gorm:"not null;uniqueIndex:idx_invoice_host_period,priority:3" json:"year"`
	CurrencyID       uint            `gorm:"not null" json:"currency_id"`
	ExchangeRateUsed decimal.Decimal `gorm:"type:decimal(20,10);not null" json:"exchange_rate_used"`
	TotalBookings    int             `gorm:"not null;default:0" json:"total_bookings"`
	TotalRevenue     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_revenue"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"commission_amount"`
	Status           InvoiceStatus   `gorm:"size:20;not null;default:draft;index" json:"status"`
	DueDate          time.Time       `gorm:"type:date;not null" json:"due_date"`
	SentAt           *time.Time      `json:"sent_at,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	User     User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Currency Currency      `gorm:"foreignKey:CurrencyID" json:"currency,omitempty"`
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// IsOverdue is true for a sent invoice whose due date is strictly before today.
func (i Invoice) IsOverdue(today time.Time) bool {
	return i.Status == InvoiceSent && i.DueDate.Before(today)
}

type InvoiceItem struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	InvoiceID        uint            `gorm:"not null;index" json:"invoice_id"`
	BookingID        uint            `gorm:"not null;index" json:"booking_id"`
	Description      string          `gorm:"size:255" json:"description"`
	BookingAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"booking_amount"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commission_amount"`
	CreatedAt        time.Time       `json:"created_at"`
}
