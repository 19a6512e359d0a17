package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Availability is the inventory/pricing record of one room on one calendar day.
// A missing row means the room is fully available at its base price.
type Availability struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	RoomID            uint                `gorm:"not null;uniqueIndex:idx_availability_room_date,priority:1" json:"room_id"`
	Date              time.Time           `gorm:"type:date;not null;uniqueIndex:idx_availability_room_date,priority:2;index:idx_availability_date_qty,priority:1" json:"date"`
	AvailableQuantity int                 `gorm:"not null;index:idx_availability_date_qty,priority:2" json:"available_quantity"`
	PriceOverride     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"price_override"`
	IsBlocked         bool                `gorm:"not null;default:false;index" json:"is_blocked"`
	UpdatedAt         time.Time           `json:"updated_at"`

	Room Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// IsAvailable reports whether at least one unit can still be sold on this day.
func (a Availability) IsAvailable() bool {
	return !a.IsBlocked && a.AvailableQuantity > 0
}
