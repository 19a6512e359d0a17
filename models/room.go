package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Room struct {
	ID                uint                             `gorm:"primaryKey" json:"id"`
	AccommodationID   uint                             `gorm:"not null;index" json:"accommodation_id"`
	Name              datatypes.JSONType[Translations] `json:"name"`
	Description       datatypes.JSONType[Translations] `json:"description"`
	RoomType          string                           `gorm:"size:50" json:"room_type"`
	BedType           string                           `gorm:"size:50" json:"bed_type"`
	SizeSqm           int                              `json:"size_sqm"`
	Amenities         datatypes.JSONSlice[string]      `json:"amenities"`
	CapacityAdults    int                              `gorm:"not null;default:1" json:"capacity_adults"`
	CapacityChildren  int                              `gorm:"not null;default:0" json:"capacity_children"`
	BasePricePerNight decimal.Decimal                  `gorm:"type:decimal(12,2);not null" json:"base_price_per_night"`
	TotalQuantity     int                              `gorm:"not null;default:1;check:total_quantity >= 1" json:"total_quantity"`
	CreatedAt         time.Time                        `json:"created_at"`
	UpdatedAt         time.Time                        `json:"updated_at"`
	DeletedAt         gorm.DeletedAt                   `gorm:"index" json:"-"`

	Accommodation Accommodation `gorm:"foreignKey:AccommodationID" json:"accommodation,omitempty"`
}

// DisplayName resolves the room name for a locale with the platform fallback.
func (r Room) DisplayName(locale string) string {
	return r.Name.Data().Get(locale, DefaultLocale)
}

func (r Room) TotalCapacity() int { return r.CapacityAdults + r.CapacityChildren }
