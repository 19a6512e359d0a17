package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AccommodationActive   = "active"
	AccommodationInactive = "inactive"
	AccommodationPending  = "pending"
)

type Accommodation struct {
	ID            uint                             `gorm:"primaryKey" json:"id"`
	UserID        uint                             `gorm:"not null;index" json:"user_id"`
	Type          string                           `gorm:"size:50" json:"type"`
	Name          string                           `gorm:"size:255;not null" json:"name"`
	Slug          string                           `gorm:"size:255;index" json:"slug"`
	Description   datatypes.JSONType[Translations] `json:"description"`
	City          string                           `gorm:"size:100" json:"city"`
	Country       string                           `gorm:"size:100" json:"country"`
	CurrencyID    *uint                            `json:"currency_id,omitempty"`
	RatingAverage decimal.Decimal                  `gorm:"type:decimal(3,1);not null;default:0" json:"rating_average"`
	TotalReviews  int                              `gorm:"not null;default:0" json:"total_reviews"`
	Status        string                           `gorm:"size:20;not null;default:active;index" json:"status"`
	CreatedAt     time.Time                        `json:"created_at"`
	UpdatedAt     time.Time                        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt                   `gorm:"index" json:"-"`

	Host     User      `gorm:"foreignKey:UserID" json:"host,omitempty"`
	Currency *Currency `gorm:"foreignKey:CurrencyID" json:"currency,omitempty"`
	Rooms    []Room    `gorm:"foreignKey:AccommodationID" json:"rooms,omitempty"`
}

func (a Accommodation) IsActive() bool { return a.Status == AccommodationActive }
