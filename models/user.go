package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	UserTypeAdmin  = "admin"
	UserTypeHost   = "host"
	UserTypeClient = "client"
)

type User struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Type                string         `gorm:"size:20;not null;default:client;index" json:"type"`
	Name                string         `gorm:"size:255" json:"name"`
	Email               string         `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Phone               string         `gorm:"size:50" json:"phone,omitempty"`
	Locale              string         `gorm:"size:5;default:fr" json:"locale"`
	PreferredCurrencyID *uint          `json:"preferred_currency_id,omitempty"`
	IsActive            bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	PreferredCurrency *Currency `gorm:"foreignKey:PreferredCurrencyID" json:"preferred_currency,omitempty"`
}

func (u User) IsHost() bool { return u.Type == UserTypeHost }
