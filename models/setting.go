package models

import "time"

// Setting value types. The stored Value is always text and is decoded
// according to Type on read.
const (
	SettingString  = "string"
	SettingInteger = "integer"
	SettingDecimal = "decimal"
	SettingBoolean = "boolean"
	SettingJSON    = "json"
)

type Setting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Type        string    `gorm:"size:20;not null;default:string" json:"type"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
