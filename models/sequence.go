package models

// Sequence is a named counter used for human-readable document numbers
// (booking:2025, invoice:2025-06). Increments happen under a row lock.
type Sequence struct {
	Name      string `gorm:"primaryKey;size:32"`
	LastValue int    `gorm:"not null;default:0"`
}
