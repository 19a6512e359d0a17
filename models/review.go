package models

import "time"

const (
	ReviewPending       = "pending"
	ReviewApproved      = "approved"
	ReviewRejected      = "rejected"
)

type Review struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	BookingID           uint       `gorm:"not null;uniqueIndex" json:"booking_id"`
	UserID              uint       `gorm:"not null;index" json:"user_id"`
	AccommodationID     uint       `gorm:"not null;index:idx_review_accommodation_status,priority:1" json:"accommodation_id"`
	Rating              int        `gorm:"not null" json:"rating"`
	Comment             string     `gorm:"type:text" json:"comment,omitempty"`
	CleanlinessRating   *int       `json:"cleanliness_rating,omitempty"`
	LocationRating      *int       `json:"location_rating,omitempty"`
	ValueRating         *int       `json:"value_rating,omitempty"`
	CommunicationRating *int       `json:"communication_rating,omitempty"`
	Status              string     `gorm:"size:20;not null;default:pending;index:idx_review_accommodation_status,priority:2" json:"status"`
	HostResponse        string     `gorm:"type:text" json:"host_response,omitempty"`
	HostRespondedAt     *time.Time `json:"host_responded_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
