package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	BookingCancelled: {},
	BookingCompleted: {},
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal is true for cancelled and completed bookings.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	BookingNumber string        `gorm:"size:32;uniqueIndex;not null" json:"booking_number"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	RoomID        uint          `gorm:"not null;index:idx_booking_room_dates,priority:1" json:"room_id"`
	CheckIn       time.Time     `gorm:"type:date;not null;index:idx_booking_room_dates,priority:2" json:"check_in"`
	CheckOut      time.Time     `gorm:"type:date;not null;index:idx_booking_room_dates,priority:3" json:"check_out"`
	Nights        int           `gorm:"not null" json:"nights"`
	GuestsAdults  int           `gorm:"not null;default:1" json:"guests_adults"`
	GuestsChild   int           `gorm:"column:guests_children;not null;default:0" json:"guests_children"`
	Status        BookingStatus `gorm:"size:20;not null;default:pending;index" json:"status"`

	CurrencyID       uint            `gorm:"not null" json:"currency_id"`
	RoomPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"room_price"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commission_amount"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	ExchangeRateUsed decimal.Decimal `gorm:"type:decimal(20,10);not null" json:"exchange_rate_used"`

	GuestName       string `gorm:"size:255" json:"guest_name"`
	GuestEmail      string `gorm:"size:150" json:"guest_email"`
	GuestPhone      string `gorm:"size:50" json:"guest_phone,omitempty"`
	SpecialRequests string `gorm:"type:text" json:"special_requests,omitempty"`

	CancellationReason string     `gorm:"type:text" json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time `json:"checked_out_at,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Room     Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	User     User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Currency Currency `gorm:"foreignKey:CurrencyID" json:"currency,omitempty"`
	Review   *Review  `gorm:"foreignKey:BookingID" json:"review,omitempty"`
}

// CanBeCancelled reports whether a guest may still cancel at instant now.
func (b Booking) CanBeCancelled(now time.Time) bool {
	if b.Status != BookingPending && b.Status != BookingConfirmed {
		return false
	}
	return b.CheckIn.After(now)
}

type BookingStatusHistory struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	BookingID uint          `gorm:"not null;index" json:"booking_id"`
	OldStatus BookingStatus `gorm:"size:20" json:"old_status,omitempty"`
	NewStatus BookingStatus `gorm:"size:20;not null" json:"new_status"`
	Reason    string        `gorm:"type:text" json:"reason,omitempty"`
	ChangedBy *uint         `json:"changed_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (BookingStatusHistory) TableName() string { return "booking_status_history" }
