package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hospitality-backoffice/models"
	"hospitality-backoffice/utils"
)

type NightPrice struct {
	Date       time.Time       `json:"date"`
	Price      decimal.Decimal `json:"price"`
	Overridden bool            `json:"overridden"`
}

// Quote is a price breakdown for a stay. Total sums every night at its own
// price; SnapshotSubtotal is check-in price times nights, the figure a
// booking freezes.
type Quote struct {
	RoomID           uint            `json:"room_id"`
	CheckIn          time.Time       `json:"check_in"`
	CheckOut         time.Time       `json:"check_out"`
	Nights           int             `json:"nights"`
	PerNight         []NightPrice    `json:"per_night"`
	Total            decimal.Decimal `json:"total"`
	SnapshotPrice    decimal.Decimal `json:"snapshot_price"`
	SnapshotSubtotal decimal.Decimal `json:"snapshot_subtotal"`
}

type PricingService struct {
	DB *gorm.DB
}

func NewPricingService(db *gorm.DB) *PricingService {
	return &PricingService{DB: db}
}

func priceOf(room models.Room, slot DaySlot) (decimal.Decimal, bool) {
	if slot.PriceOverride.Valid {
		return slot.PriceOverride.Decimal, true
	}
	return room.BasePricePerNight, false
}

// PriceForDate is the override for that date when one is set, else the base nightly price.
func (s *PricingService) PriceForDate(ctx context.Context, room models.Room, date time.Time) (decimal.Decimal, error) {
	return priceForDateTx(s.DB.WithContext(ctx), room, date)
}

func priceForDateTx(tx *gorm.DB, room models.Room, date time.Time) (decimal.Decimal, error) {
	slot, err := lookupTx(tx, room, date)
	if err != nil {
		return decimal.Zero, err
	}
	p, _ := priceOf(room, slot)
	return p, nil
}

// TotalPrice sums PriceForDate over [checkIn, checkOut).
func (s *PricingService) TotalPrice(ctx context.Context, room models.Room, checkIn, checkOut time.Time) (decimal.Decimal, error) {
	q, err := quoteTx(s.DB.WithContext(ctx), room, checkIn, checkOut)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Total, nil
}

func (s *PricingService) Quote(ctx context.Context, roomID uint, checkIn, checkOut time.Time) (Quote, error) {
	db := s.DB.WithContext(ctx)
	room, err := loadRoomTx(db, roomID)
	if err != nil {
		return Quote{}, err
	}
	return quoteTx(db, room, checkIn, checkOut)
}

func quoteTx(tx *gorm.DB, room models.Room, checkIn, checkOut time.Time) (Quote, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return Quote{}, err
	}
	slots, err := rangeSlotsTx(tx, room, checkIn, checkOut)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{
		RoomID:   room.ID,
		CheckIn:  utils.DateOnly(checkIn),
		CheckOut: utils.DateOnly(checkOut),
		Nights:   utils.NightsBetween(checkIn, checkOut),
		PerNight: make([]NightPrice, 0, len(slots)),
		Total:    decimal.Zero,
	}
	for _, slot := range slots {
		p, overridden := priceOf(room, slot)
		q.PerNight = append(q.PerNight, NightPrice{Date: slot.Date, Price: p, Overridden: overridden})
		q.Total = q.Total.Add(p)
	}
	if len(q.PerNight) > 0 {
		q.SnapshotPrice = q.PerNight[0].Price
	}
	q.SnapshotSubtotal = q.SnapshotPrice.Mul(decimal.NewFromInt(int64(q.Nights)))
	return q, nil
}
