package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospitality-backoffice/models"
	"hospitality-backoffice/utils"
)

// Bulk availability actions.
const (
	ActionSetQuantity = "set_quantity"
	ActionIncrease    = "increase"
	ActionDecrease    = "decrease"
	ActionBlock       = "block"
	ActionUnblock     = "unblock"
)

// DaySlot is the effective availability of a room on one day. When no row
// exists for the day the slot is implicit: full quantity, base price, open.
type DaySlot struct {
	AvailabilityID    uint                `json:"availability_id,omitempty"`
	RoomID            uint                `json:"room_id"`
	Date              time.Time           `json:"date"`
	AvailableQuantity int                 `json:"available_quantity"`
	PriceOverride     decimal.NullDecimal `json:"price_override"`
	IsBlocked         bool                `json:"is_blocked"`
	Materialized      bool                `json:"materialized"`
}

// Quantity is what can actually be sold: zero on a blocked day.
func (d DaySlot) Quantity() int {
	if d.IsBlocked {
		return 0
	}
	return d.AvailableQuantity
}

func implicitSlot(room models.Room, date time.Time) DaySlot {
	return DaySlot{RoomID: room.ID, Date: utils.DateOnly(date), AvailableQuantity: room.TotalQuantity}
}

func slotFromRow(a models.Availability) DaySlot {
	return DaySlot{
		AvailabilityID:    a.ID,
		RoomID:            a.RoomID,
		Date:              utils.DateOnly(a.Date),
		AvailableQuantity: a.AvailableQuantity,
		PriceOverride:     a.PriceOverride,
		IsBlocked:         a.IsBlocked,
		Materialized:      true,
	}
}

type BulkAvailabilityInput struct {
	IDs      []uint `json:"ids" validate:"required,min=1"`
	Action   string `json:"action" validate:"required,oneof=set_quantity increase decrease block unblock"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

type AvailabilityService struct {
	DB  *gorm.DB
	log *logrus.Logger
}

func NewAvailabilityService(db *gorm.DB, logger *logrus.Logger) *AvailabilityService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AvailabilityService{DB: db, log: logger}
}

func loadRoomTx(tx *gorm.DB, roomID uint) (models.Room, error) {
	var room models.Room
	if err := tx.First(&room, roomID).Error; err != nil {
		return models.Room{}, notFoundOr(err, "room", roomID)
	}
	return room, nil
}

// Lookup returns the effective slot for room on date.
func (s *AvailabilityService) Lookup(ctx context.Context, room models.Room, date time.Time) (DaySlot, error) {
	return lookupTx(s.DB.WithContext(ctx), room, date)
}

func lookupTx(tx *gorm.DB, room models.Room, date time.Time) (DaySlot, error) {
	date = utils.DateOnly(date)
	var rows []models.Availability
	if err := tx.Where("room_id = ? AND date = ?", room.ID, date).Limit(1).Find(&rows).Error; err != nil {
		return DaySlot{}, err
	}
	if len(rows) == 0 {
		return implicitSlot(room, date), nil
	}
	return slotFromRow(rows[0]), nil
}

// AvailableQuantity is the sellable quantity of room on date.
func (s *AvailabilityService) AvailableQuantity(ctx context.Context, room models.Room, date time.Time) (int, error) {
	slot, err := s.Lookup(ctx, room, date)
	if err != nil {
		return 0, err
	}
	return slot.Quantity(), nil
}

// rangeSlotsTx returns one slot per day of [from, to) with a single query.
func rangeSlotsTx(tx *gorm.DB, room models.Room, from, to time.Time) ([]DaySlot, error) {
	from, to = utils.DateOnly(from), utils.DateOnly(to)
	var rows []models.Availability
	if err := tx.Where("room_id = ? AND date >= ? AND date < ?", room.ID, from, to).Find(&rows).Error; err != nil {
		return nil, err
	}
	byDate := make(map[string]models.Availability, len(rows))
	for _, r := range rows {
		byDate[r.Date.UTC().Format(utils.DateLayout)] = r
	}

	days := utils.DatesInRange(from, to)
	slots := make([]DaySlot, 0, len(days))
	for _, d := range days {
		if r, ok := byDate[d.Format(utils.DateLayout)]; ok {
			slots = append(slots, slotFromRow(r))
			continue
		}
		slots = append(slots, implicitSlot(room, d))
	}
	return slots, nil
}

// IsAvailableForRange is true when every day of [checkIn, checkOut) can
// still sell quantity units.
func (s *AvailabilityService) IsAvailableForRange(ctx context.Context, room models.Room, checkIn, checkOut time.Time, quantity int) (bool, error) {
	return isAvailableForRangeTx(s.DB.WithContext(ctx), room, checkIn, checkOut, quantity)
}

func isAvailableForRangeTx(tx *gorm.DB, room models.Room, checkIn, checkOut time.Time, quantity int) (bool, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return false, err
	}
	if quantity < 1 {
		return false, validationf("quantity must be at least 1")
	}
	slots, err := rangeSlotsTx(tx, room, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.Quantity() < quantity {
			return false, nil
		}
	}
	return true, nil
}

func validateRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return validationf("check_in and check_out are required")
	}
	if !utils.DateOnly(checkIn).Before(utils.DateOnly(checkOut)) {
		return validationf("check_out must be after check_in")
	}
	return nil
}

// Calendar lists the effective slots of a room for [from, to).
func (s *AvailabilityService) Calendar(ctx context.Context, roomID uint, from, to time.Time) ([]DaySlot, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	room, err := loadRoomTx(db, roomID)
	if err != nil {
		return nil, err
	}
	return rangeSlotsTx(db, room, from, to)
}

// materializeTx makes sure a row exists for each date, created at full quantity.
func materializeTx(tx *gorm.DB, room models.Room, dates ...time.Time) (int64, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	rows := make([]models.Availability, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, models.Availability{
			RoomID:            room.ID,
			Date:              utils.DateOnly(d),
			AvailableQuantity: room.TotalQuantity,
		})
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "date"}},
		DoNothing: true,
	}).CreateInBatches(&rows, 200)
	return res.RowsAffected, res.Error
}

func lockRowTx(tx *gorm.DB, roomID uint, date time.Time) (models.Availability, error) {
	var row models.Availability
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_id = ? AND date = ?", roomID, utils.DateOnly(date)).
		First(&row).Error
	return row, err
}

// Decrease removes quantity units from room on date, never going below 0.
func (s *AvailabilityService) Decrease(ctx context.Context, roomID uint, date time.Time, quantity int) (DaySlot, error) {
	var slot DaySlot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := loadRoomTx(tx, roomID)
		if err != nil {
			return err
		}
		slot, err = s.decreaseTx(tx, room, date, quantity)
		return err
	})
	return slot, err
}

func (s *AvailabilityService) decreaseTx(tx *gorm.DB, room models.Room, date time.Time, quantity int) (DaySlot, error) {
	if quantity < 0 {
		return DaySlot{}, validationf("quantity must not be negative")
	}
	if _, err := materializeTx(tx, room, date); err != nil {
		return DaySlot{}, err
	}
	row, err := lockRowTx(tx, room.ID, date)
	if err != nil {
		return DaySlot{}, err
	}
	next := row.AvailableQuantity - quantity
	if next < 0 {
		s.log.WithFields(logrus.Fields{
			"invariant": "availability_underflow",
			"room_id":   room.ID,
			"date":      utils.DateOnly(date).Format(utils.DateLayout),
			"available": row.AvailableQuantity,
			"requested": quantity,
		}).Error("availability decrease below zero, clamping")
		next = 0
	}
	if err := tx.Model(&row).Update("available_quantity", next).Error; err != nil {
		return DaySlot{}, err
	}
	row.AvailableQuantity = next
	return slotFromRow(row), nil
}

// Increase returns quantity units to room on date, capped at total_quantity.
func (s *AvailabilityService) Increase(ctx context.Context, roomID uint, date time.Time, quantity int) (DaySlot, error) {
	var slot DaySlot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := loadRoomTx(tx, roomID)
		if err != nil {
			return err
		}
		slot, err = s.increaseTx(tx, room, date, quantity)
		return err
	})
	return slot, err
}

func (s *AvailabilityService) increaseTx(tx *gorm.DB, room models.Room, date time.Time, quantity int) (DaySlot, error) {
	if quantity < 0 {
		return DaySlot{}, validationf("quantity must not be negative")
	}
	if _, err := materializeTx(tx, room, date); err != nil {
		return DaySlot{}, err
	}
	row, err := lockRowTx(tx, room.ID, date)
	if err != nil {
		return DaySlot{}, err
	}
	next := row.AvailableQuantity + quantity
	if next > room.TotalQuantity {
		next = room.TotalQuantity
	}
	if err := tx.Model(&row).Update("available_quantity", next).Error; err != nil {
		return DaySlot{}, err
	}
	row.AvailableQuantity = next
	return slotFromRow(row), nil
}

// reserveTx takes quantity units on every day of [checkIn, checkOut). Each
// day is a conditional update, so two bookings racing for the last unit
// cannot both succeed: the loser gets ErrAvailabilityConflict and the
// surrounding transaction rolls back.
func (s *AvailabilityService) reserveTx(tx *gorm.DB, room models.Room, checkIn, checkOut time.Time, quantity int) error {
	if err := validateRange(checkIn, checkOut); err != nil {
		return err
	}
	if quantity < 1 {
		return validationf("quantity must be at least 1")
	}
	days := utils.DatesInRange(checkIn, checkOut)
	if _, err := materializeTx(tx, room, days...); err != nil {
		return err
	}
	for _, d := range days {
		res := tx.Model(&models.Availability{}).
			Where("room_id = ? AND date = ? AND is_blocked = ? AND available_quantity >= ?", room.ID, d, false, quantity).
			Update("available_quantity", gorm.Expr("available_quantity - ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: room %d is not available on %s", ErrAvailabilityConflict, room.ID, d.Format(utils.DateLayout))
		}
	}
	return nil
}

// releaseTx gives back quantity units on every day of [checkIn, checkOut).
func (s *AvailabilityService) releaseTx(tx *gorm.DB, room models.Room, checkIn, checkOut time.Time, quantity int) error {
	return utils.EachDate(checkIn, checkOut, func(d time.Time) error {
		_, err := s.increaseTx(tx, room, d, quantity)
		return err
	})
}

// PrepopulateWindow creates full-quantity rows for [from, from+days], leaving
// existing rows alone. It returns how many rows were created.
func (s *AvailabilityService) PrepopulateWindow(ctx context.Context, room models.Room, from time.Time, days int) (int64, error) {
	return prepopulateTx(s.DB.WithContext(ctx), room, from, days)
}

func prepopulateTx(tx *gorm.DB, room models.Room, from time.Time, days int) (int64, error) {
	if days < 0 {
		return 0, validationf("window must not be negative")
	}
	from = utils.DateOnly(from)
	dates := utils.DatesInRange(from, from.AddDate(0, 0, days+1))
	return materializeTx(tx, room, dates...)
}

// BulkUpdate applies one admin action to a selection of availability rows.
// It returns the number of rows changed.
func (s *AvailabilityService) BulkUpdate(ctx context.Context, in BulkAvailabilityInput) (int, error) {
	if err := validateStruct(in); err != nil {
		return 0, err
	}
	if (in.Action == ActionIncrease || in.Action == ActionDecrease) && in.Quantity < 1 {
		return 0, validationf("quantity must be at least 1 for %s", in.Action)
	}

	changed := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.Availability
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Room").
			Where("id IN ?", in.IDs).
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound("availability", in.IDs)
		}

		for _, row := range rows {
			updates := map[string]interface{}{}
			total := row.Room.TotalQuantity
			switch in.Action {
			case ActionSetQuantity:
				updates["available_quantity"] = minInt(in.Quantity, total)
			case ActionIncrease:
				updates["available_quantity"] = minInt(row.AvailableQuantity+in.Quantity, total)
			case ActionDecrease:
				next := row.AvailableQuantity - in.Quantity
				if next < 0 {
					s.log.WithFields(logrus.Fields{
						"invariant":       "availability_underflow",
						"availability_id": row.ID,
						"room_id":         row.RoomID,
						"requested":       in.Quantity,
					}).Error("bulk decrease clamped at zero")
					next = 0
				}
				updates["available_quantity"] = next
			case ActionBlock:
				updates["is_blocked"] = true
			case ActionUnblock:
				updates["is_blocked"] = false
			}
			if err := tx.Model(&models.Availability{ID: row.ID}).Updates(updates).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"action": in.Action, "rows": changed}).Info("bulk availability update")
	return changed, nil
}

// BulkSetPrice sets (or, with a nil price, clears) the price override.
func (s *AvailabilityService) BulkSetPrice(ctx context.Context, ids []uint, price *decimal.Decimal) (int64, error) {
	if len(ids) == 0 {
		return 0, validationf("no availability selected")
	}
	override := decimal.NullDecimal{}
	if price != nil {
		if price.IsNegative() {
			return 0, validationf("price must not be negative")
		}
		override = decimal.NullDecimal{Decimal: *price, Valid: true}
	}
	res := s.DB.WithContext(ctx).Model(&models.Availability{}).
		Where("id IN ?", ids).
		Update("price_override", override)
	return res.RowsAffected, res.Error
}

// ToggleBlock flips is_blocked on one availability row.
func (s *AvailabilityService) ToggleBlock(ctx context.Context, id uint) (models.Availability, error) {
	var row models.Availability
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
			return notFoundOr(err, "availability", id)
		}
		row.IsBlocked = !row.IsBlocked
		return tx.Model(&row).Update("is_blocked", row.IsBlocked).Error
	})
	return row, err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
