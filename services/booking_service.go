// services/booking_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospitality-backoffice/models"
	"hospitality-backoffice/utils"
)

const bookingCreateRetries = 5

var hundred = decimal.NewFromInt(100)

type CreateBookingInput struct {
	UserID          uint             `json:"user_id" validate:"required"`
	RoomID          uint             `json:"room_id" validate:"required"`
	CheckIn         time.Time        `json:"check_in"`
	CheckOut        time.Time        `json:"check_out"`
	GuestsAdults    int              `json:"guests_adults" validate:"min=1"`
	GuestsChildren  int              `json:"guests_children" validate:"min=0"`
	CurrencyID      *uint            `json:"currency_id"`
	CommissionRate  *decimal.Decimal `json:"commission_rate"`
	GuestName       string           `json:"guest_name" validate:"max=255"`
	GuestEmail      string           `json:"guest_email" validate:"omitempty,email"`
	GuestPhone      string           `json:"guest_phone" validate:"max=50"`
	SpecialRequests string           `json:"special_requests"`
	ChangedBy       *uint            `json:"-"`
}

type BookingFilter struct {
	Status string
	RoomID uint
	HostID uint
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// BookingService owns the booking lifecycle: creation with inventory
// reservation, status transitions and their audit trail.
type BookingService struct {
	DB         *gorm.DB
	ledger     *AvailabilityService
	currencies *CurrencyService
	settings   *SettingsStore
	events     EventPublisher
	log        *logrus.Logger
	now        Clock
}

func NewBookingService(db *gorm.DB, ledger *AvailabilityService, currencies *CurrencyService, settings *SettingsStore, events EventPublisher, logger *logrus.Logger) *BookingService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if events == nil {
		events = NewLogPublisher(logger)
	}
	return &BookingService{
		DB:         db,
		ledger:     ledger,
		currencies: currencies,
		settings:   settings,
		events:     events,
		log:        logger,
		now:        systemClock,
	}
}

// WithClock replaces the time source.
func (s *BookingService) WithClock(c Clock) *BookingService {
	s.now = c
	return s
}

// Create books one unit of a room for [CheckIn, CheckOut). Pricing is frozen
// from the check-in night: subtotal = room_price * nights, commission =
// subtotal * rate / 100 and total = subtotal.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (models.Booking, error) {
	if err := validateStruct(in); err != nil {
		return models.Booking{}, err
	}
	if err := validateRange(in.CheckIn, in.CheckOut); err != nil {
		return models.Booking{}, err
	}

	rate := s.settings.Decimal(ctx, SettingCommissionRate, decimal.NewFromInt(5))
	if in.CommissionRate != nil {
		rate = *in.CommissionRate
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return models.Booking{}, validationf("commission rate must be between 0 and 100")
	}

	var booking models.Booking
	var err error
	for attempt := 0; attempt < bookingCreateRetries; attempt++ {
		booking, err = s.createOnce(ctx, in, rate)
		if err == nil {
			break
		}
		if isDuplicateKey(err) {
			s.log.WithField("attempt", attempt+1).Warn("booking number collision, retrying")
			continue
		}
		return models.Booking{}, err
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("failed to create booking after retries: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"booking_number": booking.BookingNumber,
		"room_id":        booking.RoomID,
		"check_in":       booking.CheckIn.Format(utils.DateLayout),
		"check_out":      booking.CheckOut.Format(utils.DateLayout),
	}).Info("booking created")
	s.publish(ctx, EventBookingCreated, booking)

	if s.settings.Bool(ctx, SettingAutoConfirmBookings, false) {
		confirmed, cerr := s.Confirm(ctx, booking.ID, in.ChangedBy, "auto-confirmed")
		if cerr != nil {
			s.log.WithError(cerr).WithField("booking_id", booking.ID).Error("auto-confirm failed")
			return booking, nil
		}
		return confirmed, nil
	}
	return booking, nil
}

func (s *BookingService) createOnce(ctx context.Context, in CreateBookingInput, rate decimal.Decimal) (models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Preload("Accommodation").First(&room, in.RoomID).Error; err != nil {
			return notFoundOr(err, "room", in.RoomID)
		}
		if !room.Accommodation.IsActive() {
			return validationf("accommodation %d is not active", room.AccommodationID)
		}

		var user models.User
		if err := tx.Select("id").First(&user, in.UserID).Error; err != nil {
			return notFoundOr(err, "user", in.UserID)
		}

		if in.GuestsAdults > room.CapacityAdults {
			return validationf("room accepts at most %d adults", room.CapacityAdults)
		}
		if in.GuestsAdults+in.GuestsChildren > room.TotalCapacity() {
			return validationf("room accepts at most %d guests", room.TotalCapacity())
		}

		var currency models.Currency
		var err error
		if in.CurrencyID != nil {
			currency, err = loadActiveCurrencyTx(tx, *in.CurrencyID)
		} else {
			currency, err = defaultCurrencyTx(tx)
		}
		if err != nil {
			return err
		}

		ok, err := isAvailableForRangeTx(tx, room, in.CheckIn, in.CheckOut, 1)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: room %d is not available for the selected dates", ErrAvailabilityConflict, room.ID)
		}

		price, err := priceForDateTx(tx, room, in.CheckIn)
		if err != nil {
			return err
		}
		nights := utils.NightsBetween(in.CheckIn, in.CheckOut)
		subtotal := price.Mul(decimal.NewFromInt(int64(nights)))
		commission := subtotal.Mul(rate).Div(hundred).Round(2)

		number, err := s.nextBookingNumberTx(tx, s.now().Year())
		if err != nil {
			return err
		}

		if err := s.ledger.reserveTx(tx, room, in.CheckIn, in.CheckOut, 1); err != nil {
			return err
		}

		booking = models.Booking{
			BookingNumber:    number,
			UserID:           in.UserID,
			RoomID:           room.ID,
			CheckIn:          utils.DateOnly(in.CheckIn),
			CheckOut:         utils.DateOnly(in.CheckOut),
			Nights:           nights,
			GuestsAdults:     in.GuestsAdults,
			GuestsChild:      in.GuestsChildren,
			Status:           models.BookingPending,
			CurrencyID:       currency.ID,
			RoomPrice:        price,
			Subtotal:         subtotal,
			CommissionRate:   rate,
			CommissionAmount: commission,
			TotalAmount:      subtotal,
			ExchangeRateUsed: currency.ExchangeRate,
			GuestName:        strings.TrimSpace(in.GuestName),
			GuestEmail:       strings.TrimSpace(in.GuestEmail),
			GuestPhone:       strings.TrimSpace(in.GuestPhone),
			SpecialRequests:  in.SpecialRequests,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return appendHistoryTx(tx, booking.ID, "", models.BookingPending, in.ChangedBy, "")
	})
	return booking, err
}

// nextBookingNumberTx allocates BK-<year>-<NNNNNN> from the per-year counter.
func (s *BookingService) nextBookingNumberTx(tx *gorm.DB, year int) (string, error) {
	prefix := fmt.Sprintf("BK-%d-", year)
	seed := func() (int, error) {
		var n int64
		err := tx.Unscoped().Model(&models.Booking{}).Where("booking_number LIKE ?", prefix+"%").Count(&n).Error
		return int(n), err
	}
	for i := 0; i < bookingCreateRetries; i++ {
		n, err := nextSequenceTx(tx, fmt.Sprintf("booking:%d", year), seed)
		if err != nil {
			return "", err
		}
		number := fmt.Sprintf("%s%06d", prefix, n)
		var taken int64
		if err := tx.Unscoped().Model(&models.Booking{}).Where("booking_number = ?", number).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return number, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a booking number", ErrConflict)
}

// nextSequenceTx increments the named counter and returns the new value. The
// row is created on first use from seed. The UPDATE holds the row lock until
// the surrounding transaction ends.
func nextSequenceTx(tx *gorm.DB, name string, seed func() (int, error)) (int, error) {
	var existing int64
	if err := tx.Model(&models.Sequence{}).Where("name = ?", name).Count(&existing).Error; err != nil {
		return 0, err
	}
	if existing == 0 {
		start := 0
		if seed != nil {
			v, err := seed()
			if err != nil {
				return 0, err
			}
			start = v
		}
		row := models.Sequence{Name: name, LastValue: start}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return 0, err
		}
	}

	if err := tx.Model(&models.Sequence{}).Where("name = ?", name).
		Update("last_value", gorm.Expr("last_value + 1")).Error; err != nil {
		return 0, err
	}
	var seq models.Sequence
	if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

func appendHistoryTx(tx *gorm.DB, bookingID uint, from, to models.BookingStatus, changedBy *uint, reason string) error {
	return tx.Create(&models.BookingStatusHistory{
		BookingID: bookingID,
		OldStatus: from,
		NewStatus: to,
		Reason:    reason,
		ChangedBy: changedBy,
	}).Error
}

func lockBookingTx(tx *gorm.DB, id uint) (models.Booking, error) {
	var b models.Booking
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error; err != nil {
		return models.Booking{}, notFoundOr(err, "booking", id)
	}
	return b, nil
}

// transition moves a booking to target if the state machine allows it.
// apply may add column updates and side effects inside the transaction.
func (s *BookingService) transition(ctx context.Context, id uint, target models.BookingStatus, changedBy *uint, reason string,
	apply func(tx *gorm.DB, b *models.Booking, updates map[string]interface{}) error) (models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBookingTx(tx, id)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: booking %s cannot go from %s to %s", ErrInvalidTransition, b.BookingNumber, b.Status, target)
		}
		from := b.Status
		updates := map[string]interface{}{"status": target}
		if apply != nil {
			if err := apply(tx, &b, updates); err != nil {
				return err
			}
		}
		if err := tx.Model(&b).Updates(updates).Error; err != nil {
			return err
		}
		if err := appendHistoryTx(tx, b.ID, from, target, changedBy, reason); err != nil {
			return err
		}
		return tx.First(&booking, b.ID).Error
	})
	if err != nil {
		return models.Booking{}, err
	}
	s.log.WithFields(logrus.Fields{"booking_id": booking.ID, "status": booking.Status}).Info("booking status changed")
	return booking, nil
}

// Confirm moves a pending booking to confirmed.
func (s *BookingService) Confirm(ctx context.Context, id uint, changedBy *uint, note string) (models.Booking, error) {
	b, err := s.transition(ctx, id, models.BookingConfirmed, changedBy, note,
		func(_ *gorm.DB, _ *models.Booking, u map[string]interface{}) error {
			u["confirmed_at"] = s.now()
			return nil
		})
	if err != nil {
		return models.Booking{}, err
	}
	s.publish(ctx, EventBookingConfirmed, b)
	return b, nil
}

// Cancel cancels a pending or confirmed booking and gives one unit back on
// every night of the stay, whether or not those dates are past.
func (s *BookingService) Cancel(ctx context.Context, id uint, reason string, changedBy *uint) (models.Booking, error) {
	reason = strings.TrimSpace(reason)
	b, err := s.transition(ctx, id, models.BookingCancelled, changedBy, reason,
		func(tx *gorm.DB, b *models.Booking, u map[string]interface{}) error {
			u["cancelled_at"] = s.now()
			u["cancellation_reason"] = reason
			room, err := loadRoomTx(tx, b.RoomID)
			if err != nil {
				return err
			}
			return s.ledger.releaseTx(tx, room, b.CheckIn, b.CheckOut, 1)
		})
	if err != nil {
		return models.Booking{}, err
	}
	s.publish(ctx, EventBookingCancelled, b)
	return b, nil
}

// CheckIn stamps checked_in_at. The status is left as is.
func (s *BookingService) CheckIn(ctx context.Context, id uint, changedBy *uint) (models.Booking, error) {
	var booking models.Booking
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBookingTx(tx, id)
		if err != nil {
			return err
		}
		if b.Status.IsTerminal() {
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, b.BookingNumber, b.Status)
		}
		if b.CheckedInAt != nil {
			return fmt.Errorf("%w: booking %s is already checked in", ErrInvalidTransition, b.BookingNumber)
		}
		if err := tx.Model(&b).Update("checked_in_at", s.now()).Error; err != nil {
			return err
		}
		return tx.First(&booking, b.ID).Error
	})
	if err != nil {
		return models.Booking{}, err
	}
	s.log.WithFields(logrus.Fields{"booking_id": booking.ID, "changed_by": changedBy}).Info("guest checked in")
	s.publish(ctx, EventBookingCheckedIn, booking)
	return booking, nil
}

// CheckOut completes a confirmed booking whose guest has checked in.
func (s *BookingService) CheckOut(ctx context.Context, id uint, changedBy *uint) (models.Booking, error) {
	b, err := s.transition(ctx, id, models.BookingCompleted, changedBy, "",
		func(_ *gorm.DB, b *models.Booking, u map[string]interface{}) error {
			if b.CheckedInAt == nil {
				return fmt.Errorf("%w: booking %s has not been checked in", ErrInvalidTransition, b.BookingNumber)
			}
			u["checked_out_at"] = s.now()
			return nil
		})
	if err != nil {
		return models.Booking{}, err
	}
	s.publish(ctx, EventBookingCompleted, b)
	return b, nil
}

// CanBeCancelled applies the guest cancellation rule at the current time.
func (s *BookingService) CanBeCancelled(b models.Booking) bool {
	return b.CanBeCancelled(s.now())
}

func (s *BookingService) Get(ctx context.Context, id uint) (models.Booking, error) {
	var b models.Booking
	err := s.DB.WithContext(ctx).
		Preload("Room.Accommodation").
		Preload("Currency").
		Preload("User").
		First(&b, id).Error
	if err != nil {
		return models.Booking{}, notFoundOr(err, "booking", id)
	}
	return b, nil
}

func (s *BookingService) List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Booking{})
	if f.Status != "" {
		if !models.BookingStatus(f.Status).Valid() {
			return nil, 0, validationf("unknown status %q", f.Status)
		}
		q = q.Where("status = ?", f.Status)
	}
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.HostID != 0 {
		q = q.Where("room_id IN (?)", hostRoomIDs(s.DB.WithContext(ctx), f.HostID))
	}
	if !f.From.IsZero() {
		q = q.Where("check_out > ?", utils.DateOnly(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("check_in < ?", utils.DateOnly(f.To))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []models.Booking
	err := q.Preload("Room").Preload("Currency").
		Order("check_in DESC").Order("id DESC").
		Limit(limit).Offset(f.Offset).
		Find(&list).Error
	return list, total, err
}

// hostRoomIDs is a subquery selecting the ids of every room a host owns.
func hostRoomIDs(db *gorm.DB, hostID uint) *gorm.DB {
	return db.Unscoped().Model(&models.Room{}).
		Select("rooms.id").
		Joins("JOIN accommodations ON accommodations.id = rooms.accommodation_id").
		Where("accommodations.user_id = ?", hostID)
}

func (s *BookingService) History(ctx context.Context, id uint) ([]models.BookingStatusHistory, error) {
	var rows []models.BookingStatusHistory
	err := s.DB.WithContext(ctx).Where("booking_id = ?", id).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (s *BookingService) publish(ctx context.Context, eventType string, b models.Booking) {
	ev := newEvent(eventType, map[string]interface{}{
		"booking_id":     b.ID,
		"booking_number": b.BookingNumber,
		"status":         string(b.Status),
		"room_id":        b.RoomID,
		"user_id":        b.UserID,
		"check_in":       b.CheckIn.Format(utils.DateLayout),
		"check_out":      b.CheckOut.Format(utils.DateLayout),
		"total_amount":   b.TotalAmount.String(),
		"currency_id":    b.CurrencyID,
	})
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"event": eventType, "booking_id": b.ID}).Warn("event not delivered")
	}
}
