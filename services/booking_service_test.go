package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hospitality-backoffice/models"
	"hospitality-backoffice/utils"
)

func TestCreateBookingFreezesAmounts(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 2, "25000")

	b := f.book(t, room, "2025-07-01", "2025-07-04")

	assert.Equal(t, "BK-2025-000001", b.BookingNumber)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, 3, b.Nights)
	assert.True(t, b.RoomPrice.Equal(dec("25000")))
	assert.True(t, b.Subtotal.Equal(b.RoomPrice.Mul(dec("3"))))
	assert.True(t, b.CommissionRate.Equal(dec("5")))
	assert.True(t, b.CommissionAmount.Equal(dec("3750")))
	assert.True(t, b.TotalAmount.Equal(b.Subtotal))
	assert.Equal(t, f.xof.ID, b.CurrencyID)
	assert.True(t, b.ExchangeRateUsed.Equal(dec("1")))

	history, err := f.bookings.History(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.BookingPending, history[0].NewStatus)
	assert.Equal(t, []string{EventBookingCreated}, f.events.Types())
}

func TestCreateBookingUsesCheckInNightPrice(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "20000")
	setOverride(t, f, room, "2025-07-01", "30000")

	b := f.book(t, room, "2025-07-01", "2025-07-03")
	assert.True(t, b.RoomPrice.Equal(dec("30000")))
	assert.True(t, b.Subtotal.Equal(dec("60000")))
}

func TestCreateBookingFreezesExchangeRate(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "50")
	b, err := f.bookings.Create(f.ctx, CreateBookingInput{
		UserID: f.guest.ID, RoomID: room.ID, GuestsAdults: 2,
		CheckIn: day(t, "2025-07-01"), CheckOut: day(t, "2025-07-02"),
		CurrencyID: &f.eur.ID,
	})
	require.NoError(t, err)

	_, err = f.currencies.UpdateRate(f.ctx, f.eur.ID, dec("0.0016"), nil)
	require.NoError(t, err)

	stored, err := f.bookings.Get(f.ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.ExchangeRateUsed.Equal(dec("0.0015244902")))
	assert.True(t, stored.TotalAmount.Equal(dec("50")))
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "25000")
	base := CreateBookingInput{UserID: f.guest.ID, RoomID: room.ID, GuestsAdults: 1,
		CheckIn: day(t, "2025-07-01"), CheckOut: day(t, "2025-07-03")}

	cases := []struct {
		name   string
		mutate func(in *CreateBookingInput)
		want   error
	}{
		{"same day", func(in *CreateBookingInput) { in.CheckOut = in.CheckIn }, ErrValidation},
		{"reversed", func(in *CreateBookingInput) { in.CheckIn, in.CheckOut = in.CheckOut, in.CheckIn }, ErrValidation},
		{"no adults", func(in *CreateBookingInput) { in.GuestsAdults = 0 }, ErrValidation},
		{"too many guests", func(in *CreateBookingInput) { in.GuestsAdults, in.GuestsChildren = 2, 2 }, ErrValidation},
		{"bad email", func(in *CreateBookingInput) { in.GuestEmail = "nope" }, ErrValidation},
		{"unknown room", func(in *CreateBookingInput) { in.RoomID = 999 }, ErrNotFound},
		{"unknown user", func(in *CreateBookingInput) { in.UserID = 999 }, ErrNotFound},
		{"unknown currency", func(in *CreateBookingInput) { id := uint(999); in.CurrencyID = &id }, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := f.bookings.Create(f.ctx, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	var n int64
	f.db.Model(&models.Booking{}).Count(&n)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.quantity(t, room, "2025-07-01"))
}

func TestCreateBookingRejectsInactiveAccommodation(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "25000")
	require.NoError(t, f.db.Model(&f.acc).Update("status", models.AccommodationInactive).Error)

	_, err := f.bookings.Create(f.ctx, CreateBookingInput{UserID: f.guest.ID, RoomID: room.ID, GuestsAdults: 1,
		CheckIn: day(t, "2025-07-01"), CheckOut: day(t, "2025-07-03")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTwoUnitRoomThirdBookingConflicts(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 2, "25000")

	f.book(t, room, "2025-07-01", "2025-07-03")
	assert.Equal(t, 1, f.quantity(t, room, "2025-07-01"))
	assert.Equal(t, 1, f.quantity(t, room, "2025-07-02"))
	assert.Equal(t, 2, f.quantity(t, room, "2025-07-03"))

	second := f.book(t, room, "2025-07-01", "2025-07-03")
	assert.Equal(t, "BK-2025-000002", second.BookingNumber)
	assert.Equal(t, 0, f.quantity(t, room, "2025-07-01"))
	assert.Equal(t, 0, f.quantity(t, room, "2025-07-02"))

	_, err := f.bookings.Create(f.ctx, CreateBookingInput{UserID: f.guest.ID, RoomID: room.ID, GuestsAdults: 1,
		CheckIn: day(t, "2025-07-01"), CheckOut: day(t, "2025-07-03")})
	assert.ErrorIs(t, err, ErrAvailabilityConflict)

	var n int64
	f.db.Model(&models.Booking{}).Count(&n)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 0, f.quantity(t, room, "2025-07-01"))
}

func TestReserveRejectsBlockedDay(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 2, "25000")
	_, err := f.ledger.Increase(f.ctx, room.ID, day(t, "2025-07-02"), 0)
	require.NoError(t, err)
	slot, err := f.ledger.Lookup(f.ctx, room, day(t, "2025-07-02"))
	require.NoError(t, err)
	_, err = f.ledger.ToggleBlock(f.ctx, slot.AvailabilityID)
	require.NoError(t, err)

	err = f.db.Transaction(func(tx *gorm.DB) error {
		return f.ledger.reserveTx(tx, room, day(t, "2025-07-01"), day(t, "2025-07-04"), 1)
	})
	assert.ErrorIs(t, err, ErrAvailabilityConflict)
	assert.Equal(t, 2, f.quantity(t, room, "2025-07-01"))
}

func TestCancelRestoresExactlyTheStayNights(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 2, "25000")
	_, err := f.ledger.Decrease(f.ctx, room.ID, day(t, "2025-06-13"), 1)
	require.NoError(t, err)

	b := f.book(t, room, "2025-06-10", "2025-06-13")
	_, err = f.bookings.Confirm(f.ctx, b.ID, nil, "")
	require.NoError(t, err)
	for _, d := range []string{"2025-06-10", "2025-06-11", "2025-06-12"} {
		assert.Equal(t, 1, f.quantity(t, room, d), d)
	}

	actor := f.host.ID
	cancelled, err := f.bookings.Cancel(f.ctx, b.ID, "guest request", &actor)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, "guest request", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	for _, d := range []string{"2025-06-10", "2025-06-11", "2025-06-12"} {
		assert.Equal(t, 2, f.quantity(t, room, d), d)
	}
	assert.Equal(t, 1, f.quantity(t, room, "2025-06-13"))

	history, err := f.bookings.History(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	last := history[2]
	assert.Equal(t, models.BookingConfirmed, last.OldStatus)
	assert.Equal(t, models.BookingCancelled, last.NewStatus)
	assert.Equal(t, "guest request", last.Reason)
	require.NotNil(t, last.ChangedBy)
	assert.Equal(t, actor, *last.ChangedBy)
}

func TestCancelNeverInflatesInventory(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "25000")
	b := f.book(t, room, "2025-07-01", "2025-07-02")
	_, err := f.ledger.Increase(f.ctx, room.ID, day(t, "2025-07-01"), 1)
	require.NoError(t, err)

	_, err = f.bookings.Cancel(f.ctx, b.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.quantity(t, room, "2025-07-01"))
}

func TestConfirmCancelledBookingFails(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "25000")
	b := f.book(t, room, "2025-07-01", "2025-07-02")
	_, err := f.bookings.Cancel(f.ctx, b.ID, "changed plans", nil)
	require.NoError(t, err)

	_, err = f.bookings.Confirm(f.ctx, b.ID, nil, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := f.bookings.Get(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, stored.Status)
	assert.Nil(t, stored.ConfirmedAt)

	_, err = f.bookings.Cancel(f.ctx, b.ID, "again", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, f.quantity(t, room, "2025-07-01"))
}

func TestCheckInAndCheckOut(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "25000")
	b := f.book(t, room, "2025-07-01", "2025-07-02")

	_, err := f.bookings.CheckOut(f.ctx, b.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending cannot complete")

	_, err = f.bookings.Confirm(f.ctx, b.ID, nil, "")
	require.NoError(t, err)
	_, err = f.bookings.CheckOut(f.ctx, b.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition, "no check-in yet")

	in, err := f.bookings.CheckIn(f.ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, in.Status)
	require.NotNil(t, in.CheckedInAt)

	_, err = f.bookings.CheckIn(f.ctx, b.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	out, err := f.bookings.CheckOut(f.ctx, b.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, out.Status)
	require.NotNil(t, out.CheckedOutAt)

	_, err = f.bookings.CheckIn(f.ctx, b.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.bookings.Cancel(f.ctx, b.ID, "", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []string{
		EventBookingCreated, EventBookingConfirmed, EventBookingCheckedIn, EventBookingCompleted,
	}, f.events.Types())
}

func TestAutoConfirmSetting(t *testing.T) {
	f := newFixture(t)
	_, err := f.settings.Set(f.ctx, SettingAutoConfirmBookings, true, "")
	require.NoError(t, err)
	room := f.createRoom(t, 1, "25000")

	b := f.book(t, room, "2025-07-01", "2025-07-02")
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.NotNil(t, b.ConfirmedAt)
}

func TestCommissionRateFromSettings(t *testing.T) {
	f := newFixture(t)
	_, err := f.settings.Set(f.ctx, SettingCommissionRate, "12.5", "")
	require.NoError(t, err)
	room := f.createRoom(t, 1, "10000")

	b := f.book(t, room, "2025-07-01", "2025-07-03")
	assert.True(t, b.CommissionRate.Equal(dec("12.5")))
	assert.True(t, b.CommissionAmount.Equal(dec("2500")))
}

func TestBookingNumberContinuesFromExistingYear(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 5, "10000")
	first := f.book(t, room, "2025-07-01", "2025-07-02")
	require.NoError(t, f.db.Where("name = ?", "booking:2025").Delete(&models.Sequence{}).Error)

	second := f.book(t, room, "2025-07-01", "2025-07-02")
	assert.Equal(t, "BK-2025-000001", first.BookingNumber)
	assert.Equal(t, "BK-2025-000002", second.BookingNumber)

	f.bookings.WithClock(fixedClock(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	third := f.book(t, room, "2026-02-01", "2026-02-02")
	assert.Equal(t, "BK-2026-000001", third.BookingNumber)
}

func TestCanBeCancelled(t *testing.T) {
	f := newFixture(t)
	future := models.Booking{Status: models.BookingConfirmed, CheckIn: day(t, "2025-06-02")}
	started := models.Booking{Status: models.BookingConfirmed, CheckIn: day(t, "2025-06-01")}
	done := models.Booking{Status: models.BookingCompleted, CheckIn: day(t, "2025-07-01")}

	assert.True(t, f.bookings.CanBeCancelled(future))
	assert.False(t, f.bookings.CanBeCancelled(started))
	assert.False(t, f.bookings.CanBeCancelled(done))
}

func TestListBookingsFilters(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 3, "10000")
	a := f.book(t, room, "2025-07-01", "2025-07-03")
	f.book(t, room, "2025-08-01", "2025-08-03")
	_, err := f.bookings.Confirm(f.ctx, a.ID, nil, "")
	require.NoError(t, err)

	list, total, err := f.bookings.List(f.ctx, BookingFilter{HostID: f.host.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = f.bookings.List(f.ctx, BookingFilter{Status: "confirmed"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, a.ID, list[0].ID)

	_, total, err = f.bookings.List(f.ctx, BookingFilter{From: day(t, "2025-07-02"), To: day(t, "2025-07-10")})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, _, err = f.bookings.List(f.ctx, BookingFilter{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransitionHistoryRecordsPreviousStatus(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "25000")
	b := f.book(t, room, "2025-07-01", "2025-07-03")
	f.complete(t, b.ID)

	history, err := f.bookings.History(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.BookingStatus(""), history[0].OldStatus)
	assert.Equal(t, models.BookingPending, history[0].NewStatus)
	assert.Equal(t, models.BookingPending, history[1].OldStatus)
	assert.Equal(t, models.BookingConfirmed, history[1].NewStatus)
	assert.Equal(t, models.BookingConfirmed, history[2].OldStatus)
	assert.Equal(t, models.BookingCompleted, history[2].NewStatus)
}

func TestReserveFailsAfterStaleAvailabilityRead(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "25000")
	in, out := day(t, "2025-07-01"), day(t, "2025-07-03")

	err := f.db.Transaction(func(tx *gorm.DB) error {
		ok, err := isAvailableForRangeTx(tx, room, in, out, 1)
		require.NoError(t, err)
		require.True(t, ok)

		// another booking takes the last unit after the check
		_, err = materializeTx(tx, room, utils.DatesInRange(in, out)...)
		require.NoError(t, err)
		require.NoError(t, tx.Model(&models.Availability{}).Where("room_id = ?", room.ID).
			Update("available_quantity", 0).Error)

		return f.ledger.reserveTx(tx, room, in, out, 1)
	})
	assert.ErrorIs(t, err, ErrAvailabilityConflict)
}

func TestCreateBookingRollsBackWhenLastUnitIsTakenMidway(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 1, "25000")
	_, err := f.ledger.PrepopulateWindow(f.ctx, room, day(t, "2025-07-01"), 3)
	require.NoError(t, err)

	// The sequence row is created after the availability check and before
	// the reservation, which is where a concurrent booking can slip in.
	takeLastUnit := func(db *gorm.DB) {
		if db.Statement.Schema == nil || db.Statement.Schema.Table != "sequences" {
			return
		}
		db.Session(&gorm.Session{NewDB: true}).Model(&models.Availability{}).
			Where("room_id = ?", room.ID).
			Update("available_quantity", 0)
	}
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:take_last_unit", takeLastUnit))
	t.Cleanup(func() { _ = f.db.Callback().Create().Remove("test:take_last_unit") })

	_, err = f.bookings.Create(f.ctx, CreateBookingInput{UserID: f.guest.ID, RoomID: room.ID, GuestsAdults: 1,
		CheckIn: day(t, "2025-07-01"), CheckOut: day(t, "2025-07-03")})
	assert.ErrorIs(t, err, ErrAvailabilityConflict)

	var bookings, sequences int64
	f.db.Model(&models.Booking{}).Count(&bookings)
	f.db.Model(&models.Sequence{}).Count(&sequences)
	assert.Zero(t, bookings)
	assert.Zero(t, sequences)
	assert.Empty(t, f.events.Types())
}
