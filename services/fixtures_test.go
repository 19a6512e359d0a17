package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hospitality-backoffice/models"
	"hospitality-backoffice/utils"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func dec(raw string) decimal.Decimal { return decimal.RequireFromString(raw) }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	ctx        context.Context
	db         *gorm.DB
	events     *RecordingPublisher
	settings   *SettingsStore
	currencies *CurrencyService
	ledger     *AvailabilityService
	pricing    *PricingService
	bookings   *BookingService
	invoices   *InvoiceService
	reviews    *ReviewService
	rooms      *RoomService

	xof, eur, usd models.Currency
	host, guest   models.User
	acc           models.Accommodation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{ctx: ctx, db: db, events: &RecordingPublisher{}}
	f.settings = NewSettingsStore(db, NewMemoryCache(), log)
	require.NoError(t, f.settings.InitializeDefaults(ctx))
	f.currencies = NewCurrencyService(db, log)
	f.ledger = NewAvailabilityService(db, log)
	f.pricing = NewPricingService(db)
	f.bookings = NewBookingService(db, f.ledger, f.currencies, f.settings, f.events, log).WithClock(fixedClock(testNow))
	f.invoices = NewInvoiceService(db, f.currencies, f.settings, f.events, log).WithClock(fixedClock(testNow))
	f.reviews = NewReviewService(db, log)
	f.rooms = NewRoomService(db, f.settings, log).WithClock(fixedClock(testNow))

	f.xof = models.Currency{Code: "XOF", Name: "Franc CFA", Symbol: "FCFA", ExchangeRate: dec("1"), DecimalPlaces: 0, IsActive: true, IsDefault: true}
	f.eur = models.Currency{Code: "EUR", Name: "Euro", Symbol: "€", ExchangeRate: dec("0.0015244902"), DecimalPlaces: 2, IsActive: true}
	f.usd = models.Currency{Code: "USD", Name: "US Dollar", Symbol: "$", ExchangeRate: dec("0.0016380016"), DecimalPlaces: 2, IsActive: true}
	for _, c := range []*models.Currency{&f.xof, &f.eur, &f.usd} {
		require.NoError(t, db.Create(c).Error)
	}

	f.host = models.User{Type: models.UserTypeHost, Name: "Awa Diallo", Email: "host@example.com"}
	f.guest = models.User{Type: models.UserTypeClient, Name: "Jean Guest", Email: "guest@example.com"}
	require.NoError(t, db.Create(&f.host).Error)
	require.NoError(t, db.Create(&f.guest).Error)

	f.acc = models.Accommodation{
		UserID:      f.host.ID,
		Type:        "hotel",
		Name:        "Villa Lagune",
		Description: datatypes.NewJSONType(models.Translations{"fr": "Au bord de la lagune", "en": "By the lagoon"}),
		Status:      models.AccommodationActive,
	}
	require.NoError(t, db.Omit("Host", "Currency", "Rooms").Create(&f.acc).Error)
	return f
}

// createRoom inserts a room without any availability rows.
func (f *fixture) createRoom(t *testing.T, total int, price string) models.Room {
	t.Helper()
	room := models.Room{
		AccommodationID:   f.acc.ID,
		Name:              datatypes.NewJSONType(models.Translations{"fr": "Chambre double", "en": "Double room"}),
		CapacityAdults:    2,
		CapacityChildren:  1,
		BasePricePerNight: dec(price),
		TotalQuantity:     total,
	}
	require.NoError(t, f.db.Omit("Accommodation").Create(&room).Error)
	return room
}

func (f *fixture) book(t *testing.T, room models.Room, in, out string) models.Booking {
	t.Helper()
	b, err := f.bookings.Create(f.ctx, CreateBookingInput{
		UserID:       f.guest.ID,
		RoomID:       room.ID,
		CheckIn:      day(t, in),
		CheckOut:     day(t, out),
		GuestsAdults: 1,
		GuestName:    "Jean Guest",
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) complete(t *testing.T, id uint) models.Booking {
	t.Helper()
	_, err := f.bookings.Confirm(f.ctx, id, nil, "")
	require.NoError(t, err)
	_, err = f.bookings.CheckIn(f.ctx, id, nil)
	require.NoError(t, err)
	b, err := f.bookings.CheckOut(f.ctx, id, nil)
	require.NoError(t, err)
	return b
}

func (f *fixture) quantity(t *testing.T, room models.Room, date string) int {
	t.Helper()
	q, err := f.ledger.AvailableQuantity(f.ctx, room, day(t, date))
	require.NoError(t, err)
	return q
}

func (f *fixture) convert(t *testing.T, amount decimal.Decimal, from, to models.Currency) decimal.Decimal {
	t.Helper()
	out, err := f.currencies.Convert(amount, from, to)
	require.NoError(t, err)
	return out
}
