package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospitality-backoffice/models"
)

func (f *fixture) backdate(t *testing.T, bookingID uint, at time.Time) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Booking{}).Where("id = ?", bookingID).Update("created_at", at).Error)
}

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t)

	inv, err := f.invoices.Create(f.ctx, CreateInvoiceInput{HostID: f.host.ID, Month: 6, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-06-0001", inv.InvoiceNumber)
	assert.Equal(t, models.InvoiceDraft, inv.Status)
	assert.Equal(t, f.xof.ID, inv.CurrencyID)
	assert.Equal(t, "2025-07-15", inv.DueDate.Format("2006-01-02"))
	assert.True(t, inv.CommissionRate.Equal(dec("5")))

	_, err = f.invoices.Create(f.ctx, CreateInvoiceInput{HostID: f.host.ID, Month: 6, Year: 2025})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.invoices.Create(f.ctx, CreateInvoiceInput{HostID: f.guest.ID, Month: 6, Year: 2025})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.invoices.Create(f.ctx, CreateInvoiceInput{HostID: f.host.ID, Month: 13, Year: 2025})
	assert.ErrorIs(t, err, ErrValidation)

	dec2025, err := f.invoices.Create(f.ctx, CreateInvoiceInput{HostID: f.host.ID, Month: 12, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", dec2025.DueDate.Format("2006-01-02"))
}

func TestInvoiceUsesHostPreferredCurrency(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.host).Update("preferred_currency_id", f.eur.ID).Error)

	inv, err := f.invoices.Create(f.ctx, CreateInvoiceInput{HostID: f.host.ID, Month: 6, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, f.eur.ID, inv.CurrencyID)
	assert.True(t, inv.ExchangeRateUsed.Equal(f.eur.ExchangeRate))
}

func TestCalculateTotalsConvertsAndIsRepeatable(t *testing.T) {
	f := newFixture(t)
	xofRoom := f.createRoom(t, 2, "25000")
	eurRoom := f.createRoom(t, 2, "50")

	a := f.book(t, xofRoom, "2025-06-10", "2025-06-13")
	b, err := f.bookings.Create(f.ctx, CreateBookingInput{UserID: f.guest.ID, RoomID: eurRoom.ID, GuestsAdults: 1,
		CheckIn: day(t, "2025-06-20"), CheckOut: day(t, "2025-06-22"), CurrencyID: &f.eur.ID})
	require.NoError(t, err)
	pending := f.book(t, xofRoom, "2025-06-15", "2025-06-16")
	other := f.book(t, xofRoom, "2025-07-01", "2025-07-02")

	for _, id := range []uint{a.ID, b.ID, other.ID} {
		f.complete(t, id)
	}
	inJune := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	f.backdate(t, a.ID, inJune)
	f.backdate(t, b.ID, inJune)
	f.backdate(t, pending.ID, inJune)
	f.backdate(t, other.ID, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))

	inv, err := f.invoices.Create(f.ctx, CreateInvoiceInput{HostID: f.host.ID, Month: 6, Year: 2025})
	require.NoError(t, err)

	wantEURAmount := f.convert(t, dec("100"), f.eur, f.xof).Round(0)
	wantEURFee := f.convert(t, dec("5"), f.eur, f.xof).Round(0)

	for i := 0; i < 2; i++ {
		got, err := f.invoices.CalculateTotals(f.ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.TotalBookings)
		require.Len(t, got.Items, 2)
		assert.True(t, got.TotalRevenue.Equal(dec("75000").Add(wantEURAmount)), got.TotalRevenue.String())
		assert.True(t, got.CommissionAmount.Equal(dec("3750").Add(wantEURFee)), got.CommissionAmount.String())
		assert.Equal(t, "Booking #"+a.BookingNumber+" from 10/06/2025 to 13/06/2025", got.Items[0].Description)
		assert.True(t, got.Items[1].BookingAmount.Equal(wantEURAmount))
	}
	assert.True(t, wantEURAmount.GreaterThan(dec("65000")) && wantEURAmount.LessThan(dec("66000")))

	var items int64
	f.db.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&items)
	assert.EqualValues(t, 2, items)
}

func TestInvoiceLifecycle(t *testing.T) {
	f := newFixture(t)
	inv, err := f.invoices.Create(f.ctx, CreateInvoiceInput{HostID: f.host.ID, Month: 5, Year: 2025})
	require.NoError(t, err)

	_, err = f.invoices.MarkAsPaid(f.ctx, inv.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	sent, err := f.invoices.MarkAsSent(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	_, err = f.invoices.CalculateTotals(f.ctx, inv.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.False(t, f.invoices.IsOverdue(sent))
	f.invoices.WithClock(fixedClock(time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)))
	assert.True(t, f.invoices.IsOverdue(sent))

	paid, err := f.invoices.MarkAsPaid(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.False(t, f.invoices.IsOverdue(paid))

	_, err = f.invoices.MarkAsSent(f.ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateForPeriod(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, 2, "10000")
	b := f.book(t, room, "2025-06-10", "2025-06-11")
	f.complete(t, b.ID)
	f.backdate(t, b.ID, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))

	invoices, err := f.invoices.GenerateForPeriod(f.ctx, 6, 2025)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, f.host.ID, invoices[0].UserID)
	assert.Equal(t, 1, invoices[0].TotalBookings)
	assert.True(t, invoices[0].TotalRevenue.Equal(dec("10000")))

	again, err := f.invoices.GenerateForPeriod(f.ctx, 6, 2025)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, invoices[0].ID, again[0].ID)

	none, err := f.invoices.GenerateForPeriod(f.ctx, 7, 2025)
	require.NoError(t, err)
	assert.Empty(t, none)
}
