package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospitality-backoffice/models"
	"hospitality-backoffice/utils"
)

const invoiceDateLayout = "02/01/2006"

type CreateInvoiceInput struct {
	HostID     uint  `json:"host_id" validate:"required"`
	Month      int   `json:"month" validate:"min=1,max=12"`
	Year       int   `json:"year" validate:"min=2000,max=2100"`
	CurrencyID *uint `json:"currency_id"`
}

// InvoiceService builds the monthly commission invoices of hosts.
type InvoiceService struct {
	DB         *gorm.DB
	currencies *CurrencyService
	settings   *SettingsStore
	events     EventPublisher
	log        *logrus.Logger
	now        Clock
}

func NewInvoiceService(db *gorm.DB, currencies *CurrencyService, settings *SettingsStore, events EventPublisher, logger *logrus.Logger) *InvoiceService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if events == nil {
		events = NewLogPublisher(logger)
	}
	return &InvoiceService{DB: db, currencies: currencies, settings: settings, events: events, log: logger, now: systemClock}
}

func (s *InvoiceService) WithClock(c Clock) *InvoiceService {
	s.now = c
	return s
}

// DueDate is the configured day of the month following the period.
func (s *InvoiceService) DueDate(ctx context.Context, month, year int) time.Time {
	day := s.settings.Int(ctx, SettingInvoiceDueDays, 15)
	if day < 1 {
		day = 1
	}
	if day > 28 {
		day = 28
	}
	_, next := utils.MonthBounds(month, year)
	return next.AddDate(0, 0, day-1)
}

// Create opens a draft invoice for a host and period. A second invoice for
// the same host and period fails with ErrConflict.
func (s *InvoiceService) Create(ctx context.Context, in CreateInvoiceInput) (models.Invoice, error) {
	if err := validateStruct(in); err != nil {
		return models.Invoice{}, err
	}
	rate := s.settings.Decimal(ctx, SettingCommissionRate, decimal.NewFromInt(5))
	due := s.DueDate(ctx, in.Month, in.Year)

	var inv models.Invoice
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var host models.User
		if err := tx.First(&host, in.HostID).Error; err != nil {
			return notFoundOr(err, "host", in.HostID)
		}
		if !host.IsHost() {
			return validationf("user %d is not a host", host.ID)
		}

		currency, err := s.invoiceCurrencyTx(tx, host, in.CurrencyID)
		if err != nil {
			return err
		}

		var exists int64
		if err := tx.Model(&models.Invoice{}).
			Where("user_id = ? AND month = ? AND year = ?", host.ID, in.Month, in.Year).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return fmt.Errorf("%w: invoice for host %d %02d/%d already exists", ErrConflict, host.ID, in.Month, in.Year)
		}

		number, err := nextInvoiceNumberTx(tx, in.Month, in.Year)
		if err != nil {
			return err
		}
		inv = models.Invoice{
			InvoiceNumber:    number,
			UserID:           host.ID,
			Month:            in.Month,
			Year:             in.Year,
			CurrencyID:       currency.ID,
			ExchangeRateUsed: currency.ExchangeRate,
			TotalRevenue:     decimal.Zero,
			CommissionRate:   rate,
			CommissionAmount: decimal.Zero,
			Status:           models.InvoiceDraft,
			DueDate:          due,
		}
		return tx.Create(&inv).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return models.Invoice{}, fmt.Errorf("%w: invoice for host %d %02d/%d already exists", ErrConflict, in.HostID, in.Month, in.Year)
		}
		return models.Invoice{}, err
	}
	s.log.WithFields(logrus.Fields{"invoice": inv.InvoiceNumber, "host_id": inv.UserID}).Info("invoice created")
	return inv, nil
}

func (s *InvoiceService) invoiceCurrencyTx(tx *gorm.DB, host models.User, requested *uint) (models.Currency, error) {
	if requested != nil {
		return loadActiveCurrencyTx(tx, *requested)
	}
	if host.PreferredCurrencyID != nil {
		c, err := loadActiveCurrencyTx(tx, *host.PreferredCurrencyID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrValidation) && !errors.Is(err, ErrNotFound) {
			return models.Currency{}, err
		}
	}
	return defaultCurrencyTx(tx)
}

func nextInvoiceNumberTx(tx *gorm.DB, month, year int) (string, error) {
	prefix := fmt.Sprintf("INV-%04d-%02d-", year, month)
	n, err := nextSequenceTx(tx, fmt.Sprintf("invoice:%04d-%02d", year, month), func() (int, error) {
		var c int64
		err := tx.Model(&models.Invoice{}).Where("invoice_number LIKE ?", prefix+"%").Count(&c).Error
		return int(c), err
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, n), nil
}

// CalculateTotals rebuilds the items and totals of a draft invoice from the
// host's completed bookings created during the invoice period. Amounts in
// another currency are converted into the invoice currency. Existing items
// are replaced, so running it twice yields the same invoice.
func (s *InvoiceService) CalculateTotals(ctx context.Context, id uint) (models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error; err != nil {
			return notFoundOr(err, "invoice", id)
		}
		if inv.Status != models.InvoiceDraft {
			return fmt.Errorf("%w: invoice %s is %s, only drafts can be recalculated", ErrInvalidTransition, inv.InvoiceNumber, inv.Status)
		}
		var currency models.Currency
		if err := tx.First(&currency, inv.CurrencyID).Error; err != nil {
			return notFoundOr(err, "currency", inv.CurrencyID)
		}

		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}

		start, end := utils.MonthBounds(inv.Month, inv.Year)
		var bookings []models.Booking
		if err := tx.Preload("Currency").
			Where("status = ?", models.BookingCompleted).
			Where("room_id IN (?)", hostRoomIDs(tx, inv.UserID)).
			Where("created_at >= ? AND created_at < ?", start, end).
			Order("created_at ASC").Order("id ASC").
			Find(&bookings).Error; err != nil {
			return err
		}

		places := int32(currency.DecimalPlaces)
		revenue, commission := decimal.Zero, decimal.Zero
		items := make([]models.InvoiceItem, 0, len(bookings))
		for _, b := range bookings {
			amount, fee := b.TotalAmount, b.CommissionAmount
			if b.CurrencyID != currency.ID {
				var err error
				if amount, err = s.currencies.Convert(amount, b.Currency, currency); err != nil {
					return fmt.Errorf("booking %s: %w", b.BookingNumber, err)
				}
				if fee, err = s.currencies.Convert(fee, b.Currency, currency); err != nil {
					return fmt.Errorf("booking %s: %w", b.BookingNumber, err)
				}
				amount, fee = amount.Round(places), fee.Round(places)
			}
			revenue = revenue.Add(amount)
			commission = commission.Add(fee)
			items = append(items, models.InvoiceItem{
				InvoiceID:        inv.ID,
				BookingID:        b.ID,
				Description:      itemDescription(b),
				BookingAmount:    amount,
				CommissionAmount: fee,
			})
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&inv).Updates(map[string]interface{}{
			"total_bookings":     len(bookings),
			"total_revenue":      revenue,
			"commission_amount":  commission,
			"exchange_rate_used": currency.ExchangeRate,
		}).Error; err != nil {
			return err
		}
		return tx.Preload("Items").Preload("Currency").First(&inv, inv.ID).Error
	})
	if err != nil {
		return models.Invoice{}, err
	}

	s.log.WithFields(logrus.Fields{
		"invoice":  inv.InvoiceNumber,
		"bookings": inv.TotalBookings,
		"revenue":  inv.TotalRevenue.String(),
	}).Info("invoice totals calculated")
	ev := newEvent(EventInvoiceCalculated, map[string]interface{}{
		"invoice_id":        inv.ID,
		"invoice_number":    inv.InvoiceNumber,
		"host_id":           inv.UserID,
		"total_bookings":    inv.TotalBookings,
		"total_revenue":     inv.TotalRevenue.String(),
		"commission_amount": inv.CommissionAmount.String(),
	})
	if perr := s.events.Publish(ctx, ev); perr != nil {
		s.log.WithError(perr).WithField("invoice_id", inv.ID).Warn("event not delivered")
	}
	return inv, nil
}

func itemDescription(b models.Booking) string {
	return fmt.Sprintf("Booking #%s from %s to %s",
		b.BookingNumber, b.CheckIn.Format(invoiceDateLayout), b.CheckOut.Format(invoiceDateLayout))
}

func (s *InvoiceService) advance(ctx context.Context, id uint, from, to models.InvoiceStatus, stampColumn string) (models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error; err != nil {
			return notFoundOr(err, "invoice", id)
		}
		if inv.Status != from {
			return fmt.Errorf("%w: invoice %s is %s, expected %s", ErrInvalidTransition, inv.InvoiceNumber, inv.Status, from)
		}
		if err := tx.Model(&inv).Updates(map[string]interface{}{
			"status":    to,
			stampColumn: s.now(),
		}).Error; err != nil {
			return err
		}
		return tx.First(&inv, inv.ID).Error
	})
	if err != nil {
		return models.Invoice{}, err
	}
	s.log.WithFields(logrus.Fields{"invoice": inv.InvoiceNumber, "status": inv.Status}).Info("invoice status changed")
	return inv, nil
}

func (s *InvoiceService) MarkAsSent(ctx context.Context, id uint) (models.Invoice, error) {
	return s.advance(ctx, id, models.InvoiceDraft, models.InvoiceSent, "sent_at")
}

func (s *InvoiceService) MarkAsPaid(ctx context.Context, id uint) (models.Invoice, error) {
	return s.advance(ctx, id, models.InvoiceSent, models.InvoicePaid, "paid_at")
}

func (s *InvoiceService) IsOverdue(inv models.Invoice) bool {
	return inv.IsOverdue(utils.DateOnly(s.now()))
}

func (s *InvoiceService) Get(ctx context.Context, id uint) (models.Invoice, error) {
	var inv models.Invoice
	err := s.DB.WithContext(ctx).Preload("Items").Preload("Currency").Preload("User").First(&inv, id).Error
	if err != nil {
		return models.Invoice{}, notFoundOr(err, "invoice", id)
	}
	return inv, nil
}

// GenerateForPeriod creates and calculates the invoice of every host with at
// least one completed booking created in the period. Drafts that already
// exist are recalculated; sent or paid invoices are left alone.
func (s *InvoiceService) GenerateForPeriod(ctx context.Context, month, year int) ([]models.Invoice, error) {
	if month < 1 || month > 12 {
		return nil, validationf("month must be between 1 and 12")
	}
	start, end := utils.MonthBounds(month, year)

	var hostIDs []uint
	err := s.DB.WithContext(ctx).Table("bookings").
		Distinct("accommodations.user_id").
		Joins("JOIN rooms ON rooms.id = bookings.room_id").
		Joins("JOIN accommodations ON accommodations.id = rooms.accommodation_id").
		Where("bookings.status = ? AND bookings.deleted_at IS NULL", models.BookingCompleted).
		Where("bookings.created_at >= ? AND bookings.created_at < ?", start, end).
		Pluck("accommodations.user_id", &hostIDs).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.Invoice, 0, len(hostIDs))
	for _, hostID := range hostIDs {
		var existing models.Invoice
		err := s.DB.WithContext(ctx).
			Where("user_id = ? AND month = ? AND year = ?", hostID, month, year).
			First(&existing).Error
		switch {
		case err == nil && existing.Status != models.InvoiceDraft:
			continue
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing, err = s.Create(ctx, CreateInvoiceInput{HostID: hostID, Month: month, Year: year})
			if err != nil {
				return out, err
			}
		default:
			return out, err
		}

		inv, err := s.CalculateTotals(ctx, existing.ID)
		if err != nil {
			return out, err
		}
		out = append(out, inv)
	}
	s.log.WithFields(logrus.Fields{"month": month, "year": year, "invoices": len(out)}).Info("invoices generated")
	return out, nil
}
