package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospitality-backoffice/models"
	"hospitality-backoffice/utils"
)

const defaultRateHistoryLimit = 20

type CurrencyService struct {
	DB  *gorm.DB
	log *logrus.Logger
}

func NewCurrencyService(db *gorm.DB, logger *logrus.Logger) *CurrencyService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CurrencyService{DB: db, log: logger}
}

// Convert moves amount from one currency into another through the base
// currency: amount / from.rate * to.rate. Same-currency conversion returns
// amount untouched so no rounding is introduced. A non-positive rate on
// either side is a data error and fails the conversion.
func (s *CurrencyService) Convert(amount decimal.Decimal, from, to models.Currency) (decimal.Decimal, error) {
	if sameCurrency(from, to) {
		return amount, nil
	}
	for _, c := range []models.Currency{from, to} {
		if !c.ExchangeRate.IsPositive() {
			s.log.WithFields(logrus.Fields{
				"invariant": "exchange_rate_positive",
				"currency":  c.Code,
				"rate":      c.ExchangeRate.String(),
			}).Error("conversion through a non-positive exchange rate")
			return decimal.Zero, fmt.Errorf("currency %s has no usable exchange rate", c.Code)
		}
	}
	return amount.Div(from.ExchangeRate).Mul(to.ExchangeRate), nil
}

// ConvertCodes resolves both currencies by code and converts, rounding to the
// target currency's decimal places. Identity conversions are not rounded.
func (s *CurrencyService) ConvertCodes(ctx context.Context, amount decimal.Decimal, fromCode, toCode string) (decimal.Decimal, models.Currency, error) {
	from, err := s.GetByCode(ctx, fromCode)
	if err != nil {
		return decimal.Zero, models.Currency{}, err
	}
	to, err := s.GetByCode(ctx, toCode)
	if err != nil {
		return decimal.Zero, models.Currency{}, err
	}
	if sameCurrency(from, to) {
		return amount, to, nil
	}
	out, err := s.Convert(amount, from, to)
	if err != nil {
		return decimal.Zero, models.Currency{}, err
	}
	return out.Round(int32(to.DecimalPlaces)), to, nil
}

// Format renders amount as "<symbol> <number>" using the currency's precision.
func (s *CurrencyService) Format(amount decimal.Decimal, c models.Currency) string {
	return FormatMoney(amount, c)
}

func FormatMoney(amount decimal.Decimal, c models.Currency) string {
	return c.Symbol + " " + utils.FormatNumber(amount, c.DecimalPlaces)
}

func sameCurrency(a, b models.Currency) bool {
	if a.ID != 0 && a.ID == b.ID {
		return true
	}
	return a.Code != "" && strings.EqualFold(a.Code, b.Code)
}

func (s *CurrencyService) Default(ctx context.Context) (models.Currency, error) {
	return defaultCurrencyTx(s.DB.WithContext(ctx))
}

func defaultCurrencyTx(tx *gorm.DB) (models.Currency, error) {
	var c models.Currency
	if err := tx.Where("is_default = ?", true).First(&c).Error; err != nil {
		return models.Currency{}, notFoundOr(err, "default currency", "")
	}
	return c, nil
}

func (s *CurrencyService) GetByID(ctx context.Context, id uint) (models.Currency, error) {
	var c models.Currency
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return models.Currency{}, notFoundOr(err, "currency", id)
	}
	return c, nil
}

func (s *CurrencyService) GetByCode(ctx context.Context, code string) (models.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var c models.Currency
	if err := s.DB.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return models.Currency{}, notFoundOr(err, "currency", code)
	}
	return c, nil
}

func (s *CurrencyService) ListActive(ctx context.Context) ([]models.Currency, error) {
	var list []models.Currency
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("is_default DESC").Order("code ASC").
		Find(&list).Error
	return list, err
}

// UpdateRate changes a currency's exchange rate and records the new value in
// the history log within the same transaction. The default currency is pinned.
func (s *CurrencyService) UpdateRate(ctx context.Context, currencyID uint, rate decimal.Decimal, changedBy *uint) (models.Currency, error) {
	var out models.Currency
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Currency
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, currencyID).Error; err != nil {
			return notFoundOr(err, "currency", currencyID)
		}
		if c.IsDefault {
			return fmt.Errorf("%w: %s is the default currency, its rate is fixed at 1", ErrImmutableRate, c.Code)
		}
		if !rate.IsPositive() {
			return validationf("exchange rate must be greater than 0")
		}

		if err := tx.Model(&c).Update("exchange_rate", rate).Error; err != nil {
			return fmt.Errorf("update rate: %w", err)
		}
		entry := models.ExchangeRateHistory{CurrencyID: c.ID, Rate: rate, ChangedBy: changedBy}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append rate history: %w", err)
		}
		c.ExchangeRate = rate
		out = c
		return nil
	})
	if err != nil {
		return models.Currency{}, err
	}
	s.log.WithFields(logrus.Fields{
		"currency": out.Code,
		"rate":     rate.String(),
	}).Info("exchange rate updated")
	return out, nil
}

func (s *CurrencyService) RateHistory(ctx context.Context, currencyID uint, limit int) ([]models.ExchangeRateHistory, error) {
	if limit <= 0 {
		limit = defaultRateHistoryLimit
	}
	var rows []models.ExchangeRateHistory
	err := s.DB.WithContext(ctx).
		Where("currency_id = ?", currencyID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// SetActive bulk toggles is_active. Deactivation never touches the default
// currency. It returns how many rows changed.
func (s *CurrencyService) SetActive(ctx context.Context, ids []uint, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, validationf("no currency selected")
	}
	q := s.DB.WithContext(ctx).Model(&models.Currency{}).Where("id IN ?", ids)
	if !active {
		q = q.Where("is_default = ?", false)
	}
	res := q.Update("is_active", active)
	return res.RowsAffected, res.Error
}

// Delete removes a currency that is neither the default nor referenced by a
// booking, invoice or accommodation. Its rate history is kept.
func (s *CurrencyService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Currency
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error; err != nil {
			return notFoundOr(err, "currency", id)
		}
		if c.IsDefault {
			return fmt.Errorf("%w: the default currency cannot be deleted", ErrImmutableRate)
		}
		for _, ref := range []interface{}{&models.Booking{}, &models.Invoice{}, &models.Accommodation{}} {
			var n int64
			if err := tx.Model(ref).Where("currency_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: currency %s is in use", ErrImmutableRate, c.Code)
			}
		}
		return tx.Delete(&c).Error
	})
}

// loadActiveCurrencyTx fetches an active currency by id inside tx.
func loadActiveCurrencyTx(tx *gorm.DB, id uint) (models.Currency, error) {
	var c models.Currency
	if err := tx.First(&c, id).Error; err != nil {
		return models.Currency{}, notFoundOr(err, "currency", id)
	}
	if !c.IsActive {
		return models.Currency{}, validationf("currency %s is not active", c.Code)
	}
	return c, nil
}
