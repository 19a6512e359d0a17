package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospitality-backoffice/models"
)

// Well-known setting keys.
const (
	SettingCommissionRate         = "commission_rate"
	SettingDefaultCurrency        = "default_currency"
	SettingSupportedLocales       = "supported_locales"
	SettingDefaultLocale          = "default_locale"
	SettingNotificationsEnabled   = "notifications_enabled"
	SettingAutoConfirmBookings    = "auto_confirm_bookings"
	SettingInvoiceDueDays         = "invoice_due_days"
	SettingMinBookingHours        = "min_booking_hours"
	SettingMaxBookingDays         = "max_booking_days"
	SettingAvailabilityWindowDays = "availability_window_days"
)

const (
	settingsCacheTTL = time.Hour
	settingsAllKey   = "settings:all"
)

var defaultSettings = []models.Setting{
	{Key: SettingCommissionRate, Value: "5", Type: models.SettingDecimal, Description: "Platform commission rate (%)"},
	{Key: SettingDefaultCurrency, Value: "XOF", Type: models.SettingString, Description: "Default currency code"},
	{Key: SettingSupportedLocales, Value: `["fr","en"]`, Type: models.SettingJSON, Description: "Supported locales"},
	{Key: SettingDefaultLocale, Value: "fr", Type: models.SettingString, Description: "Fallback locale"},
	{Key: SettingNotificationsEnabled, Value: "true", Type: models.SettingBoolean, Description: "Enable notifications"},
	{Key: SettingAutoConfirmBookings, Value: "false", Type: models.SettingBoolean, Description: "Confirm new bookings automatically"},
	{Key: SettingInvoiceDueDays, Value: "15", Type: models.SettingInteger, Description: "Invoice due day of the month following the period"},
	{Key: SettingMinBookingHours, Value: "24", Type: models.SettingInteger, Description: "Minimum hours before check-in to book"},
	{Key: SettingMaxBookingDays, Value: "365", Type: models.SettingInteger, Description: "Maximum days ahead a booking can be made"},
	{Key: SettingAvailabilityWindowDays, Value: "90", Type: models.SettingInteger, Description: "Days of availability pre-created for a new room"},
}

// SettingsStore reads and writes typed platform settings. Reads go through
// the cache; writes hit the table first and then drop the cached entries.
type SettingsStore struct {
	DB    *gorm.DB
	cache Cache
	log   *logrus.Logger
}

func NewSettingsStore(db *gorm.DB, cache Cache, logger *logrus.Logger) *SettingsStore {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SettingsStore{DB: db, cache: cache, log: logger}
}

func cacheKey(key string) string { return "settings:" + key }

// InitializeDefaults inserts every default setting that is not present yet.
// Existing values are never overwritten.
func (s *SettingsStore) InitializeDefaults(ctx context.Context) error {
	for _, def := range defaultSettings {
		row := def
		if err := s.DB.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
			Create(&row).Error; err != nil {
			return fmt.Errorf("seed setting %s: %w", def.Key, err)
		}
	}
	s.invalidate(ctx, settingsAllKey)
	return nil
}

func (s *SettingsStore) load(ctx context.Context, key string) (models.Setting, bool, error) {
	if raw, ok, err := s.cache.Get(ctx, cacheKey(key)); err == nil && ok {
		var cached models.Setting
		if jerr := json.Unmarshal([]byte(raw), &cached); jerr == nil {
			return cached, true, nil
		}
	} else if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("settings cache read failed")
	}

	var row models.Setting
	err := s.DB.WithContext(ctx).Where(&models.Setting{Key: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Setting{}, false, nil
	}
	if err != nil {
		return models.Setting{}, false, err
	}
	if b, jerr := json.Marshal(row); jerr == nil {
		if cerr := s.cache.Set(ctx, cacheKey(key), string(b), settingsCacheTTL); cerr != nil {
			s.log.WithError(cerr).WithField("key", key).Warn("settings cache write failed")
		}
	}
	return row, true, nil
}

// Get returns the decoded value of key, or def when it is missing or unreadable.
func (s *SettingsStore) Get(ctx context.Context, key string, def interface{}) interface{} {
	row, ok, err := s.load(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("settings lookup failed")
		return def
	}
	if !ok {
		return def
	}
	v, err := decodeSetting(row)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("setting has malformed value")
		return def
	}
	return v
}

func (s *SettingsStore) String(ctx context.Context, key, def string) string {
	row, ok, err := s.load(ctx, key)
	if err != nil || !ok {
		return def
	}
	return row.Value
}

func (s *SettingsStore) Bool(ctx context.Context, key string, def bool) bool {
	if v, ok := s.Get(ctx, key, def).(bool); ok {
		return v
	}
	return def
}

func (s *SettingsStore) Int(ctx context.Context, key string, def int) int {
	switch v := s.Get(ctx, key, def).(type) {
	case int:
		return v
	case decimal.Decimal:
		return int(v.IntPart())
	}
	return def
}

func (s *SettingsStore) Decimal(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal {
	switch v := s.Get(ctx, key, def).(type) {
	case decimal.Decimal:
		return v
	case int:
		return decimal.NewFromInt(int64(v))
	}
	return def
}

// JSON decodes a json-typed setting into out. It reports false when the key is missing.
func (s *SettingsStore) JSON(ctx context.Context, key string, out interface{}) (bool, error) {
	row, ok, err := s.load(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal([]byte(row.Value), out)
}

// All returns every setting decoded to its typed value.
func (s *SettingsStore) All(ctx context.Context) (map[string]interface{}, error) {
	var rows []models.Setting
	raw, ok, err := s.cache.Get(ctx, settingsAllKey)
	if err == nil && ok && json.Unmarshal([]byte(raw), &rows) == nil {
		return decodeAll(rows), nil
	}
	if err := s.DB.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&rows).Error; err != nil {
		return nil, err
	}
	if b, jerr := json.Marshal(rows); jerr == nil {
		_ = s.cache.Set(ctx, settingsAllKey, string(b), settingsCacheTTL)
	}
	return decodeAll(rows), nil
}

// Set stores value under key. typ may be empty, in which case the existing
// type (or "string" for a new key) is kept.
func (s *SettingsStore) Set(ctx context.Context, key string, value interface{}, typ string) (models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.Setting{}, validationf("setting key is required")
	}
	if typ == "" {
		if existing, ok, err := s.load(ctx, key); err == nil && ok {
			typ = existing.Type
		} else {
			typ = models.SettingString
		}
	}
	encoded, err := encodeSetting(value, typ)
	if err != nil {
		return models.Setting{}, err
	}

	row := models.Setting{Key: key, Value: encoded, Type: typ}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return models.Setting{}, fmt.Errorf("save setting %s: %w", key, err)
	}

	s.invalidate(ctx, cacheKey(key), settingsAllKey)
	s.log.WithFields(logrus.Fields{"key": key, "type": typ}).Info("setting updated")
	return row, nil
}

// Forget drops one key from the cache without touching the table.
func (s *SettingsStore) Forget(ctx context.Context, key string) {
	s.invalidate(ctx, cacheKey(key), settingsAllKey)
}

func (s *SettingsStore) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WithError(err).WithField("keys", keys).Warn("settings cache invalidation failed")
	}
}

func decodeAll(rows []models.Setting) map[string]interface{} {
	out := make(map[string]interface{}, len(rows))
	for _, r := range rows {
		v, err := decodeSetting(r)
		if err != nil {
			out[r.Key] = r.Value
			continue
		}
		out[r.Key] = v
	}
	return out
}

func decodeSetting(row models.Setting) (interface{}, error) {
	switch row.Type {
	case models.SettingBoolean:
		return strconv.ParseBool(strings.TrimSpace(row.Value))
	case models.SettingInteger:
		n, err := strconv.Atoi(strings.TrimSpace(row.Value))
		return n, err
	case models.SettingDecimal:
		return decimal.NewFromString(strings.TrimSpace(row.Value))
	case models.SettingJSON:
		if !json.Valid([]byte(row.Value)) {
			return nil, fmt.Errorf("invalid json")
		}
		return datatypes.JSON(row.Value), nil
	default:
		return row.Value, nil
	}
}

func encodeSetting(value interface{}, typ string) (string, error) {
	switch typ {
	case models.SettingString:
		if value == nil {
			return "", nil
		}
		return fmt.Sprint(value), nil
	case models.SettingBoolean:
		switch v := value.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return "", validationf("%q is not a boolean", v)
			}
			return strconv.FormatBool(b), nil
		}
	case models.SettingInteger:
		switch v := value.(type) {
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case float64:
			if v == math.Trunc(v) {
				return strconv.FormatInt(int64(v), 10), nil
			}
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return "", validationf("%q is not an integer", v)
			}
			return strconv.Itoa(n), nil
		}
	case models.SettingDecimal:
		switch v := value.(type) {
		case decimal.Decimal:
			return v.String(), nil
		case float64:
			return decimal.NewFromFloat(v).String(), nil
		case int:
			return strconv.Itoa(v), nil
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(v))
			if err != nil {
				return "", validationf("%q is not a decimal", v)
			}
			return d.String(), nil
		}
	case models.SettingJSON:
		if v, ok := value.(string); ok && json.Valid([]byte(v)) {
			return v, nil
		}
		b, err := json.Marshal(value)
		if err != nil {
			return "", validationf("value is not JSON encodable")
		}
		return string(b), nil
	default:
		return "", validationf("unknown setting type %q", typ)
	}
	return "", validationf("value %v does not match type %s", value, typ)
}
