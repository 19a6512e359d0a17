package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hospitality-backoffice/models"
)

type CreateRoomInput struct {
	AccommodationID   uint                `json:"accommodation_id" validate:"required"`
	Name              models.Translations `json:"name" validate:"required,min=1"`
	Description       models.Translations `json:"description"`
	RoomType          string              `json:"room_type" validate:"max=50"`
	BedType           string              `json:"bed_type" validate:"max=50"`
	SizeSqm           int                 `json:"size_sqm" validate:"min=0"`
	Amenities         []string            `json:"amenities"`
	CapacityAdults    int                 `json:"capacity_adults" validate:"min=1"`
	CapacityChildren  int                 `json:"capacity_children" validate:"min=0"`
	BasePricePerNight decimal.Decimal     `json:"base_price_per_night"`
	TotalQuantity     int                 `json:"total_quantity"`
}

type RoomService struct {
	DB       *gorm.DB
	settings *SettingsStore
	log      *logrus.Logger
	now      Clock
}

func NewRoomService(db *gorm.DB, settings *SettingsStore, logger *logrus.Logger) *RoomService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RoomService{DB: db, settings: settings, log: logger, now: systemClock}
}

func (s *RoomService) WithClock(c Clock) *RoomService {
	s.now = c
	return s
}

// Create adds a room and pre-creates its availability for the rolling window.
func (s *RoomService) Create(ctx context.Context, in CreateRoomInput) (models.Room, error) {
	if err := validateStruct(in); err != nil {
		return models.Room{}, err
	}
	if in.TotalQuantity < 1 {
		return models.Room{}, validationf("total_quantity must be at least 1")
	}
	if in.BasePricePerNight.IsNegative() {
		return models.Room{}, validationf("base_price_per_night must not be negative")
	}
	window := s.settings.Int(ctx, SettingAvailabilityWindowDays, 90)

	var room models.Room
	var created int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acc models.Accommodation
		if err := tx.First(&acc, in.AccommodationID).Error; err != nil {
			return notFoundOr(err, "accommodation", in.AccommodationID)
		}
		amenities := in.Amenities
		if amenities == nil {
			amenities = []string{}
		}
		room = models.Room{
			AccommodationID:   acc.ID,
			Name:              datatypes.NewJSONType(in.Name),
			Description:       datatypes.NewJSONType(in.Description),
			RoomType:          in.RoomType,
			BedType:           in.BedType,
			SizeSqm:           in.SizeSqm,
			Amenities:         datatypes.NewJSONSlice(amenities),
			CapacityAdults:    in.CapacityAdults,
			CapacityChildren:  in.CapacityChildren,
			BasePricePerNight: in.BasePricePerNight,
			TotalQuantity:     in.TotalQuantity,
		}
		if err := tx.Omit("Accommodation").Create(&room).Error; err != nil {
			return err
		}
		var err error
		created, err = prepopulateTx(tx, room, s.now(), window)
		return err
	})
	if err != nil {
		return models.Room{}, err
	}
	s.log.WithFields(logrus.Fields{"room_id": room.ID, "availability_rows": created}).Info("room created")
	return room, nil
}

func (s *RoomService) Get(ctx context.Context, id uint) (models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).Preload("Accommodation").First(&room, id).Error; err != nil {
		return models.Room{}, notFoundOr(err, "room", id)
	}
	return room, nil
}
