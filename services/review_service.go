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
)

type CreateReviewInput struct {
	BookingID           uint   `json:"booking_id" validate:"required"`
	Rating              int    `json:"rating" validate:"min=1,max=5"`
	Comment             string `json:"comment" validate:"max=5000"`
	CleanlinessRating   *int   `json:"cleanliness_rating" validate:"omitempty,min=1,max=5"`
	LocationRating      *int   `json:"location_rating" validate:"omitempty,min=1,max=5"`
	ValueRating         *int   `json:"value_rating" validate:"omitempty,min=1,max=5"`
	CommunicationRating *int   `json:"communication_rating" validate:"omitempty,min=1,max=5"`
}

type ReviewService struct {
	DB  *gorm.DB
	log *logrus.Logger
	now Clock
}

func NewReviewService(db *gorm.DB, logger *logrus.Logger) *ReviewService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ReviewService{DB: db, log: logger, now: systemClock}
}

// CanCreateForBooking: the stay is completed, the guest checked out and no
// review exists yet.
func (s *ReviewService) CanCreateForBooking(ctx context.Context, b models.Booking) (bool, error) {
	return canReviewTx(s.DB.WithContext(ctx), b)
}

func canReviewTx(tx *gorm.DB, b models.Booking) (bool, error) {
	if b.Status != models.BookingCompleted || b.CheckedOutAt == nil {
		return false, nil
	}
	var n int64
	if err := tx.Model(&models.Review{}).Where("booking_id = ?", b.ID).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}

// Create stores a pending review. It is not counted in the rating until approved.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (models.Review, error) {
	if err := validateStruct(in); err != nil {
		return models.Review{}, err
	}
	var review models.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.Preload("Room").First(&b, in.BookingID).Error; err != nil {
			return notFoundOr(err, "booking", in.BookingID)
		}
		ok, err := canReviewTx(tx, b)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: booking %s cannot be reviewed", ErrInvalidTransition, b.BookingNumber)
		}
		review = models.Review{
			BookingID:           b.ID,
			UserID:              b.UserID,
			AccommodationID:     b.Room.AccommodationID,
			Rating:              in.Rating,
			Comment:             strings.TrimSpace(in.Comment),
			CleanlinessRating:   in.CleanlinessRating,
			LocationRating:      in.LocationRating,
			ValueRating:         in.ValueRating,
			CommunicationRating: in.CommunicationRating,
			Status:              models.ReviewPending,
		}
		return tx.Create(&review).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return models.Review{}, fmt.Errorf("%w: booking %d already has a review", ErrConflict, in.BookingID)
		}
		return models.Review{}, err
	}
	return review, nil
}

func (s *ReviewService) Approve(ctx context.Context, id uint) (models.Review, error) {
	return s.setStatus(ctx, id, models.ReviewApproved)
}

func (s *ReviewService) Reject(ctx context.Context, id uint) (models.Review, error) {
	return s.setStatus(ctx, id, models.ReviewRejected)
}

func (s *ReviewService) setStatus(ctx context.Context, id uint, status string) (models.Review, error) {
	var review models.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&review, id).Error; err != nil {
			return notFoundOr(err, "review", id)
		}
		if err := tx.Model(&review).Update("status", status).Error; err != nil {
			return err
		}
		review.Status = status
		return refreshRatingTx(tx, review.AccommodationID)
	})
	if err != nil {
		return models.Review{}, err
	}
	s.log.WithFields(logrus.Fields{"review_id": id, "status": status}).Info("review moderated")
	return review, nil
}

// Respond stores the host's public answer to a review.
func (s *ReviewService) Respond(ctx context.Context, id uint, response string) (models.Review, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return models.Review{}, validationf("response is required")
	}
	var review models.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, id).Error; err != nil {
			return notFoundOr(err, "review", id)
		}
		now := s.now()
		if err := tx.Model(&review).Updates(map[string]interface{}{
			"host_response":     response,
			"host_responded_at": now,
		}).Error; err != nil {
			return err
		}
		review.HostResponse = response
		review.HostRespondedAt = &now
		return nil
	})
	return review, err
}

// refreshRatingTx recomputes rating_average and total_reviews from approved reviews.
func refreshRatingTx(tx *gorm.DB, accommodationID uint) error {
	var stats struct {
		Avg   *float64
		Total int64
	}
	if err := tx.Model(&models.Review{}).
		Select("AVG(rating) AS avg, COUNT(*) AS total").
		Where("accommodation_id = ? AND status = ?", accommodationID, models.ReviewApproved).
		Scan(&stats).Error; err != nil {
		return err
	}
	avg := decimal.Zero
	if stats.Avg != nil {
		avg = decimal.NewFromFloat(*stats.Avg).Round(1)
	}
	return tx.Model(&models.Accommodation{}).
		Where("id = ?", accommodationID).
		Updates(map[string]interface{}{"rating_average": avg, "total_reviews": stats.Total}).Error
}
