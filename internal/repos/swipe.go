package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/types"
)

type SwipeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, swipes []*types.Swipe) ([]*types.Swipe, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Swipe, error)
	DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	CountByLiked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, liked bool) (int64, error)
}

type swipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSwipeRepo(db *gorm.DB, baseLog *logger.Logger) SwipeRepo {
	return &swipeRepo{db: db, log: baseLog.With("repo", "SwipeRepo")}
}

func (r *swipeRepo) Create(ctx context.Context, tx *gorm.DB, swipes []*types.Swipe) ([]*types.Swipe, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(swipes) == 0 {
		return []*types.Swipe{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&swipes).Error; err != nil {
		return nil, err
	}
	return swipes, nil
}

// GetByUserID returns the decision log in deck order.
func (r *swipeRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Swipe, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Swipe
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *swipeRepo) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.Swipe{}).Error
}

func (r *swipeRepo) CountByLiked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, liked bool) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Swipe{}).
		Where("user_id = ? AND liked = ?", userID, liked).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
