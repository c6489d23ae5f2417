package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/types"
)

type SwipeSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.SwipeSession) (*types.SwipeSession, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.SwipeSession, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	// AdvancePosition moves the cursor forward by one, but only when the stored
	// position still matches the expected one. Returns false when another writer
	// got there first.
	AdvancePosition(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected int) (bool, error)
}

type swipeSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSwipeSessionRepo(db *gorm.DB, baseLog *logger.Logger) SwipeSessionRepo {
	return &swipeSessionRepo{db: db, log: baseLog.With("repo", "SwipeSessionRepo")}
}

func (r *swipeSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.SwipeSession) (*types.SwipeSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if session == nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *swipeSessionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.SwipeSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.SwipeSession
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *swipeSessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || len(fields) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.SwipeSession{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *swipeSessionRepo) AdvancePosition(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.SwipeSession{}).
		Where("id = ? AND position = ?", id, expected).
		Update("position", expected+1)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
