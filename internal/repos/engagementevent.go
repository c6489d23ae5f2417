package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/types"
)

type EngagementEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.EngagementEvent) ([]*types.EngagementEvent, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.EngagementEvent, error)
	CountByType(ctx context.Context, tx *gorm.DB, eventType string) (int64, error)
}

type engagementEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEngagementEventRepo(db *gorm.DB, baseLog *logger.Logger) EngagementEventRepo {
	return &engagementEventRepo{db: db, log: baseLog.With("repo", "EngagementEventRepo")}
}

func (r *engagementEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.EngagementEvent) ([]*types.EngagementEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(events) == 0 {
		return []*types.EngagementEvent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *engagementEventRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.EngagementEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.EngagementEvent
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *engagementEventRepo) CountByType(ctx context.Context, tx *gorm.DB, eventType string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.EngagementEvent{}).
		Where("type = ?", eventType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
