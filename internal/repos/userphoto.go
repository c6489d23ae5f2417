package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/types"
)

type UserPhotoRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, photos []*types.UserPhoto) ([]*types.UserPhoto, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserPhoto, error)
	GetByUserAndAngle(ctx context.Context, tx *gorm.DB, userID uuid.UUID, angle string) (*types.UserPhoto, error)
}

type userPhotoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserPhotoRepo(db *gorm.DB, baseLog *logger.Logger) UserPhotoRepo {
	return &userPhotoRepo{db: db, log: baseLog.With("repo", "UserPhotoRepo")}
}

func (r *userPhotoRepo) Upsert(ctx context.Context, tx *gorm.DB, photos []*types.UserPhoto) ([]*types.UserPhoto, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(photos) == 0 {
		return []*types.UserPhoto{}, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "angle"}},
			DoUpdates: clause.AssignmentColumns([]string{"bucket_key", "updated_at"}),
		}).
		Create(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *userPhotoRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserPhoto, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserPhoto
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userPhotoRepo) GetByUserAndAngle(ctx context.Context, tx *gorm.DB, userID uuid.UUID, angle string) (*types.UserPhoto, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.UserPhoto
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND angle = ?", userID, angle).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
