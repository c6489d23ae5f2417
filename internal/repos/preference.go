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

type PreferenceRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, pref *types.Preference) (*types.Preference, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Preference, error)
}

type preferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) PreferenceRepo {
	return &preferenceRepo{db: db, log: baseLog.With("repo", "PreferenceRepo")}
}

func (r *preferenceRepo) Upsert(ctx context.Context, tx *gorm.DB, pref *types.Preference) (*types.Preference, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if pref == nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"gender", "size", "styles", "clothing_types", "budget", "colors", "notes", "updated_at",
			}),
		}).
		Create(pref).Error; err != nil {
		return nil, err
	}
	return pref, nil
}

func (r *preferenceRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Preference, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Preference
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
