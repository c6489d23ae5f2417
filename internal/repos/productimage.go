package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/types"
)

type ProductImageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, images []*types.ProductImage) ([]*types.ProductImage, error)
	GetByProductIDs(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) ([]*types.ProductImage, error)
	GetByProductAndAngle(ctx context.Context, tx *gorm.DB, productID uuid.UUID, angle string) (*types.ProductImage, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
}

type productImageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductImageRepo(db *gorm.DB, baseLog *logger.Logger) ProductImageRepo {
	return &productImageRepo{db: db, log: baseLog.With("repo", "ProductImageRepo")}
}

func (r *productImageRepo) Create(ctx context.Context, tx *gorm.DB, images []*types.ProductImage) ([]*types.ProductImage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(images) == 0 {
		return []*types.ProductImage{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (r *productImageRepo) GetByProductIDs(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) ([]*types.ProductImage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProductImage
	if len(productIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productImageRepo) GetByProductAndAngle(ctx context.Context, tx *gorm.DB, productID uuid.UUID, angle string) (*types.ProductImage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ProductImage
	err := transaction.WithContext(ctx).
		Where("product_id = ? AND angle = ?", productID, angle).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *productImageRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil || len(fields) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.ProductImage{}).
		Where("id = ?", id).
		Updates(fields).Error
}
