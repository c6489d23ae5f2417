package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProductImagePending = "pending"
	ProductImageReady   = "ready"
	ProductImageFailed  = "failed"
)

// ProductImage is one generated composite view of a product. At most one row
// per (product, angle); the enrichment worker is the only writer.
type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_image_angle" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Angle     string    `gorm:"not null;uniqueIndex:idx_product_image_angle;column:angle" json:"angle"`
	Status    string    `gorm:"not null;default:pending;column:status" json:"status"`
	BucketKey string    `gorm:"column:bucket_key" json:"bucket_key,omitempty"`
	Error     string    `gorm:"type:text;column:error" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProductImage) TableName() string { return "product_image" }
