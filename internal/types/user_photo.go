package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AngleFront = "front"
	AngleSide  = "side"
	AngleBack  = "back"
)

// Angles is the fixed view order used everywhere a per-view fan-out happens.
var Angles = []string{AngleFront, AngleSide, AngleBack}

type UserPhoto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_photo_angle" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Angle     string    `gorm:"not null;uniqueIndex:idx_user_photo_angle;column:angle" json:"angle"`
	BucketKey string    `gorm:"not null;column:bucket_key" json:"bucket_key"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserPhoto) TableName() string { return "user_photo" }
