package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Preference struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Gender        string         `gorm:"column:gender" json:"gender"`
	Size          string         `gorm:"column:size" json:"size"`
	Styles        datatypes.JSON `gorm:"type:jsonb;column:styles" json:"styles"`
	ClothingTypes datatypes.JSON `gorm:"type:jsonb;column:clothing_types" json:"clothing_types"`
	Budget        string         `gorm:"column:budget" json:"budget"`
	Colors        string         `gorm:"column:colors" json:"colors"`
	Notes         string         `gorm:"type:text;column:notes" json:"notes"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (Preference) TableName() string { return "preference" }
