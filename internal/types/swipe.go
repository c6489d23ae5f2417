package types

import (
	"time"

	"github.com/google/uuid"
)

// Swipe is one recorded decision within a session. Position is the deck index
// the decision was taken at; rows are cleared on session reset.
type Swipe struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Liked     bool      `gorm:"not null;default:false;column:liked" json:"liked"`
	Position  int       `gorm:"not null;column:position" json:"position"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Swipe) TableName() string { return "swipe" }
