package types

import (
	"time"

	"github.com/google/uuid"
)

// SwipeSession is the per-user cursor over the current deck generation.
// Position points at the next unswiped deck index; completion is derived from
// the deck size and never stored.
type SwipeSession struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Generation int       `gorm:"not null;column:generation" json:"generation"`
	Position   int       `gorm:"not null;default:0;column:position" json:"position"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (SwipeSession) TableName() string { return "swipe_session" }
