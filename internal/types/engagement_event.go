package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	EngagementSwipe = "swipe"
	EngagementClick = "click"
)

// EngagementEvent is the append-only analytics stream. It is written alongside
// session state but never read back by the swipe flow; a failed append must
// not roll back the decision that produced it.
type EngagementEvent struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User      *User      `gorm:"constraint:OnDelete:SET NULL;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Type      string     `gorm:"not null;index;column:type" json:"type"`
	Liked     *bool      `gorm:"column:liked" json:"liked,omitempty"`
	Referrer  string     `gorm:"column:referrer" json:"referrer,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
}

func (EngagementEvent) TableName() string { return "engagement_event" }
