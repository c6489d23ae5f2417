package types

import (
	"time"

	"github.com/google/uuid"
)

// Product is one normalized candidate in a user's deck. Rows are scoped to a
// (user, generation) pair and are never deleted mid-session; a new preference
// submission supersedes them with a higher generation.
type Product struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_deck_pos" json:"user_id"`
	User            *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Generation      int       `gorm:"not null;uniqueIndex:idx_product_deck_pos;column:generation" json:"generation"`
	Position        int       `gorm:"not null;uniqueIndex:idx_product_deck_pos;column:position" json:"position"`
	SourceProductID string    `gorm:"column:source_product_id" json:"source_product_id"`
	Title           string    `gorm:"not null;column:title" json:"title"`
	Price           string    `gorm:"column:price" json:"price"`
	ExtractedPrice  *float64  `gorm:"column:extracted_price" json:"extracted_price,omitempty"`
	OldPrice        string    `gorm:"column:old_price" json:"old_price,omitempty"`
	ProductLink     string    `gorm:"type:text;column:product_link" json:"product_link"`
	Thumbnail       string    `gorm:"type:text;column:thumbnail" json:"thumbnail"`
	SourceImageKey  string    `gorm:"column:source_image_key" json:"source_image_key,omitempty"`
	Source          string    `gorm:"column:source" json:"source"`
	SourceIcon      string    `gorm:"type:text;column:source_icon" json:"source_icon,omitempty"`
	Rating          *float64  `gorm:"column:rating" json:"rating,omitempty"`
	Reviews         *int      `gorm:"column:reviews" json:"reviews,omitempty"`
	Snippet         string    `gorm:"type:text;column:snippet" json:"snippet,omitempty"`
	Delivery        string    `gorm:"column:delivery" json:"delivery,omitempty"`
	Tag             string    `gorm:"column:tag" json:"tag,omitempty"`
	ProductType     string    `gorm:"index;column:product_type" json:"product_type"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

func (Product) TableName() string { return "product" }
