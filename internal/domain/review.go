package domain

import (
	"strings"
	"time"
)

const (
	ReviewNameMax    = 100
	ReviewContentMax = 1000
	RatingMin        = 1
	RatingMax        = 5
)

// Review is a customer review attached to a product
type Review struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" bson:"_id" json:"id,string"`
	ProductID   int64     `gorm:"index" bson:"product" json:"productId,string"`
	ProductName string    `gorm:"-" bson:"-" json:"productName,omitempty"`
	Name        string    `gorm:"size:100" bson:"name" json:"name"`
	Rating      int       `bson:"rating" json:"rating"`
	Content     string    `gorm:"size:1000" bson:"content" json:"content"`
	CreatedAt   time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TableName Specify table name
func (Review) TableName() string {
	return "catalog_review"
}

func (r *Review) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *Review) Validate() error {
	if r.ProductID <= 0 {
		return invalid("product", "Please select a product")
	}
	if err := checkText("name", r.Name, true, ReviewNameMax, "Please provide your name", "Name"); err != nil {
		return err
	}
	if r.Rating < RatingMin || r.Rating > RatingMax {
		return invalid("rating", "Rating must be between %d and %d", RatingMin, RatingMax)
	}
	return checkText("content", r.Content, true, ReviewContentMax, "Please provide review content", "Content")
}

// ReviewStats summarises ratings for the dashboard.
type ReviewStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}
