package domain

import (
	"strings"
	"time"
)

const (
	CategoryNameMax    = 60
	CategoryCaptionMax = 200
)

// Category groups products on the storefront
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" bson:"_id" json:"id,string"`
	Name      string    `gorm:"size:60;index" bson:"name" json:"name"`
	Image     string    `gorm:"size:1024" bson:"image" json:"image"`
	Caption   string    `gorm:"size:200" bson:"caption" json:"caption"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TableName Specify table name
func (Category) TableName() string {
	return "catalog_category"
}

// Normalize trims the fields stored trimmed.
func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
}

func (c *Category) Validate() error {
	if err := checkText("name", c.Name, true, CategoryNameMax, "Please provide a category name", "Name"); err != nil {
		return err
	}
	if err := checkText("image", c.Image, true, 0, "Please provide an image URL or path", ""); err != nil {
		return err
	}
	return checkText("caption", c.Caption, true, CategoryCaptionMax, "Please provide a caption", "Caption")
}

// MediaURLs returns every asset the category owns.
func (c *Category) MediaURLs() []string {
	if c.Image == "" {
		return nil
	}
	return []string{c.Image}
}
