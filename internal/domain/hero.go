package domain

import (
	"strings"
	"time"
)

const (
	HeroTagMax         = 50
	HeroHeadlineMax    = 100
	HeroSubheadlineMax = 200

	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Hero is a homepage banner slide with an image or video background
type Hero struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" bson:"_id" json:"id,string"`
	Tag         string    `gorm:"size:50" bson:"tag" json:"tag"`
	Headline    string    `gorm:"size:100" bson:"headline" json:"headline"`
	Subheadline string    `gorm:"size:200" bson:"subheadline" json:"subheadline"`
	MediaUrl    string    `gorm:"size:1024" bson:"mediaUrl" json:"mediaUrl"`
	MediaType   string    `gorm:"size:16" bson:"mediaType" json:"mediaType"`
	Order       int       `gorm:"column:sort_order;index" bson:"order" json:"order"`
	IsActive    bool      `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TableName Specify table name
func (Hero) TableName() string {
	return "catalog_hero"
}

func (h *Hero) Normalize() {
	h.Tag = strings.TrimSpace(h.Tag)
	h.Headline = strings.TrimSpace(h.Headline)
	h.Subheadline = strings.TrimSpace(h.Subheadline)
	if h.MediaType == "" {
		h.MediaType = MediaTypeImage
	}
}

func (h *Hero) Validate() error {
	if err := checkText("tag", h.Tag, false, HeroTagMax, "", "Tag"); err != nil {
		return err
	}
	if err := checkText("headline", h.Headline, true, HeroHeadlineMax, "Please provide a headline", "Headline"); err != nil {
		return err
	}
	if err := checkText("subheadline", h.Subheadline, false, HeroSubheadlineMax, "", "Subheadline"); err != nil {
		return err
	}
	if err := checkText("mediaUrl", h.MediaUrl, true, 0, "Please provide a media file (image or video)", ""); err != nil {
		return err
	}
	if h.MediaType != MediaTypeImage && h.MediaType != MediaTypeVideo {
		return invalid("mediaType", "Media type must be 'image' or 'video'")
	}
	return nil
}

func (h *Hero) MediaURLs() []string {
	if h.MediaUrl == "" {
		return nil
	}
	return []string{h.MediaUrl}
}

// MediaTypeFor maps a MIME type to the hero media type.
func MediaTypeFor(contentType string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return MediaTypeVideo
	}
	return MediaTypeImage
}
