package domain

import (
	"strings"
	"time"
)

const (
	ProductNameMax        = 100
	ProductDescriptionMax = 1000
)

// Product is a catalog item. Category is resolved on read and never stored
// with the product document.
type Product struct {
	ID           int64      `gorm:"primaryKey;autoIncrement:false" bson:"_id" json:"id,string"`
	Name         string     `gorm:"size:100;index" bson:"name" json:"name"`
	CategoryID   int64      `gorm:"index" bson:"category" json:"categoryId,string"`
	Category     *Category  `gorm:"foreignKey:CategoryID;references:ID" bson:"-" json:"category"`
	Description  string     `gorm:"size:1000" bson:"description" json:"description"`
	MainImage    string     `gorm:"size:1024" bson:"mainImage" json:"mainImage"`
	Images       []string   `gorm:"serializer:json" bson:"images" json:"images"`
	HasTable     bool       `bson:"hasTable" json:"hasTable"`
	TableColumns []string   `gorm:"serializer:json" bson:"tableColumns" json:"tableColumns"`
	TableRows    [][]string `gorm:"serializer:json" bson:"tableRows" json:"tableRows"`
	IsActive     bool       `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time  `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "catalog_product"
}

// Normalize trims stored fields and replaces nil slices so they serialize as
// empty arrays.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.TableColumns == nil {
		p.TableColumns = []string{}
	}
	if p.TableRows == nil {
		p.TableRows = [][]string{}
	}
}

func (p *Product) Validate() error {
	if err := checkText("name", p.Name, true, ProductNameMax, "Please provide a product name", "Name"); err != nil {
		return err
	}
	if p.CategoryID <= 0 {
		return invalid("category", "Please select a category")
	}
	if err := checkText("description", p.Description, true, ProductDescriptionMax, "Please provide a description", "Description"); err != nil {
		return err
	}
	return checkText("mainImage", p.MainImage, true, 0, "Please provide a main image", "")
}

// MediaURLs returns the main image followed by the gallery.
func (p *Product) MediaURLs() []string {
	urls := make([]string, 0, len(p.Images)+1)
	if p.MainImage != "" {
		urls = append(urls, p.MainImage)
	}
	for _, img := range p.Images {
		if img != "" {
			urls = append(urls, img)
		}
	}
	return urls
}

// RemoveImages drops the given URLs from the gallery and returns the ones
// that were actually present.
func (p *Product) RemoveImages(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		drop[u] = struct{}{}
	}
	kept := make([]string, 0, len(p.Images))
	var removed []string
	for _, img := range p.Images {
		if _, ok := drop[img]; ok {
			removed = append(removed, img)
			continue
		}
		kept = append(kept, img)
	}
	p.Images = kept
	return removed
}
