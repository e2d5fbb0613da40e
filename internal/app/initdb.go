package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/repository"
	"github.com/nijsci/labcatalog/pkg/common"
)

// SeedTarget is the product count below which seeding adds fixtures.
const SeedTarget = 15

type seedProduct struct {
	Name     string
	Category string
}

var seedProducts = []seedProduct{
	{"Digital Balance Pro", "Lab Equipment"},
	{"Magnetic Stirrer X1", "Lab Equipment"},
	{"Glass Beaker 500ml", "Glassware"},
	{"Test Tube Set", "Glassware"},
	{"PH Meter Digital", "Tester"},
	{"Safety Goggles", "Safety Equipment"},
	{"Lab Coat White", "Safety Equipment"},
	{"Microscope 1000x", "Lab Equipment"},
	{"Centrifuge machine", "Lab Equipment"},
	{"Pipette Set", "Lab Equipment"},
	{"Bunsen Burner", "Lab Equipment"},
	{"Filter Paper Pack", "Filtration"},
	{"Funnel Glass", "Glassware"},
	{"Thermometer Digital", "Tester"},
	{"Graduated Cylinder", "Glassware"},
	{"Petri Dish Set", "Glassware"},
	{"Crucible Porcelain", "Lab Equipment"},
	{"Mortar and Pestle", "Lab Equipment"},
	{"Wash Bottle", "Lab Equipment"},
	{"Spatula Steel", "Lab Equipment"},
}

// SeedResult reports what SeedCatalog did.
type SeedResult struct {
	Message string `json:"message"`
	Added   int    `json:"added"`
	Count   int64  `json:"count"`
}

func placeholder(text string) string {
	return "https://placehold.co/600x400/png?text=" + strings.ReplaceAll(text, " ", "+")
}

func (a *Application) SeedCatalog(ctx context.Context) (*SeedResult, error) {
	return seedCatalog(ctx, a.repos)
}

func seedCatalog(ctx context.Context, repos *repository.Repositories) (*SeedResult, error) {
	count, err := repos.Products.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count >= SeedTarget {
		return &SeedResult{Message: fmt.Sprintf("Already have %d products", count), Count: count}, nil
	}

	categories := make(map[string]int64)
	for _, sp := range seedProducts {
		if _, ok := categories[sp.Category]; ok {
			continue
		}
		cat, err := repos.Categories.GetByName(ctx, sp.Category)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			cat = &domain.Category{
				ID:       common.UUIDint64(),
				Name:     sp.Category,
				Caption:  sp.Category + " category",
				Image:    placeholder(sp.Category),
				IsActive: true,
			}
			if err := repos.Categories.Create(ctx, cat); err != nil {
				return nil, err
			}
			zap.L().Info("seeded category", zap.String("name", cat.Name))
		case err != nil:
			return nil, err
		}
		categories[sp.Category] = cat.ID
	}

	n := SeedTarget - int(count) + 5
	if n > len(seedProducts) {
		n = len(seedProducts)
	}
	for _, sp := range seedProducts[:n] {
		p := &domain.Product{
			ID:          common.UUIDint64(),
			Name:        sp.Name,
			CategoryID:  categories[sp.Category],
			Description: fmt.Sprintf("High quality %s for professional laboratory use.", sp.Name),
			MainImage:   placeholder(sp.Name),
			Images:      []string{placeholder(sp.Name) + "_1", placeholder(sp.Name) + "_2"},
			IsActive:    true,
		}
		if err := repos.Products.Create(ctx, p); err != nil {
			return nil, err
		}
	}
	zap.L().Info("seeded catalog", zap.Int("products", n))
	return &SeedResult{
		Message: fmt.Sprintf("Added %d products", n),
		Added:   n,
		Count:   count + int64(n),
	}, nil
}
