package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/nijsci/labcatalog/internal/domain"
)

// ErrNotFound is returned when a lookup by id (or email) matches nothing.
var ErrNotFound = errors.New("record not found")

// ProductFilter narrows a product listing. Zero values disable a filter;
// PageSize 0 returns every match.
type ProductFilter struct {
	Query      string
	CategoryID int64
	ActiveOnly bool
	Page       int
	PageSize   int
}

// ReviewFilter narrows a review listing. Limit 0 means the default page of
// 20, capped at 100; a negative Limit returns every match.
type ReviewFilter struct {
	ProductID int64
	Since     time.Time
	Limit     int
}

// CategoryRepository handles persistence of categories
type CategoryRepository interface {
	// List returns categories newest first
	List(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	// GetByIDs returns the categories found; missing ids are skipped
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ProductRepository handles persistence of products. Reads embed the
// referenced category.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// HeroRepository handles persistence of hero slides
type HeroRepository interface {
	// List returns slides by display order, newest first within an order
	List(ctx context.Context, activeOnly bool) ([]*domain.Hero, error)
	GetByID(ctx context.Context, id int64) (*domain.Hero, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Hero, error)
	Create(ctx context.Context, h *domain.Hero) error
	Update(ctx context.Context, h *domain.Hero) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ReviewRepository handles persistence of reviews. Reads embed the product
// name.
type ReviewRepository interface {
	List(ctx context.Context, filter ReviewFilter) ([]*domain.Review, error)
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	Create(ctx context.Context, r *domain.Review) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	// Ratings returns every stored rating
	Ratings(ctx context.Context) ([]int, error)
}

// UserRepository handles persistence of admin users
type UserRepository interface {
	// List returns users newest first
	List(ctx context.Context) ([]*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// Repositories bundles one repository per entity, all on the same backend.
type Repositories struct {
	Categories CategoryRepository
	Products   ProductRepository
	Heroes     HeroRepository
	Reviews    ReviewRepository
	Users      UserRepository
}

// MediaURLs collects every asset URL referenced by stored entities.
func (r *Repositories) MediaURLs(ctx context.Context) (map[string]struct{}, error) {
	refs := make(map[string]struct{})
	add := func(owner domain.MediaOwner) {
		for _, u := range owner.MediaURLs() {
			refs[u] = struct{}{}
		}
	}
	cats, err := r.Categories.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		add(c)
	}
	products, _, err := r.Products.List(ctx, ProductFilter{})
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		add(p)
	}
	heroes, err := r.Heroes.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, h := range heroes {
		add(h)
	}
	return refs, nil
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
