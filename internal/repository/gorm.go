package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nijsci/labcatalog/internal/domain"
)

// NewGormRepositories builds every repository on a GORM connection.
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Categories: &GormCategoryRepository{db: db},
		Products:   &GormProductRepository{db: db},
		Heroes:     &GormHeroRepository{db: db},
		Reviews:    &GormReviewRepository{db: db},
		Users:      &GormUserRepository{db: db},
	}
}

func gormErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, op)
}

// likeClause builds a case-insensitive substring match over the columns.
func likeClause(db *gorm.DB, q string, columns ...string) (string, []interface{}) {
	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	if strings.EqualFold(db.Name(), "postgres") {
		for _, col := range columns {
			conds = append(conds, col+" ILIKE ?")
			args = append(args, "%"+q+"%")
		}
	} else {
		for _, col := range columns {
			conds = append(conds, "LOWER("+col+") LIKE ?")
			args = append(args, "%"+strings.ToLower(q)+"%")
		}
	}
	return strings.Join(conds, " OR "), args
}

func deleteResult(res *gorm.DB, op string) error {
	if res.Error != nil {
		return errors.Wrap(res.Error, op)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormCategoryRepository is the GORM implementation of CategoryRepository
type GormCategoryRepository struct {
	db *gorm.DB
}

func (r *GormCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	var rows []*domain.Category
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, gormErr(err, "list categories")
}

func (r *GormCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, gormErr(err, "get category")
	}
	return &c, nil
}

func (r *GormCategoryRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Category, error) {
	var rows []*domain.Category
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, gormErr(err, "get categories")
}

func (r *GormCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, gormErr(err, "get category by name")
	}
	return &c, nil
}

func (r *GormCategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	stamp(&c.CreatedAt, &c.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Create(c).Error, "create category")
}

func (r *GormCategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	stamp(&c.CreatedAt, &c.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Save(c).Error, "update category")
}

func (r *GormCategoryRepository) Delete(ctx context.Context, id int64) error {
	return deleteResult(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Category{}), "delete category")
}

func (r *GormCategoryRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Category{})
	return res.RowsAffected, gormErr(res.Error, "delete categories")
}

func (r *GormCategoryRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Category{}).Count(&total).Error
	return total, gormErr(err, "count categories")
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Product{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		cond, args := likeClause(r.db, q, "name", "description")
		query = query.Where(cond, args...)
	}
	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, gormErr(err, "count products")
	}

	var rows []*domain.Product
	query = query.Preload("Category").Order("created_at DESC, id DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, gormErr(err, "list products")
	}
	return rows, total, nil
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, gormErr(err, "get product")
	}
	return &p, nil
}

func (r *GormProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	var rows []*domain.Product
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&rows).Error
	return rows, gormErr(err, "get products")
}

func (r *GormProductRepository) Create(ctx context.Context, p *domain.Product) error {
	p.Normalize()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error, "create product")
}

func (r *GormProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.Normalize()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error, "update product")
}

func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	return deleteResult(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{}), "delete product")
}

func (r *GormProductRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Product{})
	return res.RowsAffected, gormErr(res.Error, "delete products")
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&total).Error
	return total, gormErr(err, "count products")
}

// GormHeroRepository is the GORM implementation of HeroRepository
type GormHeroRepository struct {
	db *gorm.DB
}

func (r *GormHeroRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Hero, error) {
	var rows []*domain.Hero
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sort_order ASC, created_at DESC, id DESC").Find(&rows).Error
	return rows, gormErr(err, "list hero slides")
}

func (r *GormHeroRepository) GetByID(ctx context.Context, id int64) (*domain.Hero, error) {
	var h domain.Hero
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&h).Error; err != nil {
		return nil, gormErr(err, "get hero slide")
	}
	return &h, nil
}

func (r *GormHeroRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Hero, error) {
	var rows []*domain.Hero
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, gormErr(err, "get hero slides")
}

func (r *GormHeroRepository) Create(ctx context.Context, h *domain.Hero) error {
	stamp(&h.CreatedAt, &h.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Create(h).Error, "create hero slide")
}

func (r *GormHeroRepository) Update(ctx context.Context, h *domain.Hero) error {
	stamp(&h.CreatedAt, &h.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Save(h).Error, "update hero slide")
}

func (r *GormHeroRepository) Delete(ctx context.Context, id int64) error {
	return deleteResult(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Hero{}), "delete hero slide")
}

func (r *GormHeroRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Hero{})
	return res.RowsAffected, gormErr(res.Error, "delete hero slides")
}

func (r *GormHeroRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Hero{}).Count(&total).Error
	return total, gormErr(err, "count hero slides")
}

// GormReviewRepository is the GORM implementation of ReviewRepository
type GormReviewRepository struct {
	db *gorm.DB
}

func (r *GormReviewRepository) List(ctx context.Context, filter ReviewFilter) ([]*domain.Review, error) {
	query := r.db.WithContext(ctx)
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if filter.Limit >= 0 {
		query = query.Limit(normalizeLimit(filter.Limit))
	}
	var rows []*domain.Review
	err := query.Order("created_at DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, gormErr(err, "list reviews")
	}
	return rows, r.attachProductNames(ctx, rows)
}

func (r *GormReviewRepository) attachProductNames(ctx context.Context, rows []*domain.Review) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(rows))
	for _, rv := range rows {
		ids = append(ids, rv.ProductID)
	}
	var products []domain.Product
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return gormErr(err, "resolve review products")
	}
	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	for _, rv := range rows {
		rv.ProductName = names[rv.ProductID]
	}
	return nil
}

func (r *GormReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	var rv domain.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rv).Error; err != nil {
		return nil, gormErr(err, "get review")
	}
	if err := r.attachProductNames(ctx, []*domain.Review{&rv}); err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *GormReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	stamp(&rv.CreatedAt, &rv.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Create(rv).Error, "create review")
}

func (r *GormReviewRepository) Delete(ctx context.Context, id int64) error {
	return deleteResult(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Review{}), "delete review")
}

func (r *GormReviewRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Review{}).Count(&total).Error
	return total, gormErr(err, "count reviews")
}

func (r *GormReviewRepository) Ratings(ctx context.Context) ([]int, error) {
	var ratings []int
	err := r.db.WithContext(ctx).Model(&domain.Review{}).Pluck("rating", &ratings).Error
	return ratings, gormErr(err, "load ratings")
}

// GormUserRepository is the GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

func (r *GormUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var rows []*domain.User
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, gormErr(err, "list users")
}

func (r *GormUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, gormErr(err, "get user")
	}
	return &u, nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, gormErr(err, "get user by email")
	}
	return &u, nil
}

func (r *GormUserRepository) Create(ctx context.Context, u *domain.User) error {
	stamp(&u.CreatedAt, &u.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Create(u).Error, "create user")
}

func (r *GormUserRepository) Update(ctx context.Context, u *domain.User) error {
	stamp(&u.CreatedAt, &u.UpdatedAt)
	return gormErr(r.db.WithContext(ctx).Save(u).Error, "update user")
}

func (r *GormUserRepository) Delete(ctx context.Context, id int64) error {
	return deleteResult(r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{}), "delete user")
}

func (r *GormUserRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.User{})
	return res.RowsAffected, gormErr(res.Error, "delete users")
}

func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, gormErr(err, "count users")
}
