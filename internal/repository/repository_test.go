package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/pkg/common"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return NewGormRepositories(db)
}

func seedCategory(t *testing.T, repos *Repositories, name string) *domain.Category {
	t.Helper()
	c := &domain.Category{ID: common.UUIDint64(), Name: name, Image: "/uploads/" + name + ".png", Caption: name + " caption", IsActive: true}
	require.NoError(t, repos.Categories.Create(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, repos *Repositories, name string, categoryID int64) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:          common.UUIDint64(),
		Name:        name,
		CategoryID:  categoryID,
		Description: "High quality " + name,
		MainImage:   "/uploads/" + name + ".png",
		IsActive:    true,
	}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return p
}

func TestGormCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	first := seedCategory(t, repos, "Glassware")
	second := seedCategory(t, repos, "Plasticware")
	second.IsActive = false
	require.NoError(t, repos.Categories.Update(ctx, second))

	all, err := repos.Categories.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	active, err := repos.Categories.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	got, err := repos.Categories.GetByName(ctx, "Glassware")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	require.NoError(t, repos.Categories.Delete(ctx, first.ID))
	_, err = repos.Categories.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repos.Categories.Delete(ctx, first.ID), ErrNotFound)

	n, err := repos.Categories.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGormProductListJoinsCategory(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	lab := seedCategory(t, repos, "Lab Equipment")
	glass := seedCategory(t, repos, "Glassware")

	seedProduct(t, repos, "Vortex Mixer", lab.ID)
	flask := seedProduct(t, repos, "Volumetric Flask", glass.ID)
	orphan := seedProduct(t, repos, "Water Bath", 999)

	rows, total, err := repos.Products.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
	assert.Equal(t, orphan.ID, rows[0].ID)
	assert.Nil(t, rows[0].Category, "dangling reference resolves to nil")
	require.NotNil(t, rows[1].Category)
	assert.Equal(t, "Glassware", rows[1].Category.Name)

	rows, total, err = repos.Products.List(ctx, ProductFilter{Query: "FLASK"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, flask.ID, rows[0].ID)

	rows, _, err = repos.Products.List(ctx, ProductFilter{Query: "high quality vortex"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, total, err = repos.Products.List(ctx, ProductFilter{CategoryID: lab.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Vortex Mixer", rows[0].Name)

	rows, total, err = repos.Products.List(ctx, ProductFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 1)
}

func TestGormProductUpdateKeepsSlices(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	cat := seedCategory(t, repos, "Tester")
	p := seedProduct(t, repos, "PH Meter", cat.ID)

	got, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Images)

	got.Images = []string{"a.png", "b.png"}
	got.HasTable = true
	got.TableColumns = []string{"Model", "Range"}
	got.TableRows = [][]string{{"PH-1", "0-14"}}
	require.NoError(t, repos.Products.Update(ctx, got))

	again, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, again.Images)
	assert.Equal(t, [][]string{{"PH-1", "0-14"}}, again.TableRows)
	require.NotNil(t, again.Category)
	assert.Equal(t, cat.ID, again.Category.ID)

	n, err := repos.Categories.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "saving a product never writes its category")
}

func TestGormHeroOrdering(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	mk := func(headline string, order int, active bool) *domain.Hero {
		h := &domain.Hero{ID: common.UUIDint64(), Headline: headline, MediaUrl: "/m.png", MediaType: domain.MediaTypeImage, Order: order, IsActive: active}
		require.NoError(t, repos.Heroes.Create(ctx, h))
		return h
	}
	b := mk("second", 2, true)
	a := mk("first", 1, true)
	c := mk("also first, newer", 1, false)

	rows, err := repos.Heroes.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, []int64{rows[0].ID, rows[1].ID, rows[2].ID})

	rows, err = repos.Heroes.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	found, err := repos.Heroes.GetByIDs(ctx, []int64{a.ID, 12345})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	n, err := repos.Heroes.DeleteMany(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestGormReviewsAttachProductName(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	cat := seedCategory(t, repos, "Glassware")
	p := seedProduct(t, repos, "Test Tube Set", cat.ID)

	for i, rating := range []int{5, 4, 3} {
		rv := &domain.Review{ID: common.UUIDint64(), ProductID: p.ID, Name: "Buyer", Rating: rating, Content: "ok"}
		if i == 0 {
			rv.CreatedAt = time.Now().Add(-48 * time.Hour)
		}
		require.NoError(t, repos.Reviews.Create(ctx, rv))
	}

	rows, err := repos.Reviews.List(ctx, ReviewFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Test Tube Set", rows[0].ProductName)
	assert.Equal(t, 3, rows[0].Rating, "newest first")

	rows, err = repos.Reviews.List(ctx, ReviewFilter{Since: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repos.Reviews.List(ctx, ReviewFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = repos.Reviews.List(ctx, ReviewFilter{Limit: -1})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	ratings, err := repos.Reviews.Ratings(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{5, 4, 3}, ratings)
}

func TestGormUsers(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	u := &domain.User{ID: common.UUIDint64(), Name: "Ops", Email: "ops@example.com", Password: "hash", IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, u))

	got, err := repos.Users.GetByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repos.Users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := &domain.User{ID: common.UUIDint64(), Name: "Dup", Email: "ops@example.com"}
	assert.Error(t, repos.Users.Create(ctx, dup))
}

func TestMediaURLs(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	cat := seedCategory(t, repos, "Glassware")
	p := seedProduct(t, repos, "Beaker", cat.ID)
	p.Images = []string{"/uploads/g1.png"}
	require.NoError(t, repos.Products.Update(ctx, p))
	require.NoError(t, repos.Heroes.Create(ctx, &domain.Hero{ID: common.UUIDint64(), Headline: "h", MediaUrl: "/uploads/h.mp4", MediaType: "video"}))

	refs, err := repos.MediaURLs(ctx)
	require.NoError(t, err)
	for _, u := range []string{cat.Image, p.MainImage, "/uploads/g1.png", "/uploads/h.mp4"} {
		assert.Contains(t, refs, u)
	}
}

func TestMongoFilters(t *testing.T) {
	f := productFilter(ProductFilter{Query: " a.b ", CategoryID: 9, ActiveOnly: true})
	assert.Equal(t, int64(9), f["category"])
	assert.Equal(t, true, f["isActive"])
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	re := or[0].(bson.M)["name"].(bson.M)["$regex"].(primitive.Regex)
	assert.Equal(t, `a\.b`, re.Pattern)
	assert.Equal(t, "i", re.Options)

	assert.Empty(t, productFilter(ProductFilter{}))

	since := time.Now()
	rf := reviewFilter(ReviewFilter{ProductID: 3, Since: since})
	assert.Equal(t, int64(3), rf["product"])
	assert.Equal(t, bson.M{"$gte": since}, rf["createdAt"])
}
