package repository

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nijsci/labcatalog/internal/domain"
)

const (
	CollCategories = "categories"
	CollProducts   = "products"
	CollHeroes     = "heroes"
	CollReviews    = "reviews"
	CollUsers      = "users"
)

// NewMongoRepositories builds every repository on a MongoDB database.
func NewMongoRepositories(db *mongo.Database) *Repositories {
	cats := &MongoCategoryRepository{coll: db.Collection(CollCategories)}
	return &Repositories{
		Categories: cats,
		Products:   &MongoProductRepository{coll: db.Collection(CollProducts), categories: cats},
		Heroes:     &MongoHeroRepository{coll: db.Collection(CollHeroes)},
		Reviews:    &MongoReviewRepository{coll: db.Collection(CollReviews), products: db.Collection(CollProducts)},
		Users:      &MongoUserRepository{coll: db.Collection(CollUsers)},
	}
}

// EnsureMongoIndexes creates the indexes the listings and lookups rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		CollCategories: {{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		CollProducts: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		CollHeroes:  {{Keys: bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}}},
		CollReviews: {{Keys: bson.D{{Key: "product", Value: 1}, {Key: "createdAt", Value: -1}}}},
		CollUsers:   {{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "create %s indexes", coll)
		}
	}
	return nil
}

func mongoErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return errors.Wrap(err, op)
}

func byID(id int64) bson.M {
	return bson.M{"_id": id}
}

func byIDs(ids []int64) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}}
}

// containsRegex matches a literal substring case-insensitively.
func containsRegex(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts *options.FindOptions, op string) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	rows := make([]*T, 0)
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return rows, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, op string) (*T, error) {
	var v T
	if err := coll.FindOne(ctx, filter).Decode(&v); err != nil {
		return nil, mongoErr(err, op)
	}
	return &v, nil
}

func replaceOne(ctx context.Context, coll *mongo.Collection, id int64, doc interface{}, op string) error {
	res, err := coll.ReplaceOne(ctx, byID(id), doc)
	if err != nil {
		return errors.Wrap(err, op)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id int64, op string) error {
	res, err := coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return errors.Wrap(err, op)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteMany(ctx context.Context, coll *mongo.Collection, ids []int64, op string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := coll.DeleteMany(ctx, byIDs(ids))
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	return res.DeletedCount, nil
}

func count(ctx context.Context, coll *mongo.Collection, op string) (int64, error) {
	n, err := coll.CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, op)
}

// MongoCategoryRepository is the MongoDB implementation of CategoryRepository
type MongoCategoryRepository struct {
	coll *mongo.Collection
}

func (r *MongoCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	return findAll[domain.Category](ctx, r.coll, filter, options.Find().SetSort(newestFirst), "list categories")
}

func (r *MongoCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return findOne[domain.Category](ctx, r.coll, byID(id), "get category")
}

func (r *MongoCategoryRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Category, error) {
	if len(ids) == 0 {
		return []*domain.Category{}, nil
	}
	return findAll[domain.Category](ctx, r.coll, byIDs(ids), options.Find(), "get categories")
}

func (r *MongoCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	return findOne[domain.Category](ctx, r.coll, bson.M{"name": name}, "get category by name")
}

func (r *MongoCategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	stamp(&c.CreatedAt, &c.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, c)
	return errors.Wrap(err, "create category")
}

func (r *MongoCategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	stamp(&c.CreatedAt, &c.UpdatedAt)
	return replaceOne(ctx, r.coll, c.ID, c, "update category")
}

func (r *MongoCategoryRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.coll, id, "delete category")
}

func (r *MongoCategoryRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	return deleteMany(ctx, r.coll, ids, "delete categories")
}

func (r *MongoCategoryRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll, "count categories")
}

// MongoProductRepository is the MongoDB implementation of ProductRepository.
// Categories are joined on read with a second query.
type MongoProductRepository struct {
	coll       *mongo.Collection
	categories *MongoCategoryRepository
}

// productFilter translates a listing filter into a MongoDB query document.
func productFilter(f ProductFilter) bson.M {
	filter := bson.M{}
	if q := strings.TrimSpace(f.Query); q != "" {
		re := containsRegex(q)
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": re}},
			bson.M{"description": bson.M{"$regex": re}},
		}
	}
	if f.CategoryID > 0 {
		filter["category"] = f.CategoryID
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	return filter
}

func (r *MongoProductRepository) List(ctx context.Context, f ProductFilter) ([]*domain.Product, int64, error) {
	filter := productFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}
	opts := options.Find().SetSort(newestFirst)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * f.PageSize)).SetLimit(int64(f.PageSize))
	}
	rows, err := findAll[domain.Product](ctx, r.coll, filter, opts, "list products")
	if err != nil {
		return nil, 0, err
	}
	return rows, total, r.attachCategories(ctx, rows)
}

func (r *MongoProductRepository) attachCategories(ctx context.Context, rows []*domain.Product) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.CategoryID)
		p.Normalize()
	}
	cats, err := r.categories.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	index := make(map[int64]*domain.Category, len(cats))
	for _, c := range cats {
		index[c.ID] = c
	}
	for _, p := range rows {
		p.Category = index[p.CategoryID]
	}
	return nil
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := findOne[domain.Product](ctx, r.coll, byID(id), "get product")
	if err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, []*domain.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *MongoProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}
	rows, err := findAll[domain.Product](ctx, r.coll, byIDs(ids), options.Find(), "get products")
	if err != nil {
		return nil, err
	}
	return rows, r.attachCategories(ctx, rows)
}

func (r *MongoProductRepository) Create(ctx context.Context, p *domain.Product) error {
	p.Normalize()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, p)
	return errors.Wrap(err, "create product")
}

func (r *MongoProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.Normalize()
	stamp(&p.CreatedAt, &p.UpdatedAt)
	return replaceOne(ctx, r.coll, p.ID, p, "update product")
}

func (r *MongoProductRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.coll, id, "delete product")
}

func (r *MongoProductRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	return deleteMany(ctx, r.coll, ids, "delete products")
}

func (r *MongoProductRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll, "count products")
}

// MongoHeroRepository is the MongoDB implementation of HeroRepository
type MongoHeroRepository struct {
	coll *mongo.Collection
}

var heroOrder = bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *MongoHeroRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Hero, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	return findAll[domain.Hero](ctx, r.coll, filter, options.Find().SetSort(heroOrder), "list hero slides")
}

func (r *MongoHeroRepository) GetByID(ctx context.Context, id int64) (*domain.Hero, error) {
	return findOne[domain.Hero](ctx, r.coll, byID(id), "get hero slide")
}

func (r *MongoHeroRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Hero, error) {
	if len(ids) == 0 {
		return []*domain.Hero{}, nil
	}
	return findAll[domain.Hero](ctx, r.coll, byIDs(ids), options.Find(), "get hero slides")
}

func (r *MongoHeroRepository) Create(ctx context.Context, h *domain.Hero) error {
	stamp(&h.CreatedAt, &h.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, h)
	return errors.Wrap(err, "create hero slide")
}

func (r *MongoHeroRepository) Update(ctx context.Context, h *domain.Hero) error {
	stamp(&h.CreatedAt, &h.UpdatedAt)
	return replaceOne(ctx, r.coll, h.ID, h, "update hero slide")
}

func (r *MongoHeroRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.coll, id, "delete hero slide")
}

func (r *MongoHeroRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	return deleteMany(ctx, r.coll, ids, "delete hero slides")
}

func (r *MongoHeroRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll, "count hero slides")
}

// MongoReviewRepository is the MongoDB implementation of ReviewRepository
type MongoReviewRepository struct {
	coll     *mongo.Collection
	products *mongo.Collection
}

func reviewFilter(f ReviewFilter) bson.M {
	filter := bson.M{}
	if f.ProductID > 0 {
		filter["product"] = f.ProductID
	}
	if !f.Since.IsZero() {
		filter["createdAt"] = bson.M{"$gte": f.Since}
	}
	return filter
}

func (r *MongoReviewRepository) List(ctx context.Context, f ReviewFilter) ([]*domain.Review, error) {
	opts := options.Find().SetSort(newestFirst)
	if f.Limit >= 0 {
		opts.SetLimit(int64(normalizeLimit(f.Limit)))
	}
	rows, err := findAll[domain.Review](ctx, r.coll, reviewFilter(f), opts, "list reviews")
	if err != nil {
		return nil, err
	}
	return rows, r.attachProductNames(ctx, rows)
}

func (r *MongoReviewRepository) attachProductNames(ctx context.Context, rows []*domain.Review) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(rows))
	for _, rv := range rows {
		ids = append(ids, rv.ProductID)
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "name": 1})
	products, err := findAll[domain.Product](ctx, r.products, byIDs(ids), opts, "resolve review products")
	if err != nil {
		return err
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

func (r *MongoReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	rv, err := findOne[domain.Review](ctx, r.coll, byID(id), "get review")
	if err != nil {
		return nil, err
	}
	return rv, r.attachProductNames(ctx, []*domain.Review{rv})
}

func (r *MongoReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	stamp(&rv.CreatedAt, &rv.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, rv)
	return errors.Wrap(err, "create review")
}

func (r *MongoReviewRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.coll, id, "delete review")
}

func (r *MongoReviewRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll, "count reviews")
}

func (r *MongoReviewRepository) Ratings(ctx context.Context) ([]int, error) {
	opts := options.Find().SetProjection(bson.M{"rating": 1})
	rows, err := findAll[domain.Review](ctx, r.coll, bson.M{}, opts, "load ratings")
	if err != nil {
		return nil, err
	}
	ratings := make([]int, 0, len(rows))
	for _, rv := range rows {
		ratings = append(ratings, rv.Rating)
	}
	return ratings, nil
}

// MongoUserRepository is the MongoDB implementation of UserRepository
type MongoUserRepository struct {
	coll *mongo.Collection
}

func (r *MongoUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return findAll[domain.User](ctx, r.coll, bson.M{}, options.Find().SetSort(newestFirst), "list users")
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return findOne[domain.User](ctx, r.coll, byID(id), "get user")
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.coll, bson.M{"email": email}, "get user by email")
}

func (r *MongoUserRepository) Create(ctx context.Context, u *domain.User) error {
	stamp(&u.CreatedAt, &u.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, u)
	return errors.Wrap(err, "create user")
}

func (r *MongoUserRepository) Update(ctx context.Context, u *domain.User) error {
	stamp(&u.CreatedAt, &u.UpdatedAt)
	return replaceOne(ctx, r.coll, u.ID, u, "update user")
}

func (r *MongoUserRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.coll, id, "delete user")
}

func (r *MongoUserRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	return deleteMany(ctx, r.coll, ids, "delete users")
}

func (r *MongoUserRepository) Count(ctx context.Context) (int64, error) {
	return count(ctx, r.coll, "count users")
}
