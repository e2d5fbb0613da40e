package adminapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/mailer"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

type fakeMailer struct {
	sent []*mailer.Message
	err  error
}

func (m *fakeMailer) Send(msg *mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestLoginBootstrapsFirstAdmin(t *testing.T) {
	env := setupAPI(t)
	ctx := context.Background()
	// bootstrap only applies to an empty user table
	require.NoError(t, env.app.Repos().Users.Delete(ctx, 1))

	rec := env.doJSON(t, "POST", "/api/auth/login", `{"username":"admin","password":"wrong"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec, nil).Error)

	rec = env.doJSON(t, "POST", "/api/auth/login", `{"username":"admin","password":"admin123"}`, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res map[string]string
	decode(t, rec, &res)
	assert.Equal(t, "System Admin", res["name"])
	assert.NotEmpty(t, res["token"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, webserver.SessionCookie, cookies[0].Name)
	assert.Equal(t, 86400, cookies[0].MaxAge)

	n, err := env.app.Repos().Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// second login goes through the stored account
	rec = env.doJSON(t, "POST", "/api/auth/login", `{"username":"Admin","password":"admin123"}`, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	n, err = env.app.Repos().Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	u, err := env.app.Repos().Users.GetByEmail(ctx, "admin")
	require.NoError(t, err)
	assert.False(t, u.LastLogin.IsZero())

	rec = env.do(t, "GET", "/api/auth/me", nil, "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRefusesInactiveUser(t *testing.T) {
	env := setupAPI(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), PasswordCost)
	require.NoError(t, err)
	u := &domain.User{ID: common.UUIDint64(), Name: "Ops", Email: "ops@example.com", Password: string(hash)}
	require.NoError(t, env.app.Repos().Users.Create(context.Background(), u))

	rec := env.doJSON(t, "POST", "/api/auth/login", `{"username":"ops@example.com","password":"secret1"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// bootstrap credentials do nothing once an account exists
	rec = env.doJSON(t, "POST", "/api/auth/login", `{"username":"admin","password":"admin123"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSON(t, "POST", "/api/auth/logout", `{}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

func TestGuardRefusesRevokedAdmin(t *testing.T) {
	env := setupAPI(t)
	ctx := context.Background()
	users := env.app.Repos().Users

	rec := env.do(t, "GET", "/api/auth/me", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	admin, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	admin.IsActive = false
	require.NoError(t, users.Update(ctx, admin))

	rec = env.do(t, "GET", "/api/auth/me", nil, "", true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec, nil).Code)

	admin.IsActive = true
	require.NoError(t, users.Update(ctx, admin))
	rec = env.do(t, "GET", "/api/users", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, users.Delete(ctx, 1))
	rec = env.do(t, "GET", "/api/users", nil, "", true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserManagement(t *testing.T) {
	env := setupAPI(t)
	ctx := context.Background()

	rec := env.doJSON(t, "POST", "/api/users", `{"name":"Ops","email":"Ops@Example.com","password":"secret1"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	var u domain.User
	decode(t, rec, &u)
	assert.Equal(t, "ops@example.com", u.Email)
	assert.True(t, u.IsActive)

	rec = env.doJSON(t, "POST", "/api/users", `{"name":"Dup","email":"ops@example.com","password":"secret1"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User with this email already exists", decode(t, rec, nil).Error)

	rec = env.doJSON(t, "POST", "/api/users", `{"name":"Bad","email":"not-an-email","password":"secret1"}`, true)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec, nil).Code)

	rec = env.doJSON(t, "PUT", fmt.Sprintf("/api/users/%d", u.ID), `{"password":"","isActive":false,"mobile":"555"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored, err := env.app.Repos().Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "555", stored.Mobile)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))

	rec = env.doJSON(t, "PUT", fmt.Sprintf("/api/users/%d", u.ID), `{"password":"changed1"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err = env.app.Repos().Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("changed1")))

	rec = env.doJSON(t, "PUT", "/api/users/99", `{"name":"Ghost"}`, true)
	assert.Equal(t, "User not found", decode(t, rec, nil).Error)

	rec = env.do(t, "GET", "/api/users", nil, "", true)
	var users []domain.User
	decode(t, rec, &users)
	require.Len(t, users, 2)

	rec = env.doJSON(t, "DELETE", "/api/users", fmt.Sprintf(`{"ids":["%d"]}`, u.ID), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Users deleted successfully", decode(t, rec, nil).Message)
}

func TestReviews(t *testing.T) {
	env := setupAPI(t)
	cat := env.seedCategory(t, "Glassware")
	p := env.seedProduct(t, "Beaker", cat.ID)

	rec := env.doJSON(t, "POST", "/api/reviews", fmt.Sprintf(`{"productId":"%d","name":"Ann","rating":5}`, p.ID), false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", decode(t, rec, nil).Error)

	for _, rating := range []string{"6", "0", "4.5", `"x"`} {
		body := fmt.Sprintf(`{"productId":"%d","name":"Ann","rating":%s,"content":"Good"}`, p.ID, rating)
		rec = env.doJSON(t, "POST", "/api/reviews", body, false)
		assert.Equal(t, "Rating must be between 1 and 5", decode(t, rec, nil).Error, rating)
	}

	rec = env.doJSON(t, "POST", "/api/reviews", `{"productId":"777","name":"Ann","rating":4,"content":"Good"}`, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(t, "POST", "/api/reviews", fmt.Sprintf(`{"productId":"%d","name":" Ann ","rating":"4","content":"Good"}`, p.ID), false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var r domain.Review
	decode(t, rec, &r)
	assert.Equal(t, "Ann", r.Name)
	assert.Equal(t, "Beaker", r.ProductName)

	var rows []domain.Review
	decode(t, env.do(t, "GET", fmt.Sprintf("/api/reviews?productId=%d&since=2020-01-02", p.ID), nil, "", false), &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Beaker", rows[0].ProductName)

	decode(t, env.do(t, "GET", "/api/reviews?since=2999-01-01", nil, "", false), &rows)
	assert.Empty(t, rows)

	rec = env.do(t, "GET", "/api/reviews?since=not-a-date", nil, "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "DELETE", fmt.Sprintf("/api/reviews/%d", r.ID), nil, "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, "DELETE", fmt.Sprintf("/api/reviews/%d", r.ID), nil, "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, "DELETE", fmt.Sprintf("/api/reviews/%d", r.ID), nil, "", true)
	assert.Equal(t, "Review not found", decode(t, rec, nil).Error)
}

func TestContact(t *testing.T) {
	env := setupAPI(t)
	cat := env.seedCategory(t, "Glassware")
	beaker := env.seedProduct(t, "Beaker", cat.ID)
	flask := env.seedProduct(t, "Flask", cat.ID)
	body := fmt.Sprintf(`{"name":"Ann","email":"ann@example.com","subject":"Quote","message":"Price?","inquiry":["%d",{"id":"%d"},"%d","999"]}`,
		flask.ID, beaker.ID, flask.ID)

	rec := env.doJSON(t, "POST", "/api/contact", body, false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Email sending is disabled. Please use WhatsApp instead.", decode(t, rec, nil).Error)

	m := &fakeMailer{}
	env.app.OverrideMailer(m)

	rec = env.doJSON(t, "POST", "/api/contact", `{"name":"Ann","email":"nope","message":"Hi"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, m.sent)

	rec = env.doJSON(t, "POST", "/api/contact", body, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "Quote", msg.Subject)
	require.Len(t, msg.Items, 2)
	assert.Equal(t, "Flask", msg.Items[0].Name)
	assert.Equal(t, "Beaker", msg.Items[1].Name)

	m.err = errors.New("relay down")
	rec = env.doJSON(t, "POST", "/api/contact", body, false)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDashboardAndExports(t *testing.T) {
	env := setupAPI(t)
	ctx := context.Background()
	cat := env.seedCategory(t, "Glassware")
	p := env.seedProduct(t, "Beaker", cat.ID)
	for _, rating := range []int{5, 4, 1} {
		r := &domain.Review{ID: common.UUIDint64(), ProductID: p.ID, Name: "Ann", Rating: rating, Content: "ok, fine"}
		require.NoError(t, env.app.Repos().Reviews.Create(ctx, r))
	}

	rec := env.do(t, "GET", "/api/admin/dashboard", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data DashboardData
	decode(t, rec, &data)
	assert.Equal(t, int64(1), data.Categories)
	assert.Equal(t, int64(1), data.Products)
	assert.Equal(t, int64(3), data.Reviews)
	assert.Equal(t, 3, data.Ratings.Count)
	assert.Equal(t, 3.33, data.Ratings.Mean)
	assert.Equal(t, 4.0, data.Ratings.Median)
	assert.Greater(t, data.System.MemUsedMB, uint64(0))
	assert.Greater(t, data.System.MemPercent, 0.0)

	rec = env.do(t, "GET", "/api/admin/products/export", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "products-")

	rec = env.do(t, "GET", "/api/admin/reviews/export", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,product_id,product,name,rating,content,created_at", lines[0])
	assert.Contains(t, lines[1], `"ok, fine"`)
	assert.Contains(t, lines[1], ",Beaker,")
}

func TestRatingStatsEmpty(t *testing.T) {
	assert.Equal(t, domain.ReviewStats{}, ratingStats(nil))
	assert.Equal(t, domain.ReviewStats{Count: 2, Mean: 3.5, Median: 3.5}, ratingStats([]int{3, 4}))
}

func TestProductWorkbook(t *testing.T) {
	p := &domain.Product{ID: 42, Name: "Beaker", Category: &domain.Category{Name: "Glassware"}, Images: []string{"a", "b"}, IsActive: true}
	xlsx := buildProductWorkbook([]*domain.Product{p})
	assert.Equal(t, "Name", xlsx.GetCellValue(exportSheet, "B1"))
	assert.Equal(t, "42", xlsx.GetCellValue(exportSheet, "A2"))
	assert.Equal(t, "Glassware", xlsx.GetCellValue(exportSheet, "C2"))
	assert.Equal(t, "a\nb", xlsx.GetCellValue(exportSheet, "G2"))
}

func TestSeedEndpoint(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, "GET", "/api/seed", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Added 20 products", decode(t, rec, nil).Message)

	rec = env.do(t, "GET", "/api/seed", nil, "", true)
	assert.Equal(t, "Already have 20 products", decode(t, rec, nil).Message)
}

func TestMediaSweepJob(t *testing.T) {
	env := setupAPI(t)

	rec := env.do(t, "GET", "/api/admin/jobs", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "POST", "/api/admin/jobs/media-sweep/run", nil, "", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res map[string]int
	decode(t, rec, &res)
	assert.Equal(t, 0, res["removed"])
}
