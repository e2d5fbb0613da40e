package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/repository"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

func registerReviewRoutes() {
	webserver.PubGET("/reviews", listReviews)
	webserver.PubPOST("/reviews", createReview)
	webserver.ApiDELETE("/reviews/:id", deleteReview)
}

// @Summary list reviews
// @Tags Reviews
// @Produce json
// @Param productId query integer false "Product ID"
// @Param limit query integer false "Maximum rows"
// @Param since query string false "Only reviews created after this date"
// @Success 200 {object} map[string]interface{}
// @Router /reviews [get]
func listReviews(c echo.Context) error {
	var filter repository.ReviewFilter
	if raw := strings.TrimSpace(c.QueryParam("productId")); raw != "" {
		id, ok := common.ParseID(raw)
		if !ok {
			return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
		}
		filter.ProductID = id
	}
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid limit", nil)
		}
		filter.Limit = n
	}
	if raw := strings.TrimSpace(c.QueryParam("since")); raw != "" {
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid since date", err.Error())
		}
		filter.Since = t
	}
	rows, err := repos(c).Reviews.List(c.Request().Context(), filter)
	if err != nil {
		return repoFail(c, err, "", "Failed to query reviews")
	}
	return ok(c, rows)
}

type reviewRequest struct {
	ProductID interface{} `json:"productId"`
	Name      string      `json:"name"`
	Rating    interface{} `json:"rating"`
	Content   string      `json:"content"`
}

// rating accepts a JSON number or numeric string; fractions are rejected.
func (r *reviewRequest) rating() (int, bool) {
	switch v := r.Rating.(type) {
	case nil:
		return 0, false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		return n, err == nil
	}
}

// @Summary submit a review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param body body object true "{productId, name, rating, content}"
// @Success 201 {object} map[string]interface{}
// @Router /reviews [post]
func createReview(c echo.Context) error {
	var req reviewRequest
	if err := decodeJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
	}
	name := strings.TrimSpace(req.Name)
	content := strings.TrimSpace(req.Content)
	productID, _ := common.ParseID(req.ProductID)
	if req.ProductID == nil || req.Rating == nil || name == "" || content == "" {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "All fields are required", nil)
	}
	rating, valid := req.rating()
	if !valid || rating < domain.RatingMin || rating > domain.RatingMax {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be between 1 and 5", map[string]string{"field": "rating"})
	}

	r := &domain.Review{
		ID:        common.UUIDint64(),
		ProductID: productID,
		Name:      name,
		Rating:    rating,
		Content:   content,
	}
	r.Normalize()
	if err := r.Validate(); err != nil {
		return handleValidationError(c, err)
	}
	ctx := c.Request().Context()
	p, err := repos(c).Products.GetByID(ctx, r.ProductID)
	if err != nil {
		return repoFail(c, err, "Product not found", "Failed to query product")
	}
	if err := repos(c).Reviews.Create(ctx, r); err != nil {
		return repoFail(c, err, "", "Failed to create review")
	}
	r.ProductName = p.Name
	return created(c, r)
}

// @Summary delete a review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path integer true "ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /reviews/{id} [delete]
func deleteReview(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid review ID", nil)
	}
	if err := repos(c).Reviews.Delete(c.Request().Context(), id); err != nil {
		return repoFail(c, err, "Review not found", "Failed to delete review")
	}
	return message(c, "Review deleted successfully", map[string]interface{}{})
}
