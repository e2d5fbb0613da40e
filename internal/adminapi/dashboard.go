package adminapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"

	"github.com/nijsci/labcatalog/internal/app"
	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/webserver"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/admin/dashboard", dashboard)
}

// DashboardData is the admin overview.
type DashboardData struct {
	Categories int64              `json:"categories"`
	Products   int64              `json:"products"`
	Heroes     int64              `json:"heroes"`
	Reviews    int64              `json:"reviews"`
	Users      int64              `json:"users"`
	Ratings    domain.ReviewStats `json:"ratings"`
	System     app.SystemStats    `json:"system"`
}

// ratingStats returns the mean and median rounded to two places; no ratings
// gives zeros.
func ratingStats(ratings []int) domain.ReviewStats {
	rs := domain.ReviewStats{Count: len(ratings)}
	if len(ratings) == 0 {
		return rs
	}
	data := stats.LoadRawData(ratings)
	if mean, err := stats.Mean(data); err == nil {
		rs.Mean, _ = stats.Round(mean, 2)
	}
	if median, err := stats.Median(data); err == nil {
		rs.Median, _ = stats.Round(median, 2)
	}
	return rs
}

// @Summary get the admin dashboard
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /admin/dashboard [get]
func dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	r := repos(c)
	var data DashboardData
	counters := []struct {
		dst   *int64
		count func(context.Context) (int64, error)
	}{
		{&data.Categories, r.Categories.Count},
		{&data.Products, r.Products.Count},
		{&data.Heroes, r.Heroes.Count},
		{&data.Reviews, r.Reviews.Count},
		{&data.Users, r.Users.Count},
	}
	for _, ct := range counters {
		n, err := ct.count(ctx)
		if err != nil {
			return repoFail(c, err, "", "Failed to load dashboard")
		}
		*ct.dst = n
	}
	ratings, err := r.Reviews.Ratings(ctx)
	if err != nil {
		return repoFail(c, err, "", "Failed to load dashboard")
	}
	data.Ratings = ratingStats(ratings)
	data.System = app.CollectSystemStats()
	return ok(c, data)
}
