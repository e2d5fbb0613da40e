package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nijsci/labcatalog/internal/webserver"
)

func registerJobRoutes() {
	webserver.ApiGET("/admin/jobs", listJobs)
	webserver.ApiPOST("/admin/jobs/media-sweep/run", runMediaSweep)
}

// @Summary list background jobs
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /admin/jobs [get]
func listJobs(c echo.Context) error {
	return ok(c, GetAppContext(c).Jobs())
}

// runMediaSweep triggers the orphan media sweep immediately
//
// @Summary run the media sweep now
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /admin/jobs/media-sweep/run [post]
func runMediaSweep(c echo.Context) error {
	n, err := GetAppContext(c).SweepMedia(c.Request().Context())
	if err != nil {
		zap.L().Error("media sweep failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "RUN_FAILED", "Failed to run media sweep", err.Error())
	}
	return message(c, "Media sweep finished", map[string]int{"removed": n})
}
