package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nijsci/labcatalog/internal/webserver"
)

func registerSeedRoutes() {
	webserver.ApiGET("/seed", seedCatalog)
}

// @Summary seed fixture products
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /seed [get]
func seedCatalog(c echo.Context) error {
	res, err := GetAppContext(c).SeedCatalog(c.Request().Context())
	if err != nil {
		zap.L().Error("seed catalog failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to seed catalog", err.Error())
	}
	return message(c, res.Message, res)
}
