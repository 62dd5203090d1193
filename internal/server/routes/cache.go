package routes

import (
	"net/http"

	"github.com/zabal/bonfires/internal/server/middleware"
	"github.com/zabal/bonfires/pkg/logger"

	"github.com/labstack/echo/v4"
)

func GetCacheStatsHandler(c echo.Context) error {
	client := c.(*middleware.AppContext).App.Bonfires
	return c.JSON(http.StatusOK, client.API().CacheStats())
}

func ClearCacheHandler(c echo.Context) error {
	client := c.(*middleware.AppContext).App.Bonfires
	client.API().ClearCache()
	logger.Info("Response cache cleared")

	return c.NoContent(http.StatusNoContent)
}

func InvalidateBonfireCacheHandler(c echo.Context) error {
	params := new(bonfireParams)
	if err := c.Bind(params); err != nil {
		return invalidParams(c)
	}
	if err := c.Validate(params); err != nil {
		return invalidParams(c)
	}

	client := c.(*middleware.AppContext).App.Bonfires
	removed := client.InvalidateBonfire(params.BonfireID)

	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}
