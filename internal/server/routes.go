package server

import (
	"github.com/zabal/bonfires/internal/server/middleware"
	"github.com/zabal/bonfires/internal/server/routes"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo, reg *prometheus.Registry) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Bonfire routes
	apiRoutes.GET("/bonfires", routes.GetBonfiresHandler)
	apiRoutes.GET("/bonfires/:id", routes.GetBonfireHandler)
	apiRoutes.GET("/bonfires/:id/agents", routes.GetAgentsHandler)
	apiRoutes.GET("/bonfires/:id/episodes", routes.GetEpisodesHandler)

	// Graph routes
	apiRoutes.GET("/bonfires/:id/graph", routes.GetGraphHandler)
	apiRoutes.GET("/bonfires/:id/graph/expand", routes.ExpandGraphHandler)

	// Agent routes
	apiRoutes.POST("/agents/:id/chat", routes.ChatHandler, middleware.RequirePermission("agent.chat"))

	// Data room and hyperblog routes
	apiRoutes.GET("/bonfires/:id/datarooms", routes.GetDataRoomsHandler)
	apiRoutes.POST("/bonfires/:id/datarooms", routes.CreateDataRoomHandler, middleware.RequirePermission("dataroom.create"))
	apiRoutes.GET("/bonfires/:id/hyperblogs", routes.GetHyperBlogsHandler)
	apiRoutes.POST("/bonfires/:id/hyperblogs", routes.CreateHyperBlogHandler, middleware.RequirePermission("hyperblog.create"))
	apiRoutes.GET("/jobs/:id", routes.GetJobHandler)

	// Cache routes
	apiRoutes.GET("/cache/stats", routes.GetCacheStatsHandler)
	apiRoutes.DELETE("/cache", routes.ClearCacheHandler, middleware.RequirePermission("cache.manage"))
	apiRoutes.DELETE("/cache/bonfires/:id", routes.InvalidateBonfireCacheHandler, middleware.RequirePermission("cache.manage"))
}
