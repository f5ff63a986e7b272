// Package api
package api

import (
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"

	"github.com/zmart-protocol/vote-backend/cfg"
)

func Start(e *echo.Echo, srv *Server, cfg cfg.BridgeConfig) {
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Gzip())
	e.Use(rateLimitMiddleware(cfg.APIRateLimit))

	v1Gr := e.Group("/api/v1")
	bind(v1Gr, srv)
	if err := e.Start(cfg.Port); err != nil {
		srv.logger.Warn("echo server stopped: " + err.Error())
	}
}
