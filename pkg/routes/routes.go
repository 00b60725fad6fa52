// Package routes mounts the fern HTTP API
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/routes/entries"
	"github.com/Ramsey-B/fern/pkg/routes/masters"
	"github.com/Ramsey-B/fern/pkg/routes/migrations"
	"github.com/Ramsey-B/fern/pkg/routes/templates"
)

// Register mounts every identity route on api (the /api/v1 group)
func Register(api *echo.Group, engine *identity.Engine, logger ectologger.Logger) {
	masters.NewHandler(engine, logger).RegisterRoutes(api.Group("/masters"))
	entries.NewHandler(engine, logger).RegisterRoutes(api.Group("/entries"))
	templates.NewHandler(engine, logger).RegisterRoutes(api.Group("/templates"))
	migrations.NewHandler(engine, logger).RegisterRoutes(api.Group("/migrations"))
}
