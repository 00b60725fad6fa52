package migrations

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Handler serves the one-off data migration routes
type Handler struct {
	migrator *identity.Migrator
	logger   ectologger.Logger
}

// NewHandler creates a new migration handler
func NewHandler(engine *identity.Engine, logger ectologger.Logger) *Handler {
	return &Handler{
		migrator: engine.Migrator,
		logger:   logger,
	}
}

// RegisterRoutes registers the migration routes on g (mounted at /migrations)
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/exercises", h.MigrateExercises)
}

// MigrateExercises handles POST /migrations/exercises. It links every unlinked exercise of the
// caller to a master of the same normalized name.
func (h *Handler) MigrateExercises(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MigrationHandler.MigrateExercises")
	defer span.End()

	ownerID := context.GetOwnerID(ctx)
	h.logger.WithContext(ctx).WithField("owner_id", ownerID).Info("Starting exercise migration")

	result, err := h.migrator.MigrateExistingExercises(ctx, ownerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
