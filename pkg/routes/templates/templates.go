package templates

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// DeleteResponse reports how many exercises a template delete removed
type DeleteResponse struct {
	DeletedCount int `json:"deleted_count"`
}

// Handler serves the template routes
type Handler struct {
	links     *identity.LinkManager
	templates *identity.TemplateSync
	logger    ectologger.Logger
}

// NewHandler creates a new template handler
func NewHandler(engine *identity.Engine, logger ectologger.Logger) *Handler {
	return &Handler{
		links:     engine.Links,
		templates: engine.Templates,
		logger:    logger,
	}
}

// RegisterRoutes registers the template routes on g (mounted at /templates)
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/:id/links", h.Links)
	g.PUT("/:id/exercises", h.SaveExercises)
	g.DELETE("/:id", h.Delete)
}

// Links handles GET /templates/:id/links
func (h *Handler) Links(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "TemplateHandler.Links")
	defer span.End()

	templateID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	statuses, err := h.links.GetLinksForTemplate(ctx, context.GetOwnerID(ctx), templateID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, statuses)
}

// SaveExercises handles PUT /templates/:id/exercises
func (h *Handler) SaveExercises(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "TemplateHandler.SaveExercises")
	defer span.End()

	templateID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.SaveTemplateExercisesRequest](c)
	if err != nil {
		return err
	}

	statuses, err := h.templates.SaveTemplateExercises(ctx, context.GetOwnerID(ctx), templateID, req.Exercises)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, statuses)
}

// Delete handles DELETE /templates/:id
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "TemplateHandler.Delete")
	defer span.End()

	templateID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.templates.DeleteTemplate(ctx, context.GetOwnerID(ctx), templateID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, DeleteResponse{DeletedCount: deleted})
}
