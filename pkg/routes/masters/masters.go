package masters

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

// DefaultSimilarityThreshold applies to /masters/similar when no threshold is given
const DefaultSimilarityThreshold = 0.5

// Handler serves the master exercise routes
type Handler struct {
	registry    *identity.Registry
	suggestions *identity.SuggestionEngine
	bulk        *identity.BulkOperator
	logger      ectologger.Logger
}

// NewHandler creates a new master exercise handler
func NewHandler(engine *identity.Engine, logger ectologger.Logger) *Handler {
	return &Handler{
		registry:    engine.Registry,
		suggestions: engine.Suggestions,
		bulk:        engine.Bulk,
		logger:      logger,
	}
}

// RegisterRoutes registers the master routes on g (mounted at /masters)
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Search)
	g.POST("", h.Create)
	g.GET("/all", h.List)
	g.GET("/similar", h.Similar)
	g.GET("/:id/linking", h.LinkingDetails)
	g.POST("/:id/bulk-link", h.BulkLink)
	g.DELETE("/:id/links", h.BulkUnlink)
}

// Search handles GET /masters?q=&page_size=&cursor=
func (h *Handler) Search(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MasterHandler.Search")
	defer span.End()

	pageSize, err := utils.QueryInt(c, "page_size", identity.DefaultPageSize)
	if err != nil {
		return err
	}

	page, err := h.registry.SearchMasters(ctx, context.GetOwnerID(ctx), c.QueryParam("q"), pageSize, c.QueryParam("cursor"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// List handles GET /masters/all
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MasterHandler.List")
	defer span.End()

	masters, err := h.registry.ListMasters(ctx, context.GetOwnerID(ctx))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, masters)
}

// Create handles POST /masters. An existing master with the same normalized name is returned
// instead of creating a duplicate.
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MasterHandler.Create")
	defer span.End()

	req, err := utils.BindRequest[models.CreateMasterRequest](c)
	if err != nil {
		return err
	}

	master, err := h.registry.CreateOrGetMaster(ctx, context.GetOwnerID(ctx), req.Name)
	if err != nil {
		return err
	}

	if master.Synthetic() {
		h.logger.WithContext(ctx).WithField("name", req.Name).Warn("returning unpersisted master")
	}

	return c.JSON(http.StatusOK, master)
}

// Similar handles GET /masters/similar?name=&threshold=
func (h *Handler) Similar(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MasterHandler.Similar")
	defer span.End()

	threshold, err := utils.QueryFloat(c, "threshold", DefaultSimilarityThreshold)
	if err != nil {
		return err
	}

	scored, err := h.registry.FindSimilarMasters(ctx, context.GetOwnerID(ctx), c.QueryParam("name"), threshold)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, scored)
}

// LinkingDetails handles GET /masters/:id/linking
func (h *Handler) LinkingDetails(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MasterHandler.LinkingDetails")
	defer span.End()

	masterID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	details, err := h.suggestions.GetLinkingDetails(ctx, context.GetOwnerID(ctx), masterID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, details)
}

// BulkLink handles POST /masters/:id/bulk-link
func (h *Handler) BulkLink(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MasterHandler.BulkLink")
	defer span.End()

	masterID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.BulkLinkRequest](c)
	if err != nil {
		return err
	}

	result, err := h.bulk.BulkLinkSimilar(ctx, context.GetOwnerID(ctx), masterID, *req.MinimumSimilarity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// BulkUnlink handles DELETE /masters/:id/links
func (h *Handler) BulkUnlink(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "MasterHandler.BulkUnlink")
	defer span.End()

	masterID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.bulk.BulkUnlinkAll(ctx, context.GetOwnerID(ctx), masterID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
