package entries

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

// LinkResponse is the resolved link state of one template exercise
type LinkResponse struct {
	EntryID    string  `json:"entry_id"`
	IsLinked   bool    `json:"is_linked"`
	MasterID   *string `json:"master_id,omitempty"`
	MasterName *string `json:"master_name,omitempty"`
}

// RejectedResponse reports the rejection flag of a template exercise
type RejectedResponse struct {
	EntryID  string `json:"entry_id"`
	Rejected bool   `json:"rejected"`
}

// Handler serves the template exercise link routes
type Handler struct {
	links  *identity.LinkManager
	logger ectologger.Logger
}

// NewHandler creates a new entry handler
func NewHandler(engine *identity.Engine, logger ectologger.Logger) *Handler {
	return &Handler{
		links:  engine.Links,
		logger: logger,
	}
}

// RegisterRoutes registers the entry routes on g (mounted at /entries)
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/:id/link", h.GetLink)
	g.PUT("/:id/link", h.Link)
	g.DELETE("/:id/link", h.Unlink)
	g.POST("/:id/reject", h.Reject)
	g.GET("/:id/rejected", h.Rejected)
}

func toLinkResponse(entryID string, state models.LinkState) LinkResponse {
	resp := LinkResponse{EntryID: entryID}
	if linked, ok := state.(models.Linked); ok {
		resp.IsLinked = true
		resp.MasterID = &linked.MasterID
		resp.MasterName = &linked.MasterName
	}
	return resp
}

// GetLink handles GET /entries/:id/link
func (h *Handler) GetLink(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.GetLink")
	defer span.End()

	entryID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	state, err := h.links.ResolveLink(ctx, context.GetOwnerID(ctx), entryID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toLinkResponse(entryID, state))
}

// Link handles PUT /entries/:id/link, replacing any existing link
func (h *Handler) Link(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.Link")
	defer span.End()

	entryID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[models.LinkRequest](c)
	if err != nil {
		return err
	}

	link, err := h.links.LinkToMaster(ctx, context.GetOwnerID(ctx), entryID, req.MasterID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, link)
}

// Unlink handles DELETE /entries/:id/link. Unlinking an unlinked entry succeeds.
func (h *Handler) Unlink(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.Unlink")
	defer span.End()

	entryID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.links.Unlink(ctx, context.GetOwnerID(ctx), entryID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Reject handles POST /entries/:id/reject
func (h *Handler) Reject(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.Reject")
	defer span.End()

	entryID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.links.RejectLinking(ctx, context.GetOwnerID(ctx), entryID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Rejected handles GET /entries/:id/rejected
func (h *Handler) Rejected(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "EntryHandler.Rejected")
	defer span.End()

	entryID, err := utils.PathParam(c, "id")
	if err != nil {
		return err
	}

	rejected, err := h.links.IsRejected(ctx, context.GetOwnerID(ctx), entryID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RejectedResponse{EntryID: entryID, Rejected: rejected})
}
