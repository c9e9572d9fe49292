package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin/internal/listing"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
	"github.com/noah-isme/wellness-admin/pkg/response"
)

type workspace interface {
	Mount(ctx context.Context, sessionID, entity string) (listing.Screen, error)
	Unmount(sessionID, entity string) bool
}

// ScreenHandler exposes the list screens of the signed-in operator.
type ScreenHandler struct {
	workspace workspace
}

// NewScreenHandler constructs a ScreenHandler.
func NewScreenHandler(ws workspace) *ScreenHandler {
	return &ScreenHandler{workspace: ws}
}

type filtersRequest struct {
	Filters map[string]string `json:"filters" binding:"required"`
}

type pageRequest struct {
	Page int `json:"page" binding:"required"`
}

type modalRequest struct {
	State listing.ModalState `json:"state" binding:"required"`
	ID    string             `json:"id"`
}

func (h *ScreenHandler) screen(c *gin.Context) (listing.Screen, bool) {
	screen, err := h.workspace.Mount(c.Request.Context(), currentSession(c).ID, c.Param("entity"))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return screen, true
}

func (h *ScreenHandler) view(c *gin.Context, screen listing.Screen) {
	pagination := screen.Pagination()
	respond(c, http.StatusOK, screen.View(), &pagination)
}

// Get godoc
// @Summary Open a list screen
// @Description Mounts the screen on first access (performing its initial fetch) and returns its view
// @Tags Screens
// @Produce json
// @Param entity path string true "users, experts, bookings, payments, subscriptions, content or admins"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /screens/{entity} [get]
func (h *ScreenHandler) Get(c *gin.Context) {
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	h.view(c, screen)
}

// Close godoc
// @Summary Close a list screen
// @Description Discards the screen state; the next access starts fresh
// @Tags Screens
// @Param entity path string true "Entity"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /screens/{entity} [delete]
func (h *ScreenHandler) Close(c *gin.Context) {
	if !h.workspace.Unmount(currentSession(c).ID, c.Param("entity")) {
		fail(c, appErrors.Clone(appErrors.ErrNotFound, "screen not open"))
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Entity statistics
// @Tags Screens
// @Produce json
// @Param entity path string true "Entity"
// @Success 200 {object} response.Envelope
// @Router /screens/{entity}/stats [get]
func (h *ScreenHandler) Stats(c *gin.Context) {
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	stats, err := screen.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, stats, nil)
}

// SetFilters godoc
// @Summary Change filters
// @Description Applies the filters, resets to page 1 and refetches
// @Tags Screens
// @Accept json
// @Produce json
// @Param entity path string true "Entity"
// @Param payload body filtersRequest true "Filter values by name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /screens/{entity}/filters [put]
func (h *ScreenHandler) SetFilters(c *gin.Context) {
	var req filtersRequest
	if !bindJSON(c, &req, "invalid filters payload") {
		return
	}
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	if err := screen.SetFilters(c.Request.Context(), req.Filters); err != nil {
		fail(c, err)
		return
	}
	h.view(c, screen)
}

// SetPage godoc
// @Summary Change page
// @Tags Screens
// @Accept json
// @Produce json
// @Param entity path string true "Entity"
// @Param payload body pageRequest true "Page number"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /screens/{entity}/page [put]
func (h *ScreenHandler) SetPage(c *gin.Context) {
	var req pageRequest
	if !bindJSON(c, &req, "invalid page payload") {
		return
	}
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	if err := screen.SetPage(c.Request.Context(), req.Page); err != nil {
		fail(c, err)
		return
	}
	h.view(c, screen)
}

// Refresh godoc
// @Summary Refetch the current page
// @Tags Screens
// @Produce json
// @Param entity path string true "Entity"
// @Success 200 {object} response.Envelope
// @Router /screens/{entity}/refresh [post]
func (h *ScreenHandler) Refresh(c *gin.Context) {
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	if err := screen.Fetch(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	h.view(c, screen)
}

// OpenModal godoc
// @Summary Open the create, view, edit or delete modal
// @Tags Screens
// @Accept json
// @Produce json
// @Param entity path string true "Entity"
// @Param payload body modalRequest true "Target state and record"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /screens/{entity}/modal [put]
func (h *ScreenHandler) OpenModal(c *gin.Context) {
	var req modalRequest
	if !bindJSON(c, &req, "invalid modal payload") {
		return
	}
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	if err := screen.OpenModal(req.State, req.ID); err != nil {
		fail(c, err)
		return
	}
	h.view(c, screen)
}

// CloseModal godoc
// @Summary Close the modal
// @Tags Screens
// @Produce json
// @Param entity path string true "Entity"
// @Success 200 {object} response.Envelope
// @Router /screens/{entity}/modal [delete]
func (h *ScreenHandler) CloseModal(c *gin.Context) {
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	screen.CloseModal()
	h.view(c, screen)
}

// Mutate godoc
// @Summary Create, update, toggle status or delete a record
// @Description Validates required fields first; on success closes the modal and refetches the current page once
// @Tags Screens
// @Accept json
// @Produce json
// @Param entity path string true "Entity"
// @Param payload body listing.Mutation true "Mutation"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /screens/{entity}/mutations [post]
func (h *ScreenHandler) Mutate(c *gin.Context) {
	var req listing.Mutation
	if !bindJSON(c, &req, "invalid mutation payload") {
		return
	}
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	if err := screen.Mutate(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	h.view(c, screen)
}

// Notices godoc
// @Summary Drain pending notices
// @Tags Screens
// @Produce json
// @Param entity path string true "Entity"
// @Success 200 {object} response.Envelope
// @Router /screens/{entity}/notices [get]
func (h *ScreenHandler) Notices(c *gin.Context) {
	screen, ok := h.screen(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, screen.Notices(), nil)
}
