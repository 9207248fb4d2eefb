package watchlist

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reelmates/reelmates/pkg/reelmates/auth"
	"github.com/reelmates/reelmates/pkg/reelmates/httperr"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// Handler handles watchlist requests
type Handler struct {
	store *Store
}

// NewHandler creates a new watchlist handler
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// AddEntryRequest represents the request to add a watchlist entry
type AddEntryRequest struct {
	ContentID int64  `json:"content_id" binding:"required"`
	MediaKind string `json:"media_kind" binding:"required"`
	Status    string `json:"status"`
}

// UpdateEntryRequest represents the request to change an entry's status
type UpdateEntryRequest struct {
	Status string `json:"status" binding:"required"`
}

// EntryResponse represents a watchlist entry in API responses
type EntryResponse struct {
	ID        uint   `json:"id"`
	ContentID int64  `json:"content_id"`
	MediaKind string `json:"media_kind"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func toEntryResponse(e *models.WatchlistEntry) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		ContentID: e.ContentID,
		MediaKind: string(e.MediaKind),
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Add adds an item to the current user's watchlist
// @Summary Add a watchlist entry
// @Description Add a content item to the current user's watchlist
// @Tags watchlist
// @Accept json
// @Produce json
// @Param request body AddEntryRequest true "Entry details"
// @Success 201 {object} EntryResponse
// @Failure 409 {object} map[string]string "Already on the watchlist"
// @Security BearerAuth
// @Router /watchlist [post]
func (h *Handler) Add(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := models.WatchlistEntry{
		UserID:    userID,
		ContentID: req.ContentID,
		MediaKind: models.MediaKind(req.MediaKind),
		Status:    models.WatchStatus(req.Status),
	}
	if err := h.store.Add(c.Request.Context(), &entry); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEntryResponse(&entry))
}

// List returns the current user's watchlist
// @Summary List watchlist entries
// @Description Get all entries on the current user's watchlist
// @Tags watchlist
// @Produce json
// @Success 200 {array} EntryResponse
// @Security BearerAuth
// @Router /watchlist [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	entries, err := h.store.ListEntries(c.Request.Context(), userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	resp := make([]EntryResponse, len(entries))
	for i := range entries {
		resp[i] = toEntryResponse(&entries[i])
	}
	c.JSON(http.StatusOK, resp)
}

// Update changes the status of a watchlist entry
// @Summary Update a watchlist entry
// @Description Change the personal watch status of an entry
// @Tags watchlist
// @Accept json
// @Produce json
// @Param id path int true "Entry ID"
// @Param request body UpdateEntryRequest true "New status"
// @Success 200 {object} EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /watchlist/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	entryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.store.UpdateStatus(c.Request.Context(), userID, uint(entryID), models.WatchStatus(req.Status))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, toEntryResponse(entry))
}

// Remove deletes a watchlist entry
// @Summary Remove a watchlist entry
// @Description Delete an entry from the current user's watchlist
// @Tags watchlist
// @Produce json
// @Param id path int true "Entry ID"
// @Success 204 "Removed"
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /watchlist/{id} [delete]
func (h *Handler) Remove(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	entryID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	if err := h.store.Remove(c.Request.Context(), userID, uint(entryID)); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers watchlist routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/watchlist", h.Add)
	rg.GET("/watchlist", h.List)
	rg.PUT("/watchlist/:id", h.Update)
	rg.DELETE("/watchlist/:id", h.Remove)
}
