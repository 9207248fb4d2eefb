package matching

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelmates/reelmates/pkg/reelmates/auth"
	"github.com/reelmates/reelmates/pkg/reelmates/faults"
	"github.com/reelmates/reelmates/pkg/reelmates/httperr"
)

// Handler handles content match requests
type Handler struct {
	matcher *Matcher
}

// NewHandler creates a new matching handler
func NewHandler(matcher *Matcher) *Handler {
	return &Handler{matcher: matcher}
}

// Matches returns the watchlist items shared by the group's active members
// @Summary List content matches
// @Description Get the watchlist items that two or more active members share
// @Tags matching
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {array} ContentMatch
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id}/matches [get]
func (h *Handler) Matches(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID := c.Param("id")

	if !h.isMember(c, groupID, userID) {
		httperr.Respond(c, faults.NotFound("group %s not found", groupID))
		return
	}

	matches, err := h.matcher.FindMatches(c.Request.Context(), groupID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

func (h *Handler) isMember(c *gin.Context, groupID string, userID uint) bool {
	membership, err := h.matcher.store.GetMembership(c.Request.Context(), groupID, userID)
	return err == nil && membership != nil
}

// RegisterRoutes registers matching routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/groups/:id/matches", h.Matches)
}
