package memberships

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelmates/reelmates/pkg/reelmates/auth"
	"github.com/reelmates/reelmates/pkg/reelmates/httperr"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// Handler handles membership requests
type Handler struct {
	service *Service
}

// NewHandler creates a new memberships handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// InviteRequest represents a request to invite users to a group
type InviteRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required,min=1"`
}

// MembershipResponse represents a membership in API responses
type MembershipResponse struct {
	GroupID   string `json:"group_id"`
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	InvitedBy *uint  `json:"invited_by,omitempty"`
	JoinedAt  string `json:"joined_at,omitempty"`
}

// InvitationResponse is a pending invitation with its group attached
type InvitationResponse struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	GroupKind string `json:"group_kind"`
	InvitedBy *uint  `json:"invited_by,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toMembershipResponse(m models.Membership) MembershipResponse {
	resp := MembershipResponse{
		GroupID:   m.GroupID,
		UserID:    m.UserID,
		Role:      string(m.Role),
		Status:    string(m.Status),
		InvitedBy: m.InvitedBy,
	}
	if m.JoinedAt != nil {
		resp.JoinedAt = m.JoinedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// Invite invites users to a group
// @Summary Invite users
// @Description Invite one or more users to a group; fails whole if any is already a member
// @Tags memberships
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param request body InviteRequest true "Users to invite"
// @Success 201 {array} MembershipResponse
// @Failure 409 {object} map[string]string "Already a member or invited"
// @Failure 422 {object} map[string]string "Group capacity exceeded"
// @Security BearerAuth
// @Router /groups/{id}/invites [post]
func (h *Handler) Invite(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID := c.Param("id")

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Invite(c.Request.Context(), userID, groupID, req.UserIDs)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	memberships := make([]MembershipResponse, len(created))
	for i, m := range created {
		memberships[i] = toMembershipResponse(m)
	}
	c.JSON(http.StatusCreated, memberships)
}

// Accept accepts the current user's pending invitation
// @Summary Accept an invitation
// @Description Accept the current user's pending invitation to a group
// @Tags memberships
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} MembershipResponse
// @Failure 409 {object} map[string]string "No pending invitation"
// @Security BearerAuth
// @Router /groups/{id}/accept [post]
func (h *Handler) Accept(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID := c.Param("id")

	membership, err := h.service.Accept(c.Request.Context(), userID, groupID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, toMembershipResponse(*membership))
}

// Decline declines the current user's pending invitation
// @Summary Decline an invitation
// @Description Decline the current user's pending invitation to a group; declining is final
// @Tags memberships
// @Produce json
// @Param id path string true "Group ID"
// @Success 204 "Declined"
// @Failure 409 {object} map[string]string "No pending invitation"
// @Security BearerAuth
// @Router /groups/{id}/decline [post]
func (h *Handler) Decline(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID := c.Param("id")

	if err := h.service.Decline(c.Request.Context(), userID, groupID); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListInvitations lists the current user's pending invitations
// @Summary List pending invitations
// @Description List all groups the current user has been invited to and not yet answered
// @Tags memberships
// @Produce json
// @Success 200 {array} InvitationResponse
// @Security BearerAuth
// @Router /invitations [get]
func (h *Handler) ListInvitations(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	invitations, err := h.service.ListPendingInvitationsFor(c.Request.Context(), userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	resp := make([]InvitationResponse, len(invitations))
	for i, inv := range invitations {
		resp[i] = InvitationResponse{
			GroupID:   inv.GroupID,
			GroupName: inv.Group.Name,
			GroupKind: string(inv.Group.Kind),
			InvitedBy: inv.InvitedBy,
			CreatedAt: inv.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers membership routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/groups/:id/invites", h.Invite)
	rg.POST("/groups/:id/accept", h.Accept)
	rg.POST("/groups/:id/decline", h.Decline)
	rg.GET("/invitations", h.ListInvitations)
}
