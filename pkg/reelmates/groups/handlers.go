package groups

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelmates/reelmates/pkg/reelmates/auth"
	"github.com/reelmates/reelmates/pkg/reelmates/httperr"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// Handler handles group lifecycle requests
type Handler struct {
	service *Service
}

// NewHandler creates a new groups handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Kind        string                `json:"kind" binding:"required"`
	MaxMembers  int                   `json:"max_members"`
	Settings    *models.SettingsPatch `json:"settings"`
}

// CreateRelationshipRequest represents the request to create a couple group
type CreateRelationshipRequest struct {
	PartnerEmail string `json:"partner_email" binding:"required,email"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}

// ExpandGroupRequest represents the request to expand a group
type ExpandGroupRequest struct {
	Kind       string `json:"kind" binding:"required"`
	MaxMembers int    `json:"max_members"`
	Name       string `json:"name"`
}

// GroupResponse represents a group in API responses
type GroupResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Kind        string               `json:"kind"`
	OwnerID     uint                 `json:"owner_id"`
	MaxMembers  int                  `json:"max_members"`
	Settings    models.GroupSettings `json:"settings"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

func toGroupResponse(g *models.Group) GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Kind:        string(g.Kind),
		OwnerID:     g.OwnerID,
		MaxMembers:  g.MaxMembers,
		Settings:    g.Settings,
		CreatedAt:   g.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   g.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Create creates a new group with the current user as owner
// @Summary Create a group
// @Description Create a new group of the given kind with the current user as owner
// @Tags groups
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group details"
// @Success 201 {object} GroupResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Security BearerAuth
// @Router /groups [post]
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.service.CreateGroup(c.Request.Context(), userID, CreateGroupParams{
		Name:        req.Name,
		Description: req.Description,
		Kind:        models.GroupKind(req.Kind),
		MaxMembers:  req.MaxMembers,
		Settings:    req.Settings,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, toGroupResponse(group))
}

// CreateRelationship creates a couple group with a partner
// @Summary Create a relationship
// @Description Create a couple group between the current user and a partner found by email
// @Tags groups
// @Accept json
// @Produce json
// @Param request body CreateRelationshipRequest true "Partner details"
// @Success 201 {object} GroupResponse
// @Failure 404 {object} map[string]string "Partner not found"
// @Failure 409 {object} map[string]string "Relationship already exists"
// @Security BearerAuth
// @Router /relationships [post]
func (h *Handler) CreateRelationship(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.service.CreateRelationship(c.Request.Context(), userID, req.PartnerEmail, req.Name, req.Description)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, toGroupResponse(group))
}

// Expand widens a group's kind and capacity
// @Summary Expand a group
// @Description Expand a group to friends or watch_party; expansion never goes backwards
// @Tags groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param request body ExpandGroupRequest true "Expansion details"
// @Success 200 {object} GroupResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not an owner or admin"
// @Security BearerAuth
// @Router /groups/{id}/expand [post]
func (h *Handler) Expand(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID := c.Param("id")

	var req ExpandGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.service.ExpandGroup(c.Request.Context(), userID, groupID, ExpandParams{
		Kind:       models.GroupKind(req.Kind),
		MaxMembers: req.MaxMembers,
		Name:       req.Name,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupResponse(group))
}

// Get returns a group the current user belongs to
// @Summary Get a group
// @Description Get a group by id; only members can see it
// @Tags groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} GroupResponse
// @Failure 404 {object} map[string]string "Group not found"
// @Security BearerAuth
// @Router /groups/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	groupID := c.Param("id")

	group, err := h.service.GetGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, toGroupResponse(group))
}

// RegisterRoutes registers group routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/groups", h.Create)
	rg.GET("/groups/:id", h.Get)
	rg.POST("/groups/:id/expand", h.Expand)
	rg.POST("/relationships", h.CreateRelationship)
}
