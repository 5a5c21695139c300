package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StarSystemHandler struct {
	starSystemService service.StarSystemService
	auth              *middleware.Authenticator
}

func NewStarSystemHandler(starSystemService service.StarSystemService, auth *middleware.Authenticator) *StarSystemHandler {
	return &StarSystemHandler{starSystemService: starSystemService, auth: auth}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *StarSystemHandler) RegisterRoutes(router *gin.RouterGroup) {
	systems := router.Group("/star-systems", h.auth.Authenticate())
	{
		systems.GET("", h.auth.RequirePermission("starsystem:read"), h.ListStarSystems)
		systems.GET("/mine", h.ListOwnStarSystems)
		systems.GET("/:id", h.auth.RequirePermission("starsystem:read"), h.GetStarSystemByID)
		systems.GET("/:id/with-missions", h.auth.RequirePermission("starsystem:read"), h.GetStarSystemWithMissions)
		systems.POST("", h.auth.RequirePermission("starsystem:create"), h.CreateStarSystem)
		systems.PUT("/:id", h.UpdateStarSystem)
		systems.DELETE("/:id", h.DeleteStarSystem)
	}
}

// ListStarSystems handles GET /star-systems
// @Summary      List star systems
// @Tags         star-systems
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.StarSystemResponse}
// @Router       /star-systems [get]
func (h *StarSystemHandler) ListStarSystems(c *gin.Context) {
	systems, err := h.starSystemService.ListStarSystems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, systems))
}

// ListOwnStarSystems handles GET /star-systems/mine
// @Summary      List own star systems
// @Description  Returns the star systems owned by the authenticated cadet
// @Tags         star-systems
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.StarSystemResponse}
// @Router       /star-systems/mine [get]
func (h *StarSystemHandler) ListOwnStarSystems(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	systems, err := h.starSystemService.ListOwnStarSystems(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, systems))
}

// GetStarSystemByID handles GET /star-systems/:id
// @Summary      Get star system by ID
// @Tags         star-systems
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Star System ID"
// @Success      200  {object}  response.Response{data=service.StarSystemResponse}
// @Failure      404  {object}  response.Response
// @Router       /star-systems/{id} [get]
func (h *StarSystemHandler) GetStarSystemByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	system, err := h.starSystemService.GetStarSystemByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, system))
}

// GetStarSystemWithMissions handles GET /star-systems/:id/with-missions
// @Summary      Get star system with ordered missions
// @Tags         star-systems
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Star System ID"
// @Success      200  {object}  response.Response{data=service.StarSystemWithMissionsResponse}
// @Failure      404  {object}  response.Response
// @Router       /star-systems/{id}/with-missions [get]
func (h *StarSystemHandler) GetStarSystemWithMissions(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	system, err := h.starSystemService.GetStarSystemWithMissions(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, system))
}

// CreateStarSystem handles POST /star-systems
// @Summary      Create star system
// @Tags         star-systems
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateStarSystemRequest  true  "Create Star System Payload"
// @Success      201      {object}  response.Response{data=service.StarSystemResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /star-systems [post]
func (h *StarSystemHandler) CreateStarSystem(c *gin.Context) {
	var req service.CreateStarSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	system, err := h.starSystemService.CreateStarSystem(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, system))
}

// UpdateStarSystem handles PUT /star-systems/:id
// @Summary      Update star system
// @Description  Owners may edit their own systems, others need starsystem:edit_any
// @Tags         star-systems
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Star System ID"
// @Param        payload  body      service.UpdateStarSystemRequest  true  "Update Star System Payload"
// @Success      200      {object}  response.Response{data=service.StarSystemResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /star-systems/{id} [put]
func (h *StarSystemHandler) UpdateStarSystem(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateStarSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	system, err := h.starSystemService.UpdateStarSystem(c.Request.Context(), principal, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, system))
}

// DeleteStarSystem handles DELETE /star-systems/:id
// @Summary      Delete star system
// @Description  Deletes the system, its missions and their repositories
// @Tags         star-systems
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Star System ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /star-systems/{id} [delete]
func (h *StarSystemHandler) DeleteStarSystem(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	if err := h.starSystemService.DeleteStarSystem(c.Request.Context(), principal, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Star system deleted successfully"))
}
