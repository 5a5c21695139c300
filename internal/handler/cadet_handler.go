package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CadetHandler struct {
	cadetService service.CadetService
	auth         *middleware.Authenticator
}

func NewCadetHandler(cadetService service.CadetService, auth *middleware.Authenticator) *CadetHandler {
	return &CadetHandler{cadetService: cadetService, auth: auth}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *CadetHandler) RegisterRoutes(router *gin.RouterGroup) {
	cadets := router.Group("/cadets", h.auth.Authenticate())
	{
		cadets.GET("", h.auth.RequirePermission("cadet:read"), h.ListCadets)
		cadets.GET("/me/progress", h.ListOwnProgress)
		cadets.GET("/:id", h.auth.RequirePermission("cadet:read"), h.GetCadetByID)
		cadets.POST("", h.auth.RequirePermission("cadet:create"), h.CreateCadet)
		cadets.PUT("/:id", h.auth.RequirePermission("cadet:edit"), h.UpdateCadet)
		cadets.DELETE("/:id", h.auth.RequirePermission("cadet:delete"), h.DeleteCadet)
	}
}

// ListCadets handles GET /cadets with pagination
// @Summary      List cadets
// @Description  Retrieves a paginated list of cadets
// @Tags         cadets
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /cadets [get]
func (h *CadetHandler) ListCadets(c *gin.Context) {
	params := pagination.Parse(c)

	cadets, total, err := h.cadetService.ListCadets(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"cadets": cadets,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetCadetByID handles GET /cadets/:id
// @Summary      Get cadet by ID
// @Description  Fetch a single cadet's detail by their UUID
// @Tags         cadets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cadet ID"
// @Success      200  {object}  response.Response{data=service.CadetResponse}
// @Failure      404  {object}  response.Response
// @Router       /cadets/{id} [get]
func (h *CadetHandler) GetCadetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	cadet, err := h.cadetService.GetCadetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cadet))
}

// CreateCadet handles POST /cadets
// @Summary      Create a new cadet
// @Description  Creates a cadet with explicit roles and a mirrored Gitea account
// @Tags         cadets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCadetRequest  true  "Create Cadet Payload"
// @Success      201      {object}  response.Response{data=service.CadetResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /cadets [post]
func (h *CadetHandler) CreateCadet(c *gin.Context) {
	var req service.CreateCadetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	cadet, err := h.cadetService.CreateCadet(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, cadet))
}

// UpdateCadet handles PUT /cadets/:id
// @Summary      Update cadet
// @Description  Updates a cadet's profile and role assignments
// @Tags         cadets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Cadet ID"
// @Param        payload  body      service.UpdateCadetRequest  true  "Update Cadet Payload"
// @Success      200      {object}  response.Response{data=service.CadetResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /cadets/{id} [put]
func (h *CadetHandler) UpdateCadet(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateCadetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	cadet, err := h.cadetService.UpdateCadet(c.Request.Context(), principal, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Role assignments may have changed, drop the stale snapshot.
	h.auth.ClearPrincipalCache(id)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cadet))
}

// DeleteCadet handles DELETE /cadets/:id
// @Summary      Delete cadet
// @Description  Deletes a cadet, their progress records and their Gitea account
// @Tags         cadets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cadet ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /cadets/{id} [delete]
func (h *CadetHandler) DeleteCadet(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	if err := h.cadetService.DeleteCadet(c.Request.Context(), principal, id); err != nil {
		respondError(c, err)
		return
	}

	h.auth.ClearPrincipalCache(id)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Cadet deleted successfully"))
}

// ListOwnProgress handles GET /cadets/me/progress
// @Summary      List own mission progress
// @Description  Returns the authenticated cadet's mission progress records
// @Tags         cadets
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.CadetMissionProgressResponse}
// @Failure      401  {object}  response.Response
// @Router       /cadets/me/progress [get]
func (h *CadetHandler) ListOwnProgress(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	progress, err := h.cadetService.ListOwnProgress(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, progress))
}
