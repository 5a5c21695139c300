package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MissionHandler struct {
	missionService service.MissionService
	auth           *middleware.Authenticator
}

func NewMissionHandler(missionService service.MissionService, auth *middleware.Authenticator) *MissionHandler {
	return &MissionHandler{missionService: missionService, auth: auth}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *MissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	missions := router.Group("/missions", h.auth.Authenticate())
	{
		missions.GET("", h.auth.RequirePermission("mission:read"), h.ListMissions)
		missions.GET("/next-order", h.auth.RequirePermission("mission:read"), h.NextOrder)
		missions.GET("/:id", h.auth.RequirePermission("mission:read"), h.GetMissionByID)
		missions.PUT("/:id", h.auth.RequirePermission("mission:edit"), h.UpdateMission)
		missions.DELETE("/:id", h.auth.RequirePermission("mission:delete"), h.DeleteMission)

		missions.POST("/forge/initialize", h.auth.RequirePermission("mission:create"), h.InitializeForgeMission)
		missions.POST("/:id/forge/save", h.auth.RequirePermission("mission:edit"), h.SaveForgeContent)
		missions.GET("/:id/forge/files", h.auth.RequirePermission("mission:read"), h.GetMissionFiles)

		missions.POST("/:id/start", h.auth.RequirePermission("mission:start"), h.StartMission)
	}
}

// ListMissions handles GET /missions with an optional starSystemId filter
// @Summary      List missions
// @Description  Lists all missions, or the missions of one star system in rank order
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        starSystemId  query     string  false  "Star System ID"
// @Success      200           {object}  response.Response{data=[]service.MissionResponse}
// @Router       /missions [get]
func (h *MissionHandler) ListMissions(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	if raw := c.Query("starSystemId"); raw != "" {
		starSystemID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid starSystemId: must be a UUID"))
			return
		}
		missions, err := h.missionService.ListMissionsByStarSystem(c.Request.Context(), principal, starSystemID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, missions))
		return
	}

	missions, err := h.missionService.ListMissions(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, missions))
}

// NextOrder handles GET /missions/next-order
// @Summary      Next free rank in a star system
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        starSystemId  query     string  true  "Star System ID"
// @Success      200           {object}  response.Response{data=object}
// @Failure      400           {object}  response.Response
// @Router       /missions/next-order [get]
func (h *MissionHandler) NextOrder(c *gin.Context) {
	starSystemID, err := uuid.Parse(c.Query("starSystemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid starSystemId: must be a UUID"))
		return
	}

	next, err := h.missionService.NextOrder(c.Request.Context(), starSystemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]int{"next_order": next}))
}

// GetMissionByID handles GET /missions/:id
// @Summary      Get mission by ID
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Mission ID"
// @Success      200  {object}  response.Response{data=service.MissionResponse}
// @Failure      404  {object}  response.Response
// @Router       /missions/{id} [get]
func (h *MissionHandler) GetMissionByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	mission, err := h.missionService.GetMissionByID(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, mission))
}

// InitializeForgeMission handles POST /missions/forge/initialize
// @Summary      Initialize mission draft
// @Description  Provisions a template repository and creates the mission as DRAFT
// @Tags         missions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateMissionInitialRequest  true  "Initialize Payload"
// @Success      201      {object}  response.Response{data=service.MissionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /missions/forge/initialize [post]
func (h *MissionHandler) InitializeForgeMission(c *gin.Context) {
	var req service.CreateMissionInitialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	mission, err := h.missionService.InitializeForgeMission(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, mission))
}

// SaveForgeContent handles POST /missions/:id/forge/save
// @Summary      Save mission forge content
// @Description  Uploads files to the mission repository and marks the mission PENDING
// @Tags         missions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                             true  "Mission ID"
// @Param        payload  body      service.MissionForgeContentRequest true  "Files Payload"
// @Success      200      {object}  response.Response{data=service.MissionResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /missions/{id}/forge/save [post]
func (h *MissionHandler) SaveForgeContent(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req service.MissionForgeContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	mission, err := h.missionService.SaveForgeContent(c.Request.Context(), principal, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, mission))
}

// GetMissionFiles handles GET /missions/:id/forge/files
// @Summary      Get mission repository files
// @Description  Returns every file in the mission repository keyed by path
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Mission ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /missions/{id}/forge/files [get]
func (h *MissionHandler) GetMissionFiles(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	files, err := h.missionService.GetMissionFiles(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, files))
}

// StartMission handles POST /missions/:id/start
// @Summary      Start mission
// @Description  Provisions (or resumes) the cadet's private working copy of the mission
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Mission ID"
// @Success      200  {object}  response.Response{data=service.StartMissionResponse}
// @Failure      404  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /missions/{id}/start [post]
func (h *MissionHandler) StartMission(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	res, err := h.missionService.StartMission(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UpdateMission handles PUT /missions/:id
// @Summary      Update mission
// @Description  Updates mission fields, re-resolving rank and star system placement
// @Tags         missions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Mission ID"
// @Param        payload  body      service.UpdateMissionRequest  true  "Update Mission Payload"
// @Success      200      {object}  response.Response{data=service.MissionResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /missions/{id} [put]
func (h *MissionHandler) UpdateMission(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	mission, err := h.missionService.UpdateMission(c.Request.Context(), principal, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, mission))
}

// DeleteMission handles DELETE /missions/:id
// @Summary      Delete mission
// @Description  Deletes the mission, its progress records and (best-effort) its repository
// @Tags         missions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Mission ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /missions/{id} [delete]
func (h *MissionHandler) DeleteMission(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := middleware.CurrentPrincipal(c)
	if err := h.missionService.DeleteMission(c.Request.Context(), principal, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Mission deleted successfully"))
}
