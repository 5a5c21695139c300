package handler

import (
	"crypto/subtle"
	"net/http"

	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// secretHeader carries the shared secret of the verification pipeline.
const secretHeader = "X-Verification-Secret"

// VerificationHandler receives status callbacks from the external
// verification pipeline. It authenticates with a shared secret instead
// of a JWT, the pipeline is not a cadet.
type VerificationHandler struct {
	missionService service.MissionService
	secret         string
}

func NewVerificationHandler(missionService service.MissionService, secret string) *VerificationHandler {
	return &VerificationHandler{missionService: missionService, secret: secret}
}

// RegisterRoutes binds the endpoints to the gin RouterGroup
func (h *VerificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/mission-verification/:missionId/callback", h.Callback)
}

// Callback handles POST /mission-verification/:missionId/callback
// @Summary      Verification pipeline callback
// @Description  Records the verification outcome for a mission. Authenticated with X-Verification-Secret.
// @Tags         verification
// @Param        missionId  path   string  true  "Mission ID"
// @Param        status     query  string  true  "Verification outcome"  Enums(PENDING, SUCCESS, FAILED, REVIEW_NEEDED)
// @Success      204
// @Failure      400  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /mission-verification/{missionId}/callback [post]
func (h *VerificationHandler) Callback(c *gin.Context) {
	provided := c.GetHeader(secretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid verification secret"))
		return
	}

	missionID, ok := parseUUIDParam(c, "missionId")
	if !ok {
		return
	}

	status, ok := model.ParseCallbackStatus(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid status: "+c.Query("status")))
		return
	}

	if err := h.missionService.UpdateVerificationStatus(c.Request.Context(), missionID, status); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
