package handler

import (
	"log"
	"net/http"

	"backend/pkg/apperr"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps a service error onto the standard error envelope
// using the error taxonomy's HTTP status.
func respondError(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Internal details stay in the logs.
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = "Internal server error"
	}
	c.JSON(status, response.Error(status, msg))
}

// parseUUIDParam reads a path parameter as a UUID, answering 400 itself
// on malformed input. The bool reports whether the handler may proceed.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+": must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
