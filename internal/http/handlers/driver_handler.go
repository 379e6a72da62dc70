package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexttransport/internal/modules/assignment"
	"nexttransport/internal/types"
)

type DriverHandler struct {
	assignments *assignment.Service
}

func NewDriverHandler(assignments *assignment.Service) *DriverHandler {
	return &DriverHandler{assignments: assignments}
}

type respondReq struct {
	DriverID string `json:"driver_id" binding:"required"`
	Action   string `json:"action" binding:"required,oneof=accept reject"`
}

func (h *DriverHandler) Respond(c *gin.Context) {
	var req respondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.assignments.Respond(c.Request.Context(), assignment.RespondCommand{
		AssignmentID: types.ID(c.Param("id")),
		DriverID:     types.ID(req.DriverID),
		Accept:       req.Action == "accept",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.View())
}
