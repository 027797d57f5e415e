package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zewdu444/takethestage/internal/service"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
	"github.com/zewdu444/takethestage/pkg/response"
)

// TeacherAllocationHandler exposes teacher-to-slot assignment endpoints.
type TeacherAllocationHandler struct {
	teachers *service.TeacherAllocationService
}

// NewTeacherAllocationHandler constructs TeacherAllocationHandler.
func NewTeacherAllocationHandler(teachers *service.TeacherAllocationService) *TeacherAllocationHandler {
	return &TeacherAllocationHandler{teachers: teachers}
}

// Assign godoc
// @Summary Assign a teacher to a slot for one of their shifts
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.AssignTeacherRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /teacher-allocations [post]
func (h *TeacherAllocationHandler) Assign(c *gin.Context) {
	var req service.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	shift, err := h.teachers.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// ListShifts godoc
// @Summary List a teacher's weekly shifts
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/shifts [get]
func (h *TeacherAllocationHandler) ListShifts(c *gin.Context) {
	shifts, err := h.teachers.ListShifts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, nil)
}
