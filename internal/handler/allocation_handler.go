package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zewdu444/takethestage/internal/service"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
	"github.com/zewdu444/takethestage/pkg/response"
)

type allocationRunner interface {
	Allocate(ctx context.Context, enrolleeID string) (*service.AllocationResult, error)
	Status(ctx context.Context, enrolleeID string) (*service.AllocationResult, error)
}

// AllocationHandler exposes the seat allocation endpoints.
type AllocationHandler struct {
	allocations allocationRunner
}

// NewAllocationHandler constructs AllocationHandler.
func NewAllocationHandler(allocations allocationRunner) *AllocationHandler {
	return &AllocationHandler{allocations: allocations}
}

// Allocate godoc
// @Summary Run seat allocation for an enrollee
// @Tags Allocations
// @Produce json
// @Param id path string true "Enrollee ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollees/{id}/allocation [post]
func (h *AllocationHandler) Allocate(c *gin.Context) {
	result, err := h.allocations.Allocate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if !result.Assigned {
		if result.Reason == service.OutcomeCapacityRace {
			status = appErrors.ErrCapacityRace.Status
		} else {
			status = appErrors.ErrNoCapacity.Status
		}
	}
	response.JSON(c, status, result, nil)
}

// Status godoc
// @Summary Get the current assignment of an enrollee
// @Tags Allocations
// @Produce json
// @Param id path string true "Enrollee ID"
// @Success 200 {object} response.Envelope
// @Router /enrollees/{id}/allocation [get]
func (h *AllocationHandler) Status(c *gin.Context) {
	result, err := h.allocations.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
