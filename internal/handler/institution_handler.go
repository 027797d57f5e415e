package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zewdu444/takethestage/internal/models"
	"github.com/zewdu444/takethestage/internal/service"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
	"github.com/zewdu444/takethestage/pkg/response"
)

// InstitutionHandler exposes institution management endpoints.
type InstitutionHandler struct {
	institutions *service.InstitutionService
	availability *service.AvailabilityService
}

// NewInstitutionHandler constructs InstitutionHandler.
func NewInstitutionHandler(institutions *service.InstitutionService, availability *service.AvailabilityService) *InstitutionHandler {
	return &InstitutionHandler{institutions: institutions, availability: availability}
}

// Create godoc
// @Summary Register an institution and seed its slot catalog
// @Tags Institutions
// @Accept json
// @Produce json
// @Param payload body service.CreateInstitutionRequest true "Institution payload"
// @Success 201 {object} response.Envelope
// @Router /institutions [post]
func (h *InstitutionHandler) Create(c *gin.Context) {
	var req service.CreateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	institution, err := h.institutions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, institution)
}

// Get godoc
// @Summary Get institution detail
// @Tags Institutions
// @Produce json
// @Param id path string true "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id} [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	institution, err := h.institutions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, institution, nil)
}

// UnassignedSlots godoc
// @Summary List slots without a teacher for a day and activity kind
// @Tags Institutions
// @Produce json
// @Param id path string true "Institution ID"
// @Param day query string true "Weekday"
// @Param kind query string true "Activity kind"
// @Success 200 {object} response.Envelope
// @Router /institutions/{id}/slots/unassigned [get]
func (h *InstitutionHandler) UnassignedSlots(c *gin.Context) {
	day := models.Weekday(c.Query("day"))
	kind := models.ActivityKind(c.Query("kind"))

	slots, err := h.availability.UnassignedSlots(c.Request.Context(), c.Param("id"), day, kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
