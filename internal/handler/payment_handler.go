package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zewdu444/takethestage/internal/service"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
	"github.com/zewdu444/takethestage/pkg/response"
)

// PaymentHandler exposes payment verification endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Verify godoc
// @Summary Verify a payment against the gateway and allocate on settlement
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Param enrolleeId query string false "Owning enrollee ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	outcome, err := h.payments.VerifyAndAllocate(c.Request.Context(), c.Param("id"), c.Query("enrolleeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Status godoc
// @Summary Re-check pending payments for an enrollee
// @Tags Payments
// @Produce json
// @Param enrolleeId query string true "Enrollee ID"
// @Success 200 {object} response.Envelope
// @Router /payments/status [get]
func (h *PaymentHandler) Status(c *gin.Context) {
	enrolleeID := c.Query("enrolleeId")
	if enrolleeID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "enrolleeId is required"))
		return
	}
	outcome, err := h.payments.PollStatus(c.Request.Context(), enrolleeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}
