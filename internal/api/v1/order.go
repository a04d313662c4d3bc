package v1

import (
	"net/http"

	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
	logger       *logger.Logger
}

func NewOrderHandler(orderService service.OrderService, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// @Summary Refund an order
// @Description Refunds the order's purchase; a subscription order is revoked, a product order is canceled
// @Tags Orders
// @Produce json
// @Param packageName path string true "Application package name"
// @Param orderId path string true "Order id with :refund suffix"
// @Param revoke query bool false "Also revoke entitlement"
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /androidpublisher/v3/applications/{packageName}/orders/{orderId} [post]
func (h *OrderHandler) RefundOrder(c *gin.Context) {
	packageName := c.Param("packageName")
	orderID, verb := splitTokenVerb(c.Param("orderId"))

	if verb != "refund" {
		c.Error(ierr.NewError("unknown order method").
			WithHintf("Unknown method %q for orders", verb).
			Mark(ierr.ErrValidation))
		return
	}

	revoke := c.Query("revoke") == "true"
	if err := h.orderService.RefundOrder(c.Request.Context(), packageName, orderID, revoke); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
