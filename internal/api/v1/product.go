package v1

import (
	"net/http"

	"github.com/billingsim/billingsim/internal/api/dto"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/service"
	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	purchaseService service.PurchaseService
	logger          *logger.Logger
}

func NewProductHandler(purchaseService service.PurchaseService, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// @Summary Get a product purchase
// @Description Retrieves the androidpublisher ProductPurchase resource for a token
// @Tags Products
// @Produce json
// @Param packageName path string true "Application package name"
// @Param productId path string true "Product id"
// @Param token path string true "Purchase token"
// @Success 200 {object} dto.ProductPurchaseResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /androidpublisher/v3/applications/{packageName}/purchases/products/{productId}/tokens/{token} [get]
func (h *ProductHandler) GetPurchase(c *gin.Context) {
	packageName := c.Param("packageName")
	productID := c.Param("productId")
	token, _ := splitTokenVerb(c.Param("token"))

	response, err := h.purchaseService.GetPurchase(c.Request.Context(), packageName, productID, token)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Product purchase custom methods
// @Description Dispatches the androidpublisher custom methods acknowledge and consume
// @Tags Products
// @Produce json
// @Param packageName path string true "Application package name"
// @Param productId path string true "Product id"
// @Param token path string true "Purchase token with :verb suffix"
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /androidpublisher/v3/applications/{packageName}/purchases/products/{productId}/tokens/{token} [post]
func (h *ProductHandler) PostPurchase(c *gin.Context) {
	packageName := c.Param("packageName")
	productID := c.Param("productId")
	token, verb := splitTokenVerb(c.Param("token"))

	switch verb {
	case "acknowledge":
		if err := h.purchaseService.AcknowledgePurchase(c.Request.Context(), packageName, productID, token); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)

	case "consume":
		if err := h.purchaseService.ConsumePurchase(c.Request.Context(), packageName, productID, token); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)

	default:
		c.Error(ierr.NewError("unknown product method").
			WithHintf("Unknown method %q for product tokens", verb).
			Mark(ierr.ErrValidation))
	}
}

// @Summary Create a product purchase
// @Description Creates a one-time purchase through the emulator control surface
// @Tags Emulator
// @Accept json
// @Produce json
// @Param purchase body dto.CreatePurchaseRequest true "Purchase request"
// @Success 201 {object} dto.CreatePurchaseResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /emulator/purchases [post]
func (h *ProductHandler) CreatePurchase(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.purchaseService.CreatePurchase(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// @Summary Refund a product purchase
// @Description Refunds a purchase by token through the emulator control surface
// @Tags Emulator
// @Produce json
// @Param token path string true "Purchase token"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Router /emulator/purchases/{token}/refund [post]
func (h *ProductHandler) RefundPurchase(c *gin.Context) {
	if err := h.purchaseService.RefundPurchase(c.Request.Context(), c.Param("token")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List product purchases
// @Description Lists every stored purchase for debugging
// @Tags Emulator
// @Produce json
// @Success 200 {object} dto.ListPurchasesResponse
// @Router /emulator/debug/products [get]
func (h *ProductHandler) ListPurchases(c *gin.Context) {
	response, err := h.purchaseService.ListPurchases(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}
