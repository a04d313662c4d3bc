package v1

import (
	"net/http"

	"github.com/billingsim/billingsim/internal/api/dto"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/service"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	logger              *logger.Logger
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService, logger *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// @Summary Get a subscription purchase
// @Description Retrieves the androidpublisher SubscriptionPurchase resource for a token
// @Tags Subscriptions
// @Produce json
// @Param packageName path string true "Application package name"
// @Param subscriptionId path string true "Subscription product id"
// @Param token path string true "Purchase token"
// @Success 200 {object} dto.SubscriptionPurchaseResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /androidpublisher/v3/applications/{packageName}/purchases/subscriptions/{subscriptionId}/tokens/{token} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	packageName := c.Param("packageName")
	subscriptionID := c.Param("subscriptionId")
	token, _ := splitTokenVerb(c.Param("token"))

	response, err := h.subscriptionService.GetSubscription(c.Request.Context(), packageName, subscriptionID, token)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Subscription custom methods
// @Description Dispatches the androidpublisher custom methods acknowledge, cancel, revoke and defer
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param packageName path string true "Application package name"
// @Param subscriptionId path string true "Subscription product id"
// @Param token path string true "Purchase token with :verb suffix"
// @Success 200 {object} dto.DeferSubscriptionResponse
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /androidpublisher/v3/applications/{packageName}/purchases/subscriptions/{subscriptionId}/tokens/{token} [post]
func (h *SubscriptionHandler) PostSubscription(c *gin.Context) {
	packageName := c.Param("packageName")
	subscriptionID := c.Param("subscriptionId")
	token, verb := splitTokenVerb(c.Param("token"))

	switch verb {
	case "acknowledge":
		if err := h.subscriptionService.AcknowledgeSubscription(c.Request.Context(), packageName, subscriptionID, token); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)

	case "cancel":
		if _, err := h.subscriptionService.GetSubscription(c.Request.Context(), packageName, subscriptionID, token); err != nil {
			c.Error(err)
			return
		}
		if err := h.subscriptionService.CancelSubscription(c.Request.Context(), token, false); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)

	case "revoke":
		if _, err := h.subscriptionService.GetSubscription(c.Request.Context(), packageName, subscriptionID, token); err != nil {
			c.Error(err)
			return
		}
		if err := h.subscriptionService.RevokeSubscription(c.Request.Context(), token); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)

	case "defer":
		if _, err := h.subscriptionService.GetSubscription(c.Request.Context(), packageName, subscriptionID, token); err != nil {
			c.Error(err)
			return
		}
		var req dto.DeferSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
		response, err := h.subscriptionService.DeferSubscription(c.Request.Context(), token, req)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, response)

	default:
		c.Error(ierr.NewError("unknown subscription method").
			WithHintf("Unknown method %q for subscription tokens", verb).
			Mark(ierr.ErrValidation))
	}
}

// @Summary Create a subscription
// @Description Creates a subscription through the emulator control surface
// @Tags Emulator
// @Accept json
// @Produce json
// @Param subscription body dto.CreateSubscriptionRequest true "Subscription request"
// @Success 201 {object} dto.CreateSubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.subscriptionService.CreateSubscription(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// @Summary Renew a subscription
// @Description Applies one renewal cycle immediately
// @Tags Emulator
// @Produce json
// @Param token path string true "Purchase token"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions/{token}/renew [post]
func (h *SubscriptionHandler) RenewSubscription(c *gin.Context) {
	if err := h.subscriptionService.RenewSubscription(c.Request.Context(), c.Param("token")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Cancel a subscription
// @Description Cancels a subscription, deferred by default or immediately on request
// @Tags Emulator
// @Accept json
// @Produce json
// @Param token path string true "Purchase token"
// @Param options body dto.CancelSubscriptionRequest false "Cancel options"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions/{token}/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	var req dto.CancelSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	if err := h.subscriptionService.CancelSubscription(c.Request.Context(), c.Param("token"), req.Immediate); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Simulate a failed payment
// @Description Moves an active subscription into its grace period
// @Tags Emulator
// @Produce json
// @Param token path string true "Purchase token"
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions/{token}/payment-failed [post]
func (h *SubscriptionHandler) PaymentFailed(c *gin.Context) {
	if err := h.subscriptionService.PaymentFailed(c.Request.Context(), c.Param("token")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Simulate a recovered payment
// @Description Returns a grace-period or on-hold subscription to active
// @Tags Emulator
// @Produce json
// @Param token path string true "Purchase token"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions/{token}/payment-recovered [post]
func (h *SubscriptionHandler) PaymentRecovered(c *gin.Context) {
	if err := h.subscriptionService.PaymentRecovered(c.Request.Context(), c.Param("token")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Pause a subscription
// @Description Pauses an active subscription, freezing its expiry
// @Tags Emulator
// @Accept json
// @Produce json
// @Param token path string true "Purchase token"
// @Param options body dto.PauseSubscriptionRequest false "Pause options"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions/{token}/pause [post]
func (h *SubscriptionHandler) PauseSubscription(c *gin.Context) {
	var req dto.PauseSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	if err := h.subscriptionService.PauseSubscription(c.Request.Context(), c.Param("token"), req); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Resume a paused subscription
// @Description Resumes a paused subscription and re-enables auto-renew
// @Tags Emulator
// @Produce json
// @Param token path string true "Purchase token"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions/{token}/resume [post]
func (h *SubscriptionHandler) ResumeSubscription(c *gin.Context) {
	if err := h.subscriptionService.ResumeSubscription(c.Request.Context(), c.Param("token")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Defer a subscription
// @Description Extends the subscription expiry to a later time
// @Tags Emulator
// @Accept json
// @Produce json
// @Param token path string true "Purchase token"
// @Param deferral body dto.DeferSubscriptionRequest true "Deferral request"
// @Success 200 {object} dto.DeferSubscriptionResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions/{token}/defer [post]
func (h *SubscriptionHandler) DeferSubscription(c *gin.Context) {
	var req dto.DeferSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.subscriptionService.DeferSubscription(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// @Summary Revoke a subscription
// @Description Revokes a subscription immediately
// @Tags Emulator
// @Produce json
// @Param token path string true "Purchase token"
// @Success 204
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /emulator/subscriptions/{token}/revoke [post]
func (h *SubscriptionHandler) RevokeSubscription(c *gin.Context) {
	if err := h.subscriptionService.RevokeSubscription(c.Request.Context(), c.Param("token")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List subscriptions
// @Description Lists every stored subscription for debugging
// @Tags Emulator
// @Produce json
// @Success 200 {object} dto.ListSubscriptionsResponse
// @Router /emulator/debug/subscriptions [get]
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	response, err := h.subscriptionService.ListSubscriptions(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}
