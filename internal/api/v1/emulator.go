package v1

import (
	"net/http"

	"github.com/billingsim/billingsim/internal/api/dto"
	"github.com/billingsim/billingsim/internal/domain/catalog"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type EmulatorHandler struct {
	timeService service.TimeService
	catalog     catalog.Repository
	logger      *logger.Logger
}

func NewEmulatorHandler(timeService service.TimeService, catalogRepo catalog.Repository, logger *logger.Logger) *EmulatorHandler {
	return &EmulatorHandler{
		timeService: timeService,
		catalog:     catalogRepo,
		logger:      logger,
	}
}

// @Summary Advance virtual time
// @Description Moves the virtual clock forward and processes every crossed billing boundary
// @Tags Emulator
// @Accept json
// @Produce json
// @Param advance body dto.AdvanceTimeRequest true "Advance request"
// @Success 200 {object} dto.AdvanceTimeResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /emulator/time/advance [post]
func (h *EmulatorHandler) AdvanceTime(c *gin.Context) {
	var req dto.AdvanceTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.timeService.AdvanceTime(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Set virtual time
// @Description Jumps the virtual clock to an absolute time and processes every crossed boundary
// @Tags Emulator
// @Accept json
// @Produce json
// @Param time body dto.SetTimeRequest true "Set time request"
// @Success 200 {object} dto.SetTimeResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /emulator/time/set [post]
func (h *EmulatorHandler) SetTime(c *gin.Context) {
	var req dto.SetTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.timeService.SetTime(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Reset virtual time
// @Description Returns the virtual clock to its epoch without touching stored state
// @Tags Emulator
// @Produce json
// @Success 200 {object} dto.ResetTimeResponse
// @Router /emulator/time/reset [post]
func (h *EmulatorHandler) ResetTime(c *gin.Context) {
	response, err := h.timeService.ResetTime(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Reset the emulator
// @Description Deletes every subscription and purchase and resets the clock
// @Tags Emulator
// @Produce json
// @Success 200 {object} dto.ResetResponse
// @Router /emulator/reset [post]
func (h *EmulatorHandler) Reset(c *gin.Context) {
	response, err := h.timeService.ResetState(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Emulator status
// @Description Reports the current virtual time and store statistics
// @Tags Emulator
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Router /emulator/status [get]
func (h *EmulatorHandler) Status(c *gin.Context) {
	response, err := h.timeService.Status(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary List catalog plans
// @Description Lists the configured subscription plans and one-time products
// @Tags Emulator
// @Produce json
// @Success 200 {object} dto.ListPlansResponse
// @Router /emulator/plans [get]
func (h *EmulatorHandler) ListPlans(c *gin.Context) {
	subs, err := h.catalog.ListSubscriptionPlans(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	plans := lo.Map(append(subs, products...), func(p *catalog.Plan, _ int) *dto.PlanResponse {
		return dto.NewPlanResponse(p)
	})

	c.JSON(http.StatusOK, &dto.ListPlansResponse{
		Plans: plans,
		Total: len(plans),
	})
}
