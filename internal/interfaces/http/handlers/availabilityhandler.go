package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookwell-inc/bookwell/internal/application/availability"
	"github.com/bookwell-inc/bookwell/internal/shared/errors"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
	"github.com/bookwell-inc/bookwell/internal/shared/utils"
)

type AvailabilityHandler struct {
	checkUC checkAvailabilityUseCase
	logger  logger.Interface
}

func NewAvailabilityHandler(checkUC checkAvailabilityUseCase, logger logger.Interface) *AvailabilityHandler {
	return &AvailabilityHandler{
		checkUC: checkUC,
		logger:  logger,
	}
}

// CheckAvailability handles GET /professionals/:id/availability?start=RFC3339&duration=minutes
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("start must be an RFC3339 timestamp"))
		return
	}

	duration, err := strconv.Atoi(c.Query("duration"))
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("duration must be a number of minutes"))
		return
	}

	result, err := h.checkUC.Execute(c.Request.Context(), availability.CheckAvailabilityQuery{
		ProfessionalID:  c.Param("id"),
		Start:           start,
		DurationMinutes: duration,
	})
	if err != nil {
		if !errors.IsAppError(err) {
			h.logger.Errorw("availability check failed", "professional_id", c.Param("id"), "error", err)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
