package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookwell-inc/bookwell/internal/application/identity"
	"github.com/bookwell-inc/bookwell/internal/shared/errors"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
	"github.com/bookwell-inc/bookwell/internal/shared/utils"
)

type ClientHandler struct {
	linkUserUC linkUserUseCase
	logger     logger.Interface
}

func NewClientHandler(linkUserUC linkUserUseCase, logger logger.Interface) *ClientHandler {
	return &ClientHandler{
		linkUserUC: linkUserUC,
		logger:     logger,
	}
}

// LinkUser handles POST /clients/link
func (h *ClientHandler) LinkUser(c *gin.Context) {
	var cmd identity.LinkUserCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.linkUserUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		if !errors.IsAppError(err) {
			h.logger.Errorw("failed to link user", "user_id", cmd.UserID, "error", err)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	message := "user linked"
	if result.Pending {
		message = "link pending until the client exists"
	}
	utils.SuccessResponse(c, http.StatusOK, message, result)
}
