package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookwell-inc/bookwell/internal/shared/utils"
	"github.com/bookwell-inc/bookwell/internal/shared/version"
)

func HealthCheck(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"status":  "healthy",
		"version": version.String(),
	})
}
