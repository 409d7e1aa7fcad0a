package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/middleware"
)

// parseIDParam reads a positive int64 path parameter, writing a 400 when it is malformed
func parseIDParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondBadRequest(ctx, "Invalid "+label+" ID", label+" ID must be a valid number")
		return 0, false
	}
	return id, true
}

func respondOK(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(data))
}

func respondMessage(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, dto.NewAPIResponse(dto.MessageResponse{Message: message}))
}
