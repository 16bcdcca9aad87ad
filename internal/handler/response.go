package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Payphone-Digital/account-service/internal/constants"
	apperrors "github.com/Payphone-Digital/account-service/internal/errors"
	"github.com/Payphone-Digital/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError maps err to its status and writes the public message only.
func respondError(ctx context.Context, c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)

	b := logger.WarnWithContext(ctx, "Request failed")
	if status >= http.StatusInternalServerError {
		b = logger.ErrorWithContext(ctx, "Request failed")
	}
	b.Int("http_status", status).Err(err).Log()

	c.JSON(status, constants.BuildErrorResponse(apperrors.PublicMessage(err), nil))
}

// pathID reads the numeric :id already checked by middleware.NumericParam.
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.WrapError(apperrors.ErrInvalidInput, err)
	}
	return uint(id), nil
}
