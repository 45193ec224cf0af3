package types

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/killallgit/eafkit/internal/logging"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// SendError maps err to its HTTP status. Internal failures are logged and
// their message is not exposed.
func SendError(c *gin.Context, err error) {
	status := apperrors.GetHTTPCode(err)
	resp := ErrorResponse{Status: StatusError, Message: err.Error()}

	if appErr, ok := apperrors.As(err); ok {
		resp.Error = string(appErr.Code)
		resp.Message = appErr.Message
		if len(appErr.Details) > 0 {
			resp.Details = appErr.Details
		}
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).WithError(err).WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
		}).Error("request failed")
		resp.Message = http.StatusText(status)
		resp.Details = nil
	}
	c.JSON(status, resp)
}

// SendBadRequest sends a standardized bad request response
func SendBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Status: StatusError, Message: message})
}

// SendNotFound sends a standardized not found response
func SendNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Status: StatusError, Message: message})
}

// SendSuccess sends a standardized success response with data
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}
