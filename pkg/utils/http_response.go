package utils

import (
	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func ResponseWithSuccess(
	c *gin.Context,
	statusCode int,
	message string,
	data interface{},
) {
	c.JSON(statusCode, JSONResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ResponseWithError(
	c *gin.Context,
	statusCode int,
	message string,
	errorDetails interface{},
) {
	c.JSON(statusCode, JSONResponse{
		Success: false,
		Message: message,
		Error:   errorDetails,
	})
}

// ResponseWithAppError answers with the status that matches err's kind. The
// error type is reported so clients can tell a timeout from a refusal.
func ResponseWithAppError(c *gin.Context, message string, err error) {
	ResponseWithError(c, apperr.HTTPStatus(err), message, gin.H{
		"type":   apperr.TypeOf(err),
		"detail": err.Error(),
	})
}
