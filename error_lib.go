package restblog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ApiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	// Status defaults to 400 when zero.
	Status int `json:"-"`
}

var (
	ErrNotFound = ApiError{ErrorCode: "NOT_FOUND", Message: "no route for %s %s", Status: http.StatusNotFound}
	ErrInternal = ApiError{ErrorCode: "Internal Server Error", Message: "An unknown error occurred", Status: http.StatusInternalServerError}
)

func (e ApiError) New(messages ...string) ApiError {
	args := make([]any, len(messages))
	for i, msg := range messages {
		args[i] = msg
	}

	message := fmt.Sprintf(e.Message, args...)
	return ApiError{
		ErrorCode: e.ErrorCode,
		Message:   message,
		Status:    e.Status,
	}
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

func (e ApiError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func SendError(c *gin.Context, err error) {
	var customErr ApiError
	if errors.As(err, &customErr) {
		c.AbortWithStatusJSON(customErr.StatusCode(), ErrorResponse{
			ErrorCode: customErr.ErrorCode,
			Message:   customErr.Message,
		})
		return
	}
	// Handle other types of errors here
	c.AbortWithStatusJSON(ErrInternal.Status, ErrorResponse{
		ErrorCode: ErrInternal.ErrorCode,
		Message:   ErrInternal.Message,
	})
}
