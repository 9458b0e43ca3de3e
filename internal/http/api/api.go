package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is returned by handlers and rendered as {"error": Message}.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

type HandlerFunc func(ctx *gin.Context) (any, *Error)

// ResolveEndpoint adapts a HandlerFunc: a non-nil *Error becomes its status
// code, anything else is a 200 with the result as JSON.
func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, err := h(ctx)
		if err != nil {
			ctx.JSON(err.Code, gin.H{"error": err.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func BadRequest(msg string) *Error { return &Error{Code: http.StatusBadRequest, Message: msg} }

func Unavailable(msg string) *Error { return &Error{Code: http.StatusServiceUnavailable, Message: msg} }

func Internal(msg string) *Error { return &Error{Code: http.StatusInternalServerError, Message: msg} }
