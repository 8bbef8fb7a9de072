package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/gateway"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/policy"
	"github.com/gin-gonic/gin"
)

// StatusFor maps a gateway error to its HTTP status.
func StatusFor(err *gateway.Error) int {
	switch err.Kind {
	case gateway.KindValidation, gateway.KindState:
		return http.StatusBadRequest
	case gateway.KindPolicy:
		if err.Code == string(policy.ReasonRateLimited) {
			return http.StatusTooManyRequests
		}
		return http.StatusForbidden
	case gateway.KindCredential:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body for err.
func respondError(c *gin.Context, err error) {
	gerr := gateway.AsError(err)

	body := gin.H{}
	for k, v := range gerr.Details {
		body[k] = v
	}
	body["ok"] = false
	body["error"] = gerr.Message
	body["code"] = gerr.Code

	c.JSON(StatusFor(gerr), body)
}

// bind decodes an optional JSON body into obj. An empty body leaves obj at
// its zero value.
func bind(c *gin.Context, obj any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"ok":    false,
		"error": "Invalid request body: " + err.Error(),
		"code":  gateway.CodeInvalidRequest,
	})
	return false
}
