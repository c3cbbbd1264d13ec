// Package httperr renders gRPC status errors as JSON HTTP responses.
package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FromGRPC maps err to an HTTP status, a stable code string and a message
// safe to show to the client. Errors that carry no gRPC status are internal.
func FromGRPC(err error) (int, string, string) {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}

	switch st.Code() {
	case codes.OK:
		return http.StatusOK, "OK", ""
	case codes.InvalidArgument:
		return http.StatusBadRequest, "INVALID_ARGUMENT", st.Message()
	case codes.NotFound:
		return http.StatusNotFound, "NOT_FOUND", st.Message()
	case codes.FailedPrecondition:
		return http.StatusConflict, "FAILED_PRECONDITION", st.Message()
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "UNAUTHENTICATED", st.Message()
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusServiceUnavailable, "UNAVAILABLE", "service unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}

// Abort writes err and stops the gin handler chain.
func Abort(c *gin.Context, err error) {
	code, name, msg := FromGRPC(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, Body{Code: name, Message: msg})
}
