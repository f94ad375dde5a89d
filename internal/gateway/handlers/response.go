package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-system/internal/apperror"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the machine readable part of a failed response.
type ErrorBody struct {
	Reason    string                 `json:"reason"`
	Retryable bool                   `json:"retryable"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func badRequest(c *gin.Context, reason, message string) {
	resp := errorResponse(message)
	resp.Error = &ErrorBody{Reason: reason}
	c.JSON(http.StatusBadRequest, resp)
}

// --- Helper for handling gRPC errors ---
func handleGRPCError(c *gin.Context, err error) {
	s, ok := status.FromError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse("Unknown service error"))
		return
	}

	resp := errorResponse(s.Message())
	body := &ErrorBody{Reason: s.Code().String()}
	if info := apperror.InfoFromStatus(s); info != nil {
		body.Reason = info.GetReason()
		body.Details = errorDetails(info.GetReason(), info.GetMetadata())
	}
	resp.Error = body

	httpStatus := http.StatusInternalServerError
	switch s.Code() {
	case codes.InvalidArgument:
		httpStatus = http.StatusBadRequest
	case codes.NotFound:
		httpStatus = http.StatusNotFound
	case codes.FailedPrecondition:
		httpStatus = http.StatusConflict
	case codes.AlreadyExists:
		httpStatus = http.StatusConflict
	case codes.Unavailable:
		httpStatus = http.StatusServiceUnavailable
		body.Retryable = true
	case codes.DeadlineExceeded:
		httpStatus = http.StatusGatewayTimeout
		body.Retryable = true
	default:
		resp.Message = "Service error: " + s.Message()
	}

	c.JSON(httpStatus, resp)
}

func errorDetails(reason string, metadata map[string]string) map[string]interface{} {
	details := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		details[k] = v
	}

	switch reason {
	case apperror.ReasonInsufficientStock, apperror.ReasonNotFound:
		for _, k := range []string{"id", "available", "required"} {
			if n, err := strconv.ParseInt(metadata[k], 10, 64); err == nil {
				details[k] = n
			}
		}
	case apperror.ReasonPersistence:
		delete(details, "retryable")
	}
	return details
}

func parseIDParam(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, apperror.ReasonValidation, "Invalid "+param)
		return 0, false
	}
	return id, true
}
