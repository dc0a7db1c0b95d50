// Package v1handler implements the /v1 HTTP routes of the loan pipeline on
// top of gin.
package v1handler

import (
	"context"
	"errors"
	"lending/internal/application"
	"lending/internal/extraction"
	"lending/internal/ledger"
	"lending/internal/status"
	"lending/pkg/logger"
	"lending/pkg/serrors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the services the handlers delegate to.
type Deps struct {
	Extractor    extraction.Extractor
	Applications application.Service
	Status       status.Service
	Ledger       ledger.Ledger

	// MaxUploadBytes caps the size of an uploaded document. Defaults to
	// extraction.DefaultMaxBytes.
	MaxUploadBytes int64
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = extraction.DefaultMaxBytes
	}

	return &Handler{deps: deps}
}

// Register mounts the v1 routes on r. Authentication is expected to run
// before them.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/documents", h.UploadDocument)
	r.POST("/applications", h.SubmitApplication)
	r.GET("/applications", h.ListApplications)
	r.GET("/applications/:id", h.GetApplication)
	r.GET("/credit-score", h.GetCreditScore)
}

// Error is the body of every failed response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse pairs an Error body with its HTTP status code.
type ErrorResponse struct {
	StatusCode int
	Response   Error
}

var statusCodes = map[serrors.Kind]int{
	serrors.ErrNotFound:          http.StatusNotFound,
	serrors.ErrUnauthorized:      http.StatusUnauthorized,
	serrors.ErrForbidden:         http.StatusForbidden,
	serrors.ErrBadRequest:        http.StatusBadRequest,
	serrors.ErrConflict:          http.StatusConflict,
	serrors.ErrTimeout:           http.StatusGatewayTimeout,
	serrors.ErrUnavailable:       http.StatusServiceUnavailable,
	serrors.ErrRateLimited:       http.StatusTooManyRequests,
	serrors.ErrRejectedInput:     http.StatusBadRequest,
	serrors.ErrValidation:        http.StatusBadRequest,
	serrors.ErrUnknownDocument:   http.StatusUnprocessableEntity,
	serrors.ErrProcessingFailure: http.StatusInternalServerError,
}

var defaultMessages = map[serrors.Kind]string{
	serrors.ErrNotFound:     "resource not found",
	serrors.ErrUnauthorized: "unauthorized",
	serrors.ErrForbidden:    "forbidden",
	serrors.ErrBadRequest:   "bad request",
	serrors.ErrTimeout:      "request timed out",
	serrors.ErrUnavailable:  "service unavailable",
	serrors.ErrRateLimited:  "too many requests",
}

// NewError maps err to a response. Errors without a client facing kind are
// logged and masked as internal errors.
func (h *Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	kind := serrors.KindOf(err)
	code, ok := statusCodes[kind]
	if !ok || code == http.StatusInternalServerError {
		logger.Error(ctx, "Request failed", zap.Error(err))

		return &ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Response: Error{
				Code:    serrors.ErrInternal.Error(),
				Message: "internal error",
			},
		}
	}

	var message string
	var e *serrors.Error
	if errors.As(err, &e) {
		message = e.Message()
	}
	if message == "" {
		message = defaultMessages[kind]
	}
	if message == "" {
		message = kind.Error()
	}

	return &ErrorResponse{
		StatusCode: code,
		Response: Error{
			Code:    kind.Error(),
			Message: message,
		},
	}
}

func (h *Handler) abort(c *gin.Context, err error) {
	res := h.NewError(c.Request.Context(), err)
	c.AbortWithStatusJSON(res.StatusCode, res.Response)
}
