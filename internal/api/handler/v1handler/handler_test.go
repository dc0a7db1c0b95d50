package v1handler_test

import (
	"context"
	"errors"
	"fmt"
	"lending/internal/api/handler/v1handler"
	"lending/pkg/logger"
	"lending/pkg/serrors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func TestNewError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    serrors.Kind
		message string
	}{
		{
			name:    "plain error is masked",
			err:     errors.New("connection reset by peer"),
			status:  http.StatusInternalServerError,
			code:    serrors.ErrInternal,
			message: "internal error",
		},
		{
			name:    "bare kind uses default message",
			err:     serrors.ErrNotFound,
			status:  http.StatusNotFound,
			code:    serrors.ErrNotFound,
			message: "resource not found",
		},
		{
			name:    "rejected upload",
			err:     serrors.With(serrors.ErrRejectedInput, "file exceeds 5242880 bytes"),
			status:  http.StatusBadRequest,
			code:    serrors.ErrRejectedInput,
			message: "file exceeds 5242880 bytes",
		},
		{
			name:    "invalid loan details",
			err:     fmt.Errorf("could not submit: %w", serrors.With(serrors.ErrValidation, "loanDetails.amount must be positive")),
			status:  http.StatusBadRequest,
			code:    serrors.ErrValidation,
			message: "loanDetails.amount must be positive",
		},
		{
			name:    "unknown document",
			err:     serrors.With(serrors.ErrUnknownDocument, "document 42 not found"),
			status:  http.StatusUnprocessableEntity,
			code:    serrors.ErrUnknownDocument,
			message: "document 42 not found",
		},
		{
			name:    "wrapped cause is not leaked",
			err:     serrors.Wrap(serrors.ErrUnauthorized, errors.New("token expired"), "invalid token"),
			status:  http.StatusUnauthorized,
			code:    serrors.ErrUnauthorized,
			message: "invalid token",
		},
		{
			name:    "throttled",
			err:     serrors.KindOnly(serrors.ErrRateLimited),
			status:  http.StatusTooManyRequests,
			code:    serrors.ErrRateLimited,
			message: "too many requests",
		},
		{
			name:    "processing failure is masked",
			err:     serrors.With(serrors.ErrProcessingFailure, "engine exploded"),
			status:  http.StatusInternalServerError,
			code:    serrors.ErrInternal,
			message: "internal error",
		},
		{
			name:    "internal kind",
			err:     serrors.KindOnly(serrors.ErrInternal),
			status:  http.StatusInternalServerError,
			code:    serrors.ErrInternal,
			message: "internal error",
		},
	}

	h := v1handler.New(v1handler.Deps{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.NewError(context.Background(), tt.err)
			require.Equal(t, tt.status, res.StatusCode)
			require.Equal(t, tt.code.Error(), res.Response.Code)
			require.Equal(t, tt.message, res.Response.Message)
		})
	}
}
