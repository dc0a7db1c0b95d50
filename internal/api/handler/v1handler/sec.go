package v1handler

import (
	"context"
	"crypto/rsa"
	"fmt"
	"lending/internal/config"
	"lending/pkg/domain"
	"lending/pkg/logger"
	"lending/pkg/serrors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey string

// UserIDKey is the context key holding the authenticated domain.UserID.
const UserIDKey ctxKey = "UserID"

// GetUserIDFromContext returns the authenticated user. It is the zero ID when
// the request was not authenticated.
func GetUserIDFromContext(ctx context.Context) domain.UserID {
	id, _ := ctx.Value(UserIDKey).(domain.UserID)

	return id
}

// BearerAuth is the token sent in the Authorization header.
type BearerAuth struct {
	Token string
}

// SecHandlerOptions configures bearer token verification.
type SecHandlerOptions struct {
	// PublicKey is the PEM encoded RSA public key of the identity service.
	PublicKey string
}

func NewSecHandlerOptions(cfg *config.Config) *SecHandlerOptions {
	return &SecHandlerOptions{PublicKey: cfg.JWT.PublicKey}
}

// SecHandler verifies RS256 bearer tokens whose subject is the user ID.
type SecHandler struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

func NewSecHandler(options *SecHandlerOptions) (*SecHandler, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(options.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not parse RSA public key: %w", err)
	}

	return &SecHandler{
		key: key,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// HandleBearerAuth verifies t and stores the subject in the returned context
// under UserIDKey.
func (s *SecHandler) HandleBearerAuth(ctx context.Context,
	operationName string,
	t BearerAuth) (context.Context, error) {
	var claims jwt.RegisteredClaims
	if _, err := s.parser.ParseWithClaims(t.Token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}); err != nil {
		logger.Debug(ctx, "Invalid bearer token", zap.String("operation", operationName), zap.Error(err))

		return ctx, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token subject")
	}

	return context.WithValue(ctx, UserIDKey, domain.UserID(id)), nil
}

// Authenticate returns a gin middleware rejecting requests without a valid
// bearer token.
func (h *Handler) Authenticate(s *SecHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			h.abort(c, serrors.With(serrors.ErrUnauthorized, "missing bearer token"))

			return
		}

		ctx, err := s.HandleBearerAuth(c.Request.Context(), c.FullPath(), BearerAuth{Token: token})
		if err != nil {
			h.abort(c, err)

			return
		}

		c.Request = c.Request.WithContext(logger.WithFields(ctx, zap.Stringer("userID", GetUserIDFromContext(ctx))))
		c.Next()
	}
}
