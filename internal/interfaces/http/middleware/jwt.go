package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	OwnerIDKey    = "owner_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier validates a bearer token
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and exposes the
// owner ID to handlers and the request logger
func JWTAuth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid authorization header format")
			return
		}

		claims, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			log.Debug("JWT authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			code, message := authErrorCode(err)
			abortUnauthorized(c, code, message)
			return
		}

		ownerID := claims.OwnerID()
		c.Set(JWTClaimsKey, claims)
		c.Set(OwnerIDKey, ownerID)
		c.Request = c.Request.WithContext(logger.WithOwnerID(c.Request.Context(), ownerID))
		c.Next()
	}
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingOwner):
		return dto.ErrCodeTokenInvalid, "Token does not identify a user"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, GetRequestID(c)))
}

// GetOwnerID returns the authenticated owner, or "" on public routes
func GetOwnerID(c *gin.Context) string {
	return c.GetString(OwnerIDKey)
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}
