package middleware

import (
	"net/http"
	"strings"

	"github.com/TESCHEL/clienthub/pkg/jwtutil"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// identityKey is the echo context key holding the verified identity claims.
const identityKey = "identity"

// JWTAuthMiddleware validates the identity provider's bearer token and puts
// the verified claims on the context. It authenticates only; tenant
// authorization happens in the scope layer per request.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(identityKey, claims)
			log.Debug("Identity token validated",
				zap.String("subject", claims.Subject),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// IdentityFromContext returns the verified claims set by JWTAuthMiddleware.
func IdentityFromContext(c echo.Context) (*jwtutil.IdentityClaims, bool) {
	claims, ok := c.Get(identityKey).(*jwtutil.IdentityClaims)
	return claims, ok
}
