package handler

import (
	"net/http"

	"github.com/TESCHEL/clienthub/internal/middleware"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/TESCHEL/clienthub/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Me is the session bootstrap. A subject seen for the first time is
// provisioned with a fresh tenant and an owner membership here, and nowhere
// else; every other route expects the principal to exist already.
func (h *Handler) Me(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.IdentityFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	user, tenant, created, err := h.scope.EnsureTenantFor(claims.Subject, claims.Email, claims.Name)
	if err != nil {
		log.Error("Failed to bootstrap session", zap.String("subject", claims.Subject), zap.Error(err))
		return fail(c, err)
	}

	if created {
		prometheus.TenantBootstrapCounter.Inc()
		log.Info("Provisioned tenant for first login",
			zap.Uint("user_id", user.ID),
			zap.Uint("tenant_id", tenant.ID),
			zap.String("slug", tenant.Slug))
	}

	tenantIDs, err := h.scope.TenantIDs(user.ID)
	if err != nil {
		log.Error("Failed to list memberships", zap.Uint("user_id", user.ID), zap.Error(err))
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":       user,
		"tenant":     tenant,
		"tenant_ids": tenantIDs,
	})
}
