package handler

import (
	"net/http"
	"strconv"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/approval"
	"github.com/TESCHEL/clienthub/internal/billing"
	"github.com/TESCHEL/clienthub/internal/middleware"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/internal/scope"
	"github.com/TESCHEL/clienthub/pkg/config"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Handler carries the service dependencies shared by all route handlers.
type Handler struct {
	db         *gorm.DB
	scope      *scope.Service
	approvals  *approval.Workflow
	reconciler *billing.Reconciler
	provider   billing.Provider
	payment    *config.PaymentConfig
}

// New wires the route handlers over the store and the payment provider.
func New(db *gorm.DB, provider billing.Provider, payment *config.PaymentConfig) *Handler {
	return &Handler{
		db:         db,
		scope:      scope.NewService(db),
		approvals:  approval.NewWorkflow(db),
		reconciler: billing.NewReconciler(db, provider, payment),
		provider:   provider,
		payment:    payment,
	}
}

// principal resolves the authenticated request to a provisioned user.
func (h *Handler) principal(c echo.Context) (*model.User, error) {
	claims, ok := middleware.IdentityFromContext(c)
	if !ok {
		return nil, apperr.ErrForbidden
	}
	return h.scope.PrincipalBySubject(claims.Subject)
}

// fail maps a core error onto its HTTP response.
func fail(c echo.Context, err error) error {
	return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
}

// pathID parses a numeric :id style path parameter.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperr.Validation(name, "must be a numeric id")
	}
	return uint(id), nil
}

// Hello returns a simple welcome message
func Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Welcome to ClientHub API",
		"version": "1.0.0",
	})
}
