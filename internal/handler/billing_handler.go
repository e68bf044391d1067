package handler

import (
	"net/http"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/billing"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetSubscription returns the tenant's billing state with the effective plan
// and its limits. A tenant that never checked out reports the free tier.
func (h *Handler) GetSubscription(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	tenantID, err := pathID(c, "tenant_id")
	if err != nil {
		return fail(c, err)
	}
	if _, err := h.scope.RoleIn(user.ID, tenantID); err != nil {
		return fail(c, err)
	}

	sub, err := billing.SubscriptionForTenant(h.db, tenantID)
	if err != nil {
		log.Error("Failed to load subscription", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return fail(c, err)
	}
	plan, err := billing.PlanForTenant(h.db, tenantID)
	if err != nil {
		log.Error("Failed to resolve plan", zap.Uint("tenant_id", tenantID), zap.Error(err))
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"subscription": sub,
		"plan":         plan,
		"limits":       billing.LimitsFor(plan),
	})
}

// CreateCheckout opens a provider-hosted checkout for upgrading the tenant to
// PRO or TEAM. Only the tenant's owner may change billing.
func (h *Handler) CreateCheckout(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		TenantID uint   `json:"tenant_id"`
		Plan     string `json:"plan"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse checkout request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var priceID string
	switch req.Plan {
	case model.PlanPro:
		priceID = h.payment.ProPriceID
	case model.PlanTeam:
		priceID = h.payment.TeamPriceID
	default:
		return fail(c, apperr.Validation("plan", "must be PRO or TEAM"))
	}

	tenant, err := h.ownedTenant(user.ID, req.TenantID)
	if err != nil {
		return fail(c, err)
	}

	customerID, err := h.ensureCustomer(user, tenant)
	if err != nil {
		log.Error("Failed to ensure provider customer", zap.Uint("tenant_id", tenant.ID), zap.Error(err))
		return fail(c, err)
	}

	session, err := h.provider.CreateCheckoutSession(billing.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		TenantID:   tenant.ID,
		SuccessURL: h.payment.CheckoutSuccessURL,
		CancelURL:  h.payment.CheckoutCancelURL,
	})
	if err != nil {
		log.Error("Failed to create checkout session", zap.Uint("tenant_id", tenant.ID), zap.Error(err))
		return fail(c, err)
	}

	log.Info("Checkout session created",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("plan", req.Plan),
		zap.String("session_id", session.ID))

	return c.JSON(http.StatusOK, echo.Map{"url": session.URL})
}

// CreateBillingPortal opens the provider's self-service portal where the
// owner manages payment methods and cancellation. State changes made there
// come back through the webhook, never through this route.
func (h *Handler) CreateBillingPortal(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		TenantID uint `json:"tenant_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse billing portal request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tenant, err := h.ownedTenant(user.ID, req.TenantID)
	if err != nil {
		return fail(c, err)
	}

	customerID, err := h.ensureCustomer(user, tenant)
	if err != nil {
		log.Error("Failed to ensure provider customer", zap.Uint("tenant_id", tenant.ID), zap.Error(err))
		return fail(c, err)
	}

	session, err := h.provider.CreatePortalSession(customerID, h.payment.PortalReturnURL)
	if err != nil {
		log.Error("Failed to create billing portal session", zap.Uint("tenant_id", tenant.ID), zap.Error(err))
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"url": session.URL})
}

// ownedTenant loads a tenant the user owns. Members get 403; non-members are
// indistinguishable from missing tenants.
func (h *Handler) ownedTenant(userID, tenantID uint) (*model.Tenant, error) {
	role, err := h.scope.RoleIn(userID, tenantID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleOwner {
		return nil, apperr.ErrForbidden
	}

	var tenant model.Tenant
	if err := h.db.First(&tenant, tenantID).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ensureCustomer resolves the tenant's provider customer, creating one on
// first use and persisting its id on the tenant row.
func (h *Handler) ensureCustomer(user *model.User, tenant *model.Tenant) (string, error) {
	if tenant.ProviderCustomerID != "" {
		return tenant.ProviderCustomerID, nil
	}

	customerID, err := h.provider.EnsureCustomer(user.Email, user.Name, tenant.ID)
	if err != nil {
		return "", err
	}

	if err := h.db.Model(tenant).Update("provider_customer_id", customerID).Error; err != nil {
		return "", err
	}
	tenant.ProviderCustomerID = customerID
	return customerID, nil
}
