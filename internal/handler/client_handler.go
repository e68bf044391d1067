package handler

import (
	"net/http"
	"strings"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/internal/scope"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/TESCHEL/clienthub/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateClient handles client creation for a tenant the principal belongs to.
// The portal token is minted here and never changes afterwards.
func (h *Handler) CreateClient(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Company  string `json:"company"`
		Phone    string `json:"phone"`
		TenantID uint   `json:"tenant_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse client creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Name) == "" {
		return fail(c, apperr.Validation("name", "is required"))
	}
	if !strings.Contains(req.Email, "@") {
		return fail(c, apperr.Validation("email", "must be a valid email address"))
	}

	allowed, err := h.scope.Authorize(user.ID, req.TenantID)
	if err != nil {
		log.Error("Failed to check membership", zap.Error(err))
		return fail(c, err)
	}
	if !allowed {
		return fail(c, apperr.ErrForbidden)
	}

	client := model.Client{
		TenantID:    req.TenantID,
		Name:        req.Name,
		Email:       req.Email,
		Company:     req.Company,
		Phone:       req.Phone,
		PortalToken: scope.NewPortalToken(),
	}
	if result := h.db.Create(&client); result.Error != nil {
		log.Error("Failed to create client", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "client creation failed"})
	}

	prometheus.ClientCreateCounter.Inc()
	log.Info("Client created",
		zap.Uint("id", client.ID),
		zap.Uint("tenant_id", client.TenantID),
		zap.String("name", client.Name))

	return c.JSON(http.StatusCreated, client)
}

// ListClients retrieves every client across the principal's tenants.
func (h *Handler) ListClients(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	tenantIDs, err := h.scope.TenantIDs(user.ID)
	if err != nil {
		log.Error("Failed to list memberships", zap.Error(err))
		return fail(c, err)
	}

	var clients []model.Client
	if result := h.db.Where("tenant_id IN ?", tenantIDs).Order("created_at DESC").Find(&clients); result.Error != nil {
		log.Error("Failed to retrieve clients", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve clients"})
	}

	return c.JSON(http.StatusOK, clients)
}

// GetClient retrieves one client with its projects.
func (h *Handler) GetClient(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	client, err := h.scope.ClientForUser(user.ID, id)
	if err != nil {
		return fail(c, err)
	}

	var projects []model.Project
	if result := h.db.Where("client_id = ?", client.ID).Order("updated_at DESC").Find(&projects); result.Error != nil {
		log.Error("Failed to retrieve client projects", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve projects"})
	}
	client.Projects = projects

	return c.JSON(http.StatusOK, client)
}
