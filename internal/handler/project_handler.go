package handler

import (
	"net/http"
	"strings"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/billing"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/TESCHEL/clienthub/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateProject handles project creation under a client. The tenant id is
// denormalized from the client, never taken from the request.
func (h *Handler) CreateProject(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ClientID    uint   `json:"client_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse project creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Name) == "" {
		return fail(c, apperr.Validation("name", "is required"))
	}

	client, err := h.scope.ClientForUser(user.ID, req.ClientID)
	if err != nil {
		return fail(c, err)
	}

	if err := billing.CheckProjectQuota(h.db, client.TenantID); err != nil {
		if apperr.HTTPStatus(err) == http.StatusForbidden {
			prometheus.EntitlementDeniedCounter.WithLabelValues("projects").Inc()
			log.Warn("Project creation denied by plan limit", zap.Uint("tenant_id", client.TenantID))
		}
		return fail(c, err)
	}

	project := model.Project{
		ClientID:    client.ID,
		TenantID:    client.TenantID,
		Name:        req.Name,
		Description: req.Description,
		Status:      model.ProjectActive,
	}
	if result := h.db.Create(&project); result.Error != nil {
		log.Error("Failed to create project", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "project creation failed"})
	}

	prometheus.ProjectCreateCounter.Inc()
	log.Info("Project created",
		zap.Uint("id", project.ID),
		zap.Uint("client_id", project.ClientID),
		zap.Uint("tenant_id", project.TenantID))

	return c.JSON(http.StatusCreated, project)
}

// ListProjects retrieves every project across the principal's tenants.
func (h *Handler) ListProjects(c echo.Context) error {
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

	var projects []model.Project
	result := h.db.Where("tenant_id IN ?", tenantIDs).
		Preload("Client").
		Order("updated_at DESC").
		Find(&projects)
	if result.Error != nil {
		log.Error("Failed to retrieve projects", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve projects"})
	}

	return c.JSON(http.StatusOK, projects)
}

// GetProject retrieves one project with its client, updates, files,
// approvals and ordered checklist.
func (h *Handler) GetProject(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	if _, err := h.scope.ProjectForUser(user.ID, id); err != nil {
		return fail(c, err)
	}

	var project model.Project
	result := h.db.
		Preload("Client").
		Preload("Updates", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Updates.Author").
		Preload("Updates.Files").
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("ChecklistItems", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&project, id)
	if result.Error != nil {
		log.Error("Failed to load project", zap.Uint("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve project"})
	}

	return c.JSON(http.StatusOK, project)
}

// UpdateProject patches name, description, status and the portal flag.
func (h *Handler) UpdateProject(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Name          *string `json:"name"`
		Description   *string `json:"description"`
		Status        *string `json:"status"`
		PortalEnabled *bool   `json:"portal_enabled"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse project update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	project, err := h.scope.ProjectForUser(user.ID, id)
	if err != nil {
		return fail(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return fail(c, apperr.Validation("name", "is required"))
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		if !model.ValidProjectStatus(*req.Status) {
			return fail(c, apperr.Validation("status", "must be ACTIVE, ON_HOLD, COMPLETED or ARCHIVED"))
		}
		updates["status"] = *req.Status
	}
	if req.PortalEnabled != nil {
		updates["portal_enabled"] = *req.PortalEnabled
	}

	if len(updates) > 0 {
		if result := h.db.Model(project).Updates(updates); result.Error != nil {
			log.Error("Failed to update project", zap.Uint("id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "project update failed"})
		}
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject removes a project and everything it owns. The store uses
// soft deletes, so the cascade is explicit: children first, then the parent,
// all in one transaction.
func (h *Handler) DeleteProject(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	project, err := h.scope.ProjectForUser(user.ID, id)
	if err != nil {
		return fail(c, err)
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{
			&model.Approval{}, &model.ChecklistItem{}, &model.File{}, &model.Update{},
		} {
			if err := tx.Where("project_id = ?", project.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		log.Error("Failed to delete project", zap.Uint("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "project deletion failed"})
	}

	log.Info("Project deleted", zap.Uint("id", id), zap.Uint("tenant_id", project.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
