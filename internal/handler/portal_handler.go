package handler

import (
	"net/http"

	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/TESCHEL/clienthub/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PortalOverview resolves a portal token to the client and its
// portal-enabled projects with checklist progress. No principal or session
// is involved; the token is the whole credential, and a bad token is a plain
// not-found.
func (h *Handler) PortalOverview(c echo.Context) error {
	log := logger.FromEcho(c)

	client, err := h.scope.PortalClient(c.Param("token"))
	if err != nil {
		return fail(c, err)
	}

	projects, err := h.scope.PortalProjects(client.ID)
	if err != nil {
		log.Error("Failed to list portal projects", zap.Uint("client_id", client.ID), zap.Error(err))
		return fail(c, err)
	}

	type portalProject struct {
		model.Project
		ChecklistTotal     int64 `json:"checklist_total"`
		ChecklistCompleted int64 `json:"checklist_completed"`
	}

	out := make([]portalProject, 0, len(projects))
	for _, p := range projects {
		pp := portalProject{Project: p}
		if err := h.db.Model(&model.ChecklistItem{}).Where("project_id = ?", p.ID).Count(&pp.ChecklistTotal).Error; err != nil {
			log.Error("Failed to count checklist items", zap.Uint("project_id", p.ID), zap.Error(err))
			return fail(c, err)
		}
		if err := h.db.Model(&model.ChecklistItem{}).Where("project_id = ? AND completed = ?", p.ID, true).Count(&pp.ChecklistCompleted).Error; err != nil {
			log.Error("Failed to count completed checklist items", zap.Uint("project_id", p.ID), zap.Error(err))
			return fail(c, err)
		}
		out = append(out, pp)
	}

	prometheus.PortalViewCounter.Inc()

	return c.JSON(http.StatusOK, echo.Map{
		"client": echo.Map{
			"name":    client.Name,
			"company": client.Company,
		},
		"projects": out,
	})
}

// PortalProject shows one portal-enabled project to a token holder: public
// updates only, plus files, approvals and the ordered checklist.
func (h *Handler) PortalProject(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	project, err := h.scope.PortalProject(c.Param("token"), id)
	if err != nil {
		return fail(c, err)
	}

	updates, err := h.scope.PortalUpdates(project.ID)
	if err != nil {
		log.Error("Failed to list portal updates", zap.Uint("project_id", project.ID), zap.Error(err))
		return fail(c, err)
	}

	var files []model.File
	if err := h.db.Where("project_id = ?", project.ID).Order("created_at DESC").Find(&files).Error; err != nil {
		log.Error("Failed to list portal files", zap.Uint("project_id", project.ID), zap.Error(err))
		return fail(c, err)
	}

	var approvals []model.Approval
	if err := h.db.Where("project_id = ?", project.ID).Order("created_at DESC").Find(&approvals).Error; err != nil {
		log.Error("Failed to list portal approvals", zap.Uint("project_id", project.ID), zap.Error(err))
		return fail(c, err)
	}

	var checklist []model.ChecklistItem
	if err := h.db.Where("project_id = ?", project.ID).Order("sort_order ASC").Find(&checklist).Error; err != nil {
		log.Error("Failed to list portal checklist", zap.Uint("project_id", project.ID), zap.Error(err))
		return fail(c, err)
	}

	prometheus.PortalViewCounter.Inc()

	return c.JSON(http.StatusOK, echo.Map{
		"project":         project,
		"updates":         updates,
		"files":           files,
		"approvals":       approvals,
		"checklist_items": checklist,
	})
}

// PortalRespondApproval records a decision from the client portal. The
// capability token is the only credential; the approval must hang off a
// portal-enabled project belonging to the token's client.
func (h *Handler) PortalRespondApproval(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Status   string `json:"status"`
		Feedback string `json:"feedback"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse portal approval response", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if _, err := h.scope.PortalApproval(c.Param("token"), id); err != nil {
		return fail(c, err)
	}

	approval, err := h.approvals.Respond(id, req.Status, req.Feedback)
	if err != nil {
		log.Info("Portal approval response rejected", zap.Uint("id", id), zap.Error(err))
		return fail(c, err)
	}

	prometheus.ApprovalRespondCounter.WithLabelValues(approval.Status).Inc()
	log.Info("Approval responded via portal",
		zap.Uint("id", approval.ID),
		zap.String("status", approval.Status))

	return c.JSON(http.StatusOK, approval)
}
