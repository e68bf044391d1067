package handler

import (
	"net/http"

	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/TESCHEL/clienthub/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateApproval opens a PENDING approval on a project the principal can
// reach.
func (h *Handler) CreateApproval(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ProjectID   uint   `json:"project_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse approval creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	project, err := h.scope.ProjectForUser(user.ID, req.ProjectID)
	if err != nil {
		return fail(c, err)
	}

	approval, err := h.approvals.Create(project.ID, user.ID, req.Title, req.Description)
	if err != nil {
		return fail(c, err)
	}

	log.Info("Approval requested",
		zap.Uint("id", approval.ID),
		zap.Uint("project_id", approval.ProjectID))

	return c.JSON(http.StatusCreated, approval)
}

// RespondApproval records a decision from inside the dashboard. The portal
// variant lives on the portal routes; both share the same single-response
// workflow underneath.
func (h *Handler) RespondApproval(c echo.Context) error {
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
		Status   string `json:"status"`
		Feedback string `json:"feedback"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse approval response request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if _, err := h.scope.ApprovalForUser(user.ID, id); err != nil {
		return fail(c, err)
	}

	approval, err := h.approvals.Respond(id, req.Status, req.Feedback)
	if err != nil {
		// Already-responded is an expected outcome, not a failure.
		log.Info("Approval response rejected", zap.Uint("id", id), zap.Error(err))
		return fail(c, err)
	}

	prometheus.ApprovalRespondCounter.WithLabelValues(approval.Status).Inc()
	log.Info("Approval responded",
		zap.Uint("id", approval.ID),
		zap.String("status", approval.Status))

	return c.JSON(http.StatusOK, approval)
}
