package handler

import (
	"net/http"
	"strings"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/TESCHEL/clienthub/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateChecklistItem adds a task to a project's checklist.
func (h *Handler) CreateChecklistItem(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		ProjectID uint   `json:"project_id"`
		Text      string `json:"text"`
		SortOrder int    `json:"sort_order"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse checklist creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Text) == "" {
		return fail(c, apperr.Validation("text", "is required"))
	}

	project, err := h.scope.ProjectForUser(user.ID, req.ProjectID)
	if err != nil {
		return fail(c, err)
	}

	item := model.ChecklistItem{
		ProjectID: project.ID,
		Text:      req.Text,
		SortOrder: req.SortOrder,
	}
	if result := h.db.Create(&item); result.Error != nil {
		log.Error("Failed to create checklist item", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checklist item creation failed"})
	}

	return c.JSON(http.StatusCreated, item)
}

// UpdateChecklistItem patches text, completion and sort order.
func (h *Handler) UpdateChecklistItem(c echo.Context) error {
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
		Text      *string `json:"text"`
		Completed *bool   `json:"completed"`
		SortOrder *int    `json:"sort_order"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse checklist update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	item, err := h.scope.ChecklistItemForUser(user.ID, id)
	if err != nil {
		return fail(c, err)
	}

	updates := map[string]interface{}{}
	if req.Text != nil {
		if strings.TrimSpace(*req.Text) == "" {
			return fail(c, apperr.Validation("text", "is required"))
		}
		updates["text"] = *req.Text
	}
	if req.Completed != nil {
		updates["completed"] = *req.Completed
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if len(updates) > 0 {
		if result := h.db.Model(item).Updates(updates); result.Error != nil {
			log.Error("Failed to update checklist item", zap.Uint("id", id), zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checklist item update failed"})
		}
	}

	return c.JSON(http.StatusOK, item)
}

// DeleteChecklistItem removes a task.
func (h *Handler) DeleteChecklistItem(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	item, err := h.scope.ChecklistItemForUser(user.ID, id)
	if err != nil {
		return fail(c, err)
	}

	if result := h.db.Delete(item); result.Error != nil {
		log.Error("Failed to delete checklist item", zap.Uint("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checklist item deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
