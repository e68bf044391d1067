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

// CreateUpdate posts a progress update on a project. IsPublic defaults to
// true; private updates never reach the portal.
func (h *Handler) CreateUpdate(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Title     string `json:"title"`
		Content   string `json:"content"`
		ProjectID uint   `json:"project_id"`
		IsPublic  *bool  `json:"is_public"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse update creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Title) == "" {
		return fail(c, apperr.Validation("title", "is required"))
	}
	if strings.TrimSpace(req.Content) == "" {
		return fail(c, apperr.Validation("content", "is required"))
	}

	project, err := h.scope.ProjectForUser(user.ID, req.ProjectID)
	if err != nil {
		return fail(c, err)
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	update := model.Update{
		ProjectID: project.ID,
		AuthorID:  user.ID,
		Title:     req.Title,
		Content:   req.Content,
		IsPublic:  isPublic,
	}
	if result := h.db.Create(&update); result.Error != nil {
		log.Error("Failed to create update", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update creation failed"})
	}

	log.Info("Update posted",
		zap.Uint("id", update.ID),
		zap.Uint("project_id", update.ProjectID),
		zap.Bool("is_public", update.IsPublic))

	return c.JSON(http.StatusCreated, update)
}
