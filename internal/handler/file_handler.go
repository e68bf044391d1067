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
)

// CreateFile records the metadata tuple the upload provider returned after an
// out-of-band upload. The bytes never pass through this service.
func (h *Handler) CreateFile(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	var req struct {
		Name      string `json:"name"`
		URL       string `json:"url"`
		Key       string `json:"key"`
		Size      int64  `json:"size"`
		MimeType  string `json:"mime_type"`
		ProjectID uint   `json:"project_id"`
		UpdateID  *uint  `json:"update_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse file record request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Name) == "" {
		return fail(c, apperr.Validation("name", "is required"))
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		return fail(c, apperr.Validation("url", "must be a valid URL"))
	}
	if req.Key == "" {
		return fail(c, apperr.Validation("key", "is required"))
	}

	project, err := h.scope.ProjectForUser(user.ID, req.ProjectID)
	if err != nil {
		return fail(c, err)
	}

	if req.UpdateID != nil {
		if _, err := h.scope.UpdateForUser(user.ID, *req.UpdateID); err != nil {
			return fail(c, err)
		}
	}

	if err := billing.CheckFileQuota(h.db, project.TenantID, project.ID, req.Size); err != nil {
		if apperr.HTTPStatus(err) == http.StatusForbidden {
			prometheus.EntitlementDeniedCounter.WithLabelValues("files").Inc()
			log.Warn("File record denied by plan limit", zap.Uint("tenant_id", project.TenantID))
		}
		return fail(c, err)
	}

	file := model.File{
		ProjectID:  project.ID,
		UpdateID:   req.UpdateID,
		UploaderID: user.ID,
		Name:       req.Name,
		URL:        req.URL,
		Key:        req.Key,
		Size:       req.Size,
		MimeType:   req.MimeType,
	}
	if result := h.db.Create(&file); result.Error != nil {
		log.Error("Failed to record file", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "file record failed"})
	}

	log.Info("File recorded",
		zap.Uint("id", file.ID),
		zap.Uint("project_id", file.ProjectID),
		zap.Int64("size", file.Size))

	return c.JSON(http.StatusCreated, file)
}

// DeleteFile removes the file record. Deleting the stored bytes is the
// upload provider's concern.
func (h *Handler) DeleteFile(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.principal(c)
	if err != nil {
		return fail(c, err)
	}

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	file, err := h.scope.FileForUser(user.ID, id)
	if err != nil {
		return fail(c, err)
	}

	if result := h.db.Delete(file); result.Error != nil {
		log.Error("Failed to delete file", zap.Uint("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "file deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
