package billing

import (
	"errors"
	"fmt"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/model"
	"gorm.io/gorm"
)

// PlanForTenant returns the tenant's effective plan: the subscription's plan
// while its status is ACTIVE, FREE otherwise (no subscription, past due or
// canceled).
func PlanForTenant(db *gorm.DB, tenantID uint) (string, error) {
	var sub model.Subscription
	err := db.Where("tenant_id = ?", tenantID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PlanFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("loading subscription: %w", err)
	}
	if sub.Status != model.SubscriptionActive {
		return model.PlanFree, nil
	}
	return sub.Plan, nil
}

// SubscriptionForTenant returns the tenant's subscription row, or nil when
// none exists yet.
func SubscriptionForTenant(db *gorm.DB, tenantID uint) (*model.Subscription, error) {
	var sub model.Subscription
	err := db.Where("tenant_id = ?", tenantID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading subscription: %w", err)
	}
	return &sub, nil
}

// CheckProjectQuota rejects project creation once the tenant's plan limit is
// reached.
func CheckProjectQuota(db *gorm.DB, tenantID uint) error {
	plan, err := PlanForTenant(db, tenantID)
	if err != nil {
		return err
	}
	limits := LimitsFor(plan)

	var count int64
	if err := db.Model(&model.Project{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
		return fmt.Errorf("counting projects: %w", err)
	}
	if !withinLimit(count, limits.MaxProjects) {
		return fmt.Errorf("project limit for plan %s reached: %w", plan, apperr.ErrForbidden)
	}
	return nil
}

// CheckFileQuota rejects file records that exceed the plan's per-project
// count or per-file size limits.
func CheckFileQuota(db *gorm.DB, tenantID, projectID uint, size int64) error {
	plan, err := PlanForTenant(db, tenantID)
	if err != nil {
		return err
	}
	limits := LimitsFor(plan)

	if limits.MaxFileSize > 0 && size > limits.MaxFileSize {
		return apperr.Validation("size", fmt.Sprintf("exceeds the %d byte limit for plan %s", limits.MaxFileSize, plan))
	}

	var count int64
	if err := db.Model(&model.File{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return fmt.Errorf("counting files: %w", err)
	}
	if !withinLimit(count, limits.MaxFilesPerProject) {
		return fmt.Errorf("file limit for plan %s reached: %w", plan, apperr.ErrForbidden)
	}
	return nil
}
