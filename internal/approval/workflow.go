// Package approval implements the approval lifecycle: a request starts
// PENDING and moves exactly once to one of the terminal states. There is no
// edge back to PENDING and no re-request; a new approval must be created
// instead.
package approval

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/model"
	"gorm.io/gorm"
)

// Workflow manages approval state against the shared store.
type Workflow struct {
	db *gorm.DB
}

// NewWorkflow creates an approval workflow backed by db.
func NewWorkflow(db *gorm.DB) *Workflow {
	return &Workflow{db: db}
}

// Create opens a new PENDING approval on the project. The caller must have
// already authorized the principal for the project.
func (w *Workflow) Create(projectID, requestedByID uint, title, description string) (*model.Approval, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validation("title", "is required")
	}

	approval := model.Approval{
		ProjectID:     projectID,
		RequestedByID: requestedByID,
		Title:         title,
		Description:   description,
		Status:        model.ApprovalPending,
	}
	if err := w.db.Create(&approval).Error; err != nil {
		return nil, fmt.Errorf("creating approval: %w", err)
	}
	return &approval, nil
}

// Respond records the terminal decision for a PENDING approval. The state
// check and the write are a single conditional UPDATE guarded on the PENDING
// status, so two concurrent responses can never both win: the loser's update
// matches zero rows and surfaces as ErrAlreadyResponded. The original
// decision is preserved, never overwritten.
func (w *Workflow) Respond(approvalID uint, status, feedback string) (*model.Approval, error) {
	if !model.ValidApprovalResponse(status) {
		return nil, apperr.Validation("status", "must be APPROVED, REJECTED or CHANGES_REQUESTED")
	}

	now := time.Now().UTC()
	res := w.db.Model(&model.Approval{}).
		Where("id = ? AND status = ?", approvalID, model.ApprovalPending).
		Updates(map[string]interface{}{
			"status":       status,
			"feedback":     feedback,
			"responded_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("responding to approval: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// Either the approval does not exist or it already left PENDING.
		var existing model.Approval
		err := w.db.First(&existing, approvalID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("loading approval: %w", err)
		}
		return nil, apperr.ErrAlreadyResponded
	}

	var approval model.Approval
	if err := w.db.First(&approval, approvalID).Error; err != nil {
		return nil, fmt.Errorf("loading approval: %w", err)
	}
	return &approval, nil
}
