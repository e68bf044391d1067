package scope

import (
	"fmt"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/google/uuid"
)

// PortalClient resolves a portal token to its client. A malformed or unknown
// token is a plain not-found.
func (s *Service) PortalClient(token string) (*model.Client, error) {
	if token == "" {
		return nil, apperr.ErrNotFound
	}
	var client model.Client
	err := s.db.Where("portal_token = ?", token).First(&client).Error
	if err != nil {
		return nil, notFoundOr(err, "resolving portal token")
	}
	return &client, nil
}

// PortalProjects lists the token holder's portal-enabled projects.
func (s *Service) PortalProjects(clientID uint) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.Where("client_id = ? AND portal_enabled = ?", clientID, true).
		Order("updated_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("listing portal projects: %w", err)
	}
	return projects, nil
}

// PortalProject authorizes a token for a single project: the token must match
// the project's client and the project must have the portal enabled. Any
// failure is a not-found, never a hint that the project exists.
func (s *Service) PortalProject(token string, projectID uint) (*model.Project, error) {
	client, err := s.PortalClient(token)
	if err != nil {
		return nil, err
	}
	var project model.Project
	err = s.db.Where("id = ? AND client_id = ? AND portal_enabled = ?", projectID, client.ID, true).
		First(&project).Error
	if err != nil {
		return nil, notFoundOr(err, "loading portal project")
	}
	return &project, nil
}

// PortalUpdates lists only the public updates of a project; private updates
// stay invisible to token holders.
func (s *Service) PortalUpdates(projectID uint) ([]model.Update, error) {
	var updates []model.Update
	err := s.db.Where("project_id = ? AND is_public = ?", projectID, true).
		Order("created_at DESC").
		Find(&updates).Error
	if err != nil {
		return nil, fmt.Errorf("listing portal updates: %w", err)
	}
	return updates, nil
}

// PortalApproval authorizes a token for an approval: the approval must hang
// off a portal-enabled project belonging to the token's client.
func (s *Service) PortalApproval(token string, approvalID uint) (*model.Approval, error) {
	client, err := s.PortalClient(token)
	if err != nil {
		return nil, err
	}
	var approval model.Approval
	err = s.db.
		Where("approvals.id = ?", approvalID).
		Where("project_id IN (?)", s.db.Model(&model.Project{}).Select("id").
			Where("client_id = ? AND portal_enabled = ?", client.ID, true)).
		First(&approval).Error
	if err != nil {
		return nil, notFoundOr(err, "loading portal approval")
	}
	return &approval, nil
}

// NewPortalToken mints the capability credential stored on a client. The
// token is generated once at creation and never rotated.
func NewPortalToken() string {
	return uuid.NewString()
}
