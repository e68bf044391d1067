// Package scope resolves principals and portal tokens to the tenant
// resources they may touch. Every resolver returns apperr.ErrNotFound for
// both "does not exist" and "not yours", so callers cannot distinguish the
// two and probe for existence.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TESCHEL/clienthub/internal/apperr"
	"github.com/TESCHEL/clienthub/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service makes tenant-scoping decisions over the shared store. It performs
// no writes except the first-login tenant bootstrap in EnsureTenantFor.
type Service struct {
	db *gorm.DB
}

// NewService creates a scope service backed by db.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// EnsureTenantFor resolves the identity-provider subject to a user and
// guarantees at least one membership exists. A subject seen for the first
// time gets a user row; a user with zero memberships gets a fresh tenant and
// an owner membership, created together in one transaction. This is the only
// implicit write the scope layer performs, and it is invoked once at session
// bootstrap rather than hidden inside lookups.
func (s *Service) EnsureTenantFor(subjectID, email, name string) (*model.User, *model.Tenant, bool, error) {
	if subjectID == "" {
		return nil, nil, false, apperr.ErrForbidden
	}

	var user model.User
	err := s.db.Where("subject_id = ?", subjectID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = model.User{SubjectID: subjectID, Email: email, Name: name}
		if err := s.db.Create(&user).Error; err != nil {
			// A concurrent first request may have won the race on the
			// subject_id unique index; re-read before giving up.
			if rerr := s.db.Where("subject_id = ?", subjectID).First(&user).Error; rerr != nil {
				return nil, nil, false, fmt.Errorf("creating user: %w", err)
			}
		}
	} else if err != nil {
		return nil, nil, false, fmt.Errorf("resolving subject: %w", err)
	}

	var membership model.Membership
	err = s.db.Where("user_id = ?", user.ID).Order("id").First(&membership).Error
	if err == nil {
		var tenant model.Tenant
		if err := s.db.First(&tenant, membership.TenantID).Error; err != nil {
			return nil, nil, false, fmt.Errorf("loading tenant: %w", err)
		}
		return &user, &tenant, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, false, fmt.Errorf("loading membership: %w", err)
	}

	tenant := model.Tenant{
		Name: defaultTenantName(name, email),
	}
	tenant.Slug = slugify(tenant.Name) + "-" + uuid.New().String()[:8]

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		return tx.Create(&model.Membership{
			UserID:   user.ID,
			TenantID: tenant.ID,
			Role:     model.RoleOwner,
		}).Error
	})
	if err != nil {
		return nil, nil, false, fmt.Errorf("bootstrapping tenant: %w", err)
	}

	return &user, &tenant, true, nil
}

// PrincipalBySubject resolves an already-provisioned principal. Unknown
// subjects are a DENY, not an error the caller can distinguish further.
func (s *Service) PrincipalBySubject(subjectID string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("subject_id = ?", subjectID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrForbidden
		}
		return nil, fmt.Errorf("resolving subject: %w", err)
	}
	return &user, nil
}

// TenantIDs returns the set of tenants the user belongs to.
func (s *Service) TenantIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&model.Membership{}).
		Where("user_id = ?", userID).
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	return ids, nil
}

// Authorize reports whether the user is a member of the tenant.
func (s *Service) Authorize(userID, tenantID uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.Membership{}).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return count > 0, nil
}

// RoleIn returns the user's role in the tenant, or ErrForbidden if the user
// is not a member.
func (s *Service) RoleIn(userID, tenantID uint) (string, error) {
	var membership model.Membership
	err := s.db.Where("user_id = ? AND tenant_id = ?", userID, tenantID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.ErrForbidden
		}
		return "", fmt.Errorf("loading membership: %w", err)
	}
	return membership.Role, nil
}

// memberTenants is a subquery of the user's tenant ids, used to scope every
// resource lookup.
func (s *Service) memberTenants(userID uint) *gorm.DB {
	return s.db.Model(&model.Membership{}).Select("tenant_id").Where("user_id = ?", userID)
}

// ClientForUser returns the client if it belongs to one of the user's tenants.
func (s *Service) ClientForUser(userID, clientID uint) (*model.Client, error) {
	var client model.Client
	err := s.db.Where("id = ? AND tenant_id IN (?)", clientID, s.memberTenants(userID)).
		First(&client).Error
	if err != nil {
		return nil, notFoundOr(err, "loading client")
	}
	return &client, nil
}

// ProjectForUser returns the project if it belongs to one of the user's
// tenants. The denormalized tenant id on projects keeps this a single lookup.
func (s *Service) ProjectForUser(userID, projectID uint) (*model.Project, error) {
	var project model.Project
	err := s.db.Where("id = ? AND tenant_id IN (?)", projectID, s.memberTenants(userID)).
		First(&project).Error
	if err != nil {
		return nil, notFoundOr(err, "loading project")
	}
	return &project, nil
}

// UpdateForUser walks update -> project -> tenant.
func (s *Service) UpdateForUser(userID, updateID uint) (*model.Update, error) {
	var update model.Update
	err := s.db.
		Where("updates.id = ?", updateID).
		Where("project_id IN (?)", s.memberProjects(userID)).
		First(&update).Error
	if err != nil {
		return nil, notFoundOr(err, "loading update")
	}
	return &update, nil
}

// ChecklistItemForUser walks item -> project -> tenant.
func (s *Service) ChecklistItemForUser(userID, itemID uint) (*model.ChecklistItem, error) {
	var item model.ChecklistItem
	err := s.db.
		Where("checklist_items.id = ?", itemID).
		Where("project_id IN (?)", s.memberProjects(userID)).
		First(&item).Error
	if err != nil {
		return nil, notFoundOr(err, "loading checklist item")
	}
	return &item, nil
}

// FileForUser walks file -> project -> tenant.
func (s *Service) FileForUser(userID, fileID uint) (*model.File, error) {
	var file model.File
	err := s.db.
		Where("files.id = ?", fileID).
		Where("project_id IN (?)", s.memberProjects(userID)).
		First(&file).Error
	if err != nil {
		return nil, notFoundOr(err, "loading file")
	}
	return &file, nil
}

// ApprovalForUser walks approval -> project -> tenant.
func (s *Service) ApprovalForUser(userID, approvalID uint) (*model.Approval, error) {
	var approval model.Approval
	err := s.db.
		Where("approvals.id = ?", approvalID).
		Where("project_id IN (?)", s.memberProjects(userID)).
		First(&approval).Error
	if err != nil {
		return nil, notFoundOr(err, "loading approval")
	}
	return &approval, nil
}

func (s *Service) memberProjects(userID uint) *gorm.DB {
	return s.db.Model(&model.Project{}).Select("id").
		Where("tenant_id IN (?)", s.memberTenants(userID))
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func defaultTenantName(name, email string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			base = email[:at]
		} else {
			base = "workspace"
		}
	}
	return base + "'s Workspace"
}

// slugify lowercases and strips the tenant name down to url-safe characters.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "workspace"
	}
	return slug
}
