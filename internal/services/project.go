package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/codehivehq/codehive/backend/internal/apperr"
	"github.com/codehivehq/codehive/backend/internal/authz"
	"github.com/codehivehq/codehive/backend/internal/models"
	"gorm.io/gorm"
)

// ProjectService orchestrates authz decisions with membership storage. Every
// mutation follows snapshot-then-decide-then-write under a per-project lock,
// so a decision is never applied against stale membership state. All writes
// to project_members go through this service; no other code path touches the
// table.
type ProjectService struct {
	db    *gorm.DB
	users *UserService
	locks *projectLocks
}

func NewProjectService(db *gorm.DB, users *UserService) *ProjectService {
	return &ProjectService{
		db:    db,
		users: users,
		locks: newProjectLocks(),
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// MemberCandidate is one user to add, with an optional role (defaults to
// member).
type MemberCandidate struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

// normalizeName lowercases and trims a project name and checks its length.
func normalizeName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if l := utf8.RuneCountInString(n); l < 2 || l > 50 {
		return "", apperr.Validation("project name must be between 2 and 50 characters")
	}
	return n, nil
}

func normalizeDescription(desc string) (string, error) {
	d := strings.TrimSpace(desc)
	if utf8.RuneCountInString(d) > 500 {
		return "", apperr.Validation("description must not exceed 500 characters")
	}
	return d, nil
}

// Create creates a project whose sole member is the creator with role owner.
// Project names are unique system-wide, case-insensitively.
func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest, creatorID uint) (*models.Project, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	desc, err := normalizeDescription(req.Description)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, creatorID); err != nil {
		return nil, err
	}

	project := models.Project{
		Name:        name,
		Description: desc,
		CreatedBy:   creatorID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Project{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.NameConflict()
		}
		if err := tx.Create(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.NameConflict()
			}
			return err
		}
		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    creatorID,
			Role:      string(authz.RoleOwner),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, project.ID, nil)
}

// Get returns the project with members and denormalized user name/email.
// A nil requester is a system-internal read and skips the membership check.
func (s *ProjectService) Get(ctx context.Context, projectID uint, requesterID *uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Preload("Members.User").First(&project, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project")
		}
		return nil, err
	}

	if err := authz.CanViewProject(snapshotOf(project.Members), requesterID); err != nil {
		return nil, err
	}

	return &project, nil
}

// ListForUser returns every project the user is a member of, most recently
// updated first.
func (s *ProjectService) ListForUser(ctx context.Context, userID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID).
		Order("projects.updated_at DESC").
		Preload("Members.User").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// AddMembers adds net-new users to the project. Every candidate must resolve
// to a real user (all-or-nothing); candidates already present are filtered,
// and a call that adds nothing fails rather than silently no-opping.
func (s *ProjectService) AddMembers(ctx context.Context, projectID, requesterID uint, candidates []MemberCandidate) (*models.Project, error) {
	if len(candidates) == 0 {
		return nil, apperr.Validation("at least one user is required")
	}

	// Role strings are validated before any storage access.
	roles := make(map[uint]authz.Role, len(candidates))
	ids := make([]uint, 0, len(candidates))
	for _, cand := range candidates {
		role, err := authz.ResolveRole(cand.Role)
		if err != nil {
			return nil, err
		}
		if _, dup := roles[cand.UserID]; !dup {
			ids = append(ids, cand.UserID)
		}
		roles[cand.UserID] = role
	}

	unlock := s.locks.acquire(projectID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := loadSnapshot(tx, projectID)
		if err != nil {
			return err
		}
		if err := authz.CanMutateMembership(snapshot, requesterID); err != nil {
			return err
		}

		found, err := s.users.FindManyByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return apperr.UnknownUser()
		}

		toAdd, _ := authz.DiffNewMembers(snapshot, ids)
		if len(toAdd) == 0 {
			return apperr.AllAlreadyMembers()
		}

		for _, userID := range toAdd {
			member := models.ProjectMember{
				ProjectID: projectID,
				UserID:    userID,
				Role:      string(roles[userID]),
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return touchProject(tx, projectID)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, projectID, &requesterID)
}

// RemoveMember removes the target from the project, refusing to remove the
// last owner.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, requesterID, targetID uint) (*models.Project, error) {
	unlock := s.locks.acquire(projectID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := loadSnapshot(tx, projectID)
		if err != nil {
			return err
		}
		if err := authz.CanMutateMembership(snapshot, requesterID); err != nil {
			return err
		}
		if err := authz.ValidateRemoval(snapshot, targetID); err != nil {
			return err
		}

		res := tx.Where("project_id = ? AND user_id = ?", projectID, targetID).
			Delete(&models.ProjectMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.MemberNotFound()
		}
		return touchProject(tx, projectID)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, projectID, &requesterID)
}

// ChangeRole updates the target member's role, refusing to demote the last
// owner away from the owner role.
func (s *ProjectService) ChangeRole(ctx context.Context, projectID, requesterID, targetID uint, newRole string) (*models.Project, error) {
	role, err := authz.ResolveRole(newRole)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(projectID)
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := loadSnapshot(tx, projectID)
		if err != nil {
			return err
		}
		if err := authz.CanMutateMembership(snapshot, requesterID); err != nil {
			return err
		}
		if err := authz.ValidateRoleChange(snapshot, targetID, role); err != nil {
			return err
		}

		res := tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, targetID).
			Update("role", string(role))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.MemberNotFound()
		}
		return touchProject(tx, projectID)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, projectID, &requesterID)
}

// Update renames or re-describes a project. Edit rights follow the same rule
// as membership management: owner or admin.
func (s *ProjectService) Update(ctx context.Context, projectID, requesterID uint, req *UpdateProjectRequest) (*models.Project, error) {
	updates := make(map[string]interface{})
	if req.Name != "" {
		name, err := normalizeName(req.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if req.Description != nil {
		desc, err := normalizeDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		updates["description"] = desc
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("nothing to update")
	}

	unlock := s.locks.acquire(projectID)
	defer unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err := loadSnapshot(tx, projectID)
		if err != nil {
			return err
		}
		if err := authz.CanMutateMembership(snapshot, requesterID); err != nil {
			return err
		}

		if name, ok := updates["name"]; ok {
			var count int64
			if err := tx.Model(&models.Project{}).
				Where("name = ? AND id != ?", name, projectID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperr.NameConflict()
			}
		}

		return tx.Model(&models.Project{}).Where("id = ?", projectID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, projectID, &requesterID)
}

// loadSnapshot reads a project's membership state inside the current
// transaction. Returns NotFound when the project does not exist.
func loadSnapshot(tx *gorm.DB, projectID uint) (authz.Snapshot, error) {
	var count int64
	if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.NotFound("project")
	}

	var members []models.ProjectMember
	if err := tx.Where("project_id = ?", projectID).Find(&members).Error; err != nil {
		return nil, err
	}
	return snapshotOf(members), nil
}

func snapshotOf(members []models.ProjectMember) authz.Snapshot {
	snapshot := make(authz.Snapshot, 0, len(members))
	for _, m := range members {
		snapshot = append(snapshot, authz.Membership{UserID: m.UserID, Role: authz.Role(m.Role)})
	}
	return snapshot
}

// touchProject bumps updated_at so membership changes surface in the
// most-recently-updated ordering of ListForUser.
func touchProject(tx *gorm.DB, projectID uint) error {
	return tx.Model(&models.Project{}).Where("id = ?", projectID).
		Update("updated_at", time.Now()).Error
}
