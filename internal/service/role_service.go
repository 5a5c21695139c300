package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	PermissionIDs []string `json:"permission_ids"`
}

type UpdateRoleRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	PermissionIDs []string `json:"permission_ids"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Permissions []PermissionResponse `json:"permissions"`
}

type PermissionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// --- Interface ---

type RoleService interface {
	CreateRole(ctx context.Context, principal Principal, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, principal Principal, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, principal Principal, id uuid.UUID) error
	GetRoleByID(ctx context.Context, id uuid.UUID) (*RoleResponse, error)
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	roles  repository.RoleRepository
	cadets repository.CadetRepository
	audit  AuditService
	tx     repository.TransactionManager
}

func NewRoleService(roles repository.RoleRepository, cadets repository.CadetRepository, audit AuditService, tx repository.TransactionManager) RoleService {
	return &roleService{roles: roles, cadets: cadets, audit: audit, tx: tx}
}

// --- Implementation ---

func (s *roleService) CreateRole(ctx context.Context, principal Principal, req CreateRoleRequest) (*RoleResponse, error) {
	if _, err := s.roles.FindByName(ctx, req.Name); err == nil {
		return nil, apperr.Conflict("Role", "name", req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}

	perms, err := s.resolvePermissions(ctx, req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	role := &model.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: perms,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.audit.Record(ctx, &principal.ID, model.ActionCreateRole, role.ID.String(), role.Name, "")
	return roleToResponse(role), nil
}

func (s *roleService) UpdateRole(ctx context.Context, principal Principal, id uuid.UUID, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.roles.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Role", "id", id)
	}

	if role.Name != req.Name {
		if _, err := s.roles.FindByName(ctx, req.Name); err == nil {
			return nil, apperr.Conflict("Role", "name", req.Name)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check role name: %w", err)
		}
	}

	perms, err := s.resolvePermissions(ctx, req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	role.Name = req.Name
	role.Description = req.Description
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if err := s.roles.ReplacePermissions(ctx, role, perms); err != nil {
		return nil, fmt.Errorf("failed to replace permissions: %w", err)
	}
	role.Permissions = perms

	return roleToResponse(role), nil
}

// DeleteRole strips the role from every cadet holding it before the row
// goes away, so no cadet is left referencing a dead role.
func (s *roleService) DeleteRole(ctx context.Context, principal Principal, id uuid.UUID) error {
	role, err := s.roles.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return notFoundOr(err, "Role", "id", id)
	}

	holders, err := s.cadets.ListByRoleID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list role holders: %w", err)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range holders {
			kept := make([]model.Role, 0, len(holders[i].Roles))
			for _, r := range holders[i].Roles {
				if r.ID != id {
					kept = append(kept, r)
				}
			}
			if err := s.cadets.ReplaceRoles(txCtx, &holders[i], kept); err != nil {
				return fmt.Errorf("failed to strip role from cadet '%s': %w", holders[i].Username, err)
			}
		}
		if err := s.roles.ClearPermissions(txCtx, role); err != nil {
			return fmt.Errorf("failed to clear role permissions: %w", err)
		}
		return s.roles.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &principal.ID, model.ActionDeleteRole, id.String(), role.Name, fmt.Sprintf("holders=%d", len(holders)))
	log.Printf("Role deleted: ID %s, Name '%s' (stripped from %d cadets)", id, role.Name, len(holders))
	return nil
}

func (s *roleService) GetRoleByID(ctx context.Context, id uuid.UUID) (*RoleResponse, error) {
	role, err := s.roles.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Role", "id", id)
	}
	return roleToResponse(role), nil
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		res = append(res, *roleToResponse(&roles[i]))
	}
	return res, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return permissionsToResponses(perms), nil
}

// SeedDefaultRolesAndPermissions makes sure the built-in permission
// catalogue and the two default roles exist. Safe to call on every
// startup; existing rows are left untouched.
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	type permDef struct{ name, description string }
	catalogue := []permDef{
		{"mission:read", "View missions"},
		{"mission:start", "Start a mission and get a working copy"},
		{"mission:create", "Create missions in own star systems"},
		{"mission:edit", "Edit own missions"},
		{"mission:delete", "Delete own missions"},
		{"mission:create_any_system", "Create missions in any star system"},
		{"mission:edit_any", "Edit any mission"},
		{"mission:delete_any", "Delete any mission"},
		{PermReadRepoURL, "See mission template repository URLs"},
		{"starsystem:read", "View star systems"},
		{"starsystem:create", "Create star systems"},
		{"starsystem:edit_any", "Edit any star system"},
		{"starsystem:delete_any", "Delete any star system"},
		{"cadet:read", "View cadets"},
		{"cadet:create", "Create cadets"},
		{"cadet:edit", "Edit cadets"},
		{"cadet:delete", "Delete cadets"},
		{"role:manage", "Manage roles and permissions"},
		{"audit:read", "Read the audit trail and log stream"},
	}

	perms := make(map[string]model.Permission, len(catalogue))
	for _, def := range catalogue {
		p := model.Permission{Name: def.name, Description: def.description}
		if err := s.roles.FindOrCreatePermission(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", def.name, err)
		}
		perms[def.name] = p
	}

	pick := func(names ...string) []model.Permission {
		out := make([]model.Permission, 0, len(names))
		for _, n := range names {
			out = append(out, perms[n])
		}
		return out
	}

	defaults := []model.Role{
		{
			Name:        model.RoleCadet,
			Description: "Default role for registered cadets",
			Permissions: pick("mission:read", "mission:start", "starsystem:read"),
		},
		{
			Name:        model.RoleAdmin,
			Description: "Full administrative access",
			Permissions: func() []model.Permission {
				all := make([]model.Permission, 0, len(catalogue))
				for _, def := range catalogue {
					all = append(all, perms[def.name])
				}
				return all
			}(),
		},
	}

	for i := range defaults {
		if _, err := s.roles.FindByName(ctx, defaults[i].Name); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up role '%s': %w", defaults[i].Name, err)
		}
		if err := s.roles.Create(ctx, &defaults[i]); err != nil {
			return fmt.Errorf("failed to seed role '%s': %w", defaults[i].Name, err)
		}
		log.Printf("Seeded default role '%s'", defaults[i].Name)
	}
	return nil
}

// --- Helpers ---

func (s *roleService) resolvePermissions(ctx context.Context, rawIDs []string) ([]model.Permission, error) {
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.BadRequest("invalid permission id: " + raw)
		}
		ids = append(ids, id)
	}

	perms, err := s.roles.FindPermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	if len(perms) != len(ids) {
		return nil, apperr.BadRequest("one or more permission ids do not exist")
	}
	return perms, nil
}

func roleToResponse(role *model.Role) *RoleResponse {
	return &RoleResponse{
		ID:          role.ID.String(),
		Name:        role.Name,
		Description: role.Description,
		Permissions: permissionsToResponses(role.Permissions),
	}
}

func permissionsToResponses(perms []model.Permission) []PermissionResponse {
	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, PermissionResponse{
			ID:          p.ID.String(),
			Name:        p.Name,
			Description: p.Description,
		})
	}
	return res
}
