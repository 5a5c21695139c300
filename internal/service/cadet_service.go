package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCadetRequest struct {
	Username  string   `json:"username" binding:"required,min=3,max=50"`
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required,min=8"`
	FullName  string   `json:"full_name"`
	RoleNames []string `json:"role_names"`
}

type UpdateCadetRequest struct {
	FullName  string   `json:"full_name"`
	AvatarURL string   `json:"avatar_url"`
	RoleNames []string `json:"role_names"`
}

type CadetResponse struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	AvatarURL string   `json:"avatar_url"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
}

type CadetMissionProgressResponse struct {
	MissionID     string  `json:"mission_id"`
	Status        string  `json:"status"`
	RepositoryURL string  `json:"repository_url"`
	StartedAt     *string `json:"started_at,omitempty"`
	CompletedAt   *string `json:"completed_at,omitempty"`
}

// --- Interface ---

type CadetService interface {
	CreateCadet(ctx context.Context, principal Principal, req CreateCadetRequest) (*CadetResponse, error)
	GetCadetByID(ctx context.Context, id uuid.UUID) (*CadetResponse, error)
	ListCadets(ctx context.Context, page, limit int) ([]CadetResponse, int64, error)
	UpdateCadet(ctx context.Context, principal Principal, id uuid.UUID, req UpdateCadetRequest) (*CadetResponse, error)
	DeleteCadet(ctx context.Context, principal Principal, id uuid.UUID) error
	ListOwnProgress(ctx context.Context, principal Principal) ([]CadetMissionProgressResponse, error)
}

type cadetService struct {
	cadets        repository.CadetRepository
	roles         repository.RoleRepository
	cadetMissions repository.CadetMissionRepository
	starSystems   repository.StarSystemRepository
	gitea         GiteaGateway
	audit         AuditService
	tx            repository.TransactionManager
}

func NewCadetService(
	cadets repository.CadetRepository,
	roles repository.RoleRepository,
	cadetMissions repository.CadetMissionRepository,
	starSystems repository.StarSystemRepository,
	giteaGateway GiteaGateway,
	audit AuditService,
	tx repository.TransactionManager,
) CadetService {
	return &cadetService{
		cadets:        cadets,
		roles:         roles,
		cadetMissions: cadetMissions,
		starSystems:   starSystems,
		gitea:         giteaGateway,
		audit:         audit,
		tx:            tx,
	}
}

// --- Implementation ---

// CreateCadet provisions the Gitea account first, then the local row.
// If the local insert fails the Gitea account is cleaned up again, so
// the two systems cannot disagree about who exists.
func (s *cadetService) CreateCadet(ctx context.Context, principal Principal, req CreateCadetRequest) (*CadetResponse, error) {
	if taken, err := s.cadets.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return nil, apperr.Conflict("Cadet", "username", req.Username)
	}
	if taken, err := s.cadets.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, apperr.Conflict("Cadet", "email", req.Email)
	}

	roleNames := req.RoleNames
	if len(roleNames) == 0 {
		roleNames = []string{model.RoleCadet}
	}
	roles, err := s.resolveRoles(ctx, roleNames)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	giteaUserID, err := s.gitea.CreateUser(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	cadet := &model.Cadet{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		GiteaUserID:  &giteaUserID,
		Roles:        roles,
	}
	if err := s.cadets.Create(ctx, cadet); err != nil {
		if cleanupErr := s.gitea.DeleteUser(ctx, req.Username); cleanupErr != nil {
			log.Printf("WARNING: failed to clean up Gitea user '%s' after rollback: %v", req.Username, cleanupErr)
		}
		return nil, fmt.Errorf("failed to create cadet: %w", err)
	}

	var actorID *uuid.UUID
	if principal.ID != uuid.Nil {
		actorID = &principal.ID
	}
	s.audit.Record(ctx, actorID, model.ActionCreateCadet, cadet.ID.String(), cadet.Username, "")
	log.Printf("Cadet '%s' created with Gitea user ID %d", cadet.Username, giteaUserID)
	return cadetToResponse(cadet), nil
}

func (s *cadetService) GetCadetByID(ctx context.Context, id uuid.UUID) (*CadetResponse, error) {
	cadet, err := s.cadets.GetByIDWithRoles(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Cadet", "id", id)
	}
	return cadetToResponse(cadet), nil
}

func (s *cadetService) ListCadets(ctx context.Context, page, limit int) ([]CadetResponse, int64, error) {
	cadets, total, err := s.cadets.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cadets: %w", err)
	}

	res := make([]CadetResponse, 0, len(cadets))
	for i := range cadets {
		res = append(res, *cadetToResponse(&cadets[i]))
	}
	return res, total, nil
}

func (s *cadetService) UpdateCadet(ctx context.Context, principal Principal, id uuid.UUID, req UpdateCadetRequest) (*CadetResponse, error) {
	cadet, err := s.cadets.GetByIDWithRoles(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Cadet", "id", id)
	}

	cadet.FullName = req.FullName
	cadet.AvatarURL = req.AvatarURL
	if err := s.cadets.Update(ctx, cadet); err != nil {
		return nil, fmt.Errorf("failed to update cadet: %w", err)
	}

	if req.RoleNames != nil {
		roles, err := s.resolveRoles(ctx, req.RoleNames)
		if err != nil {
			return nil, err
		}
		if err := s.cadets.ReplaceRoles(ctx, cadet, roles); err != nil {
			return nil, fmt.Errorf("failed to replace roles: %w", err)
		}
		cadet.Roles = roles
	}

	return cadetToResponse(cadet), nil
}

// DeleteCadet removes the cadet and their progress records. The Gitea
// account delete is best-effort. Star systems the cadet owned stay
// behind with a stale owner id; that is logged, not fixed here.
func (s *cadetService) DeleteCadet(ctx context.Context, principal Principal, id uuid.UUID) error {
	cadet, err := s.cadets.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Cadet", "id", id)
	}

	if err := s.gitea.DeleteUser(ctx, cadet.Username); err != nil {
		log.Printf("WARNING: failed to delete Gitea user '%s': %v", cadet.Username, err)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.cadetMissions.DeleteAllByCadet(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete progress records: %w", err)
		}
		if err := s.cadets.ReplaceRoles(txCtx, cadet, nil); err != nil {
			return fmt.Errorf("failed to detach roles: %w", err)
		}
		return s.cadets.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	if owned, err := s.starSystems.ListByOwnerID(ctx, id); err == nil && len(owned) > 0 {
		log.Printf("WARNING: deleted cadet '%s' still owns %d star systems", cadet.Username, len(owned))
	}

	s.audit.Record(ctx, &principal.ID, model.ActionDeleteCadet, id.String(), cadet.Username, "")
	log.Printf("Cadet deleted: ID %s, Username '%s'", id, cadet.Username)
	return nil
}

func (s *cadetService) ListOwnProgress(ctx context.Context, principal Principal) ([]CadetMissionProgressResponse, error) {
	records, err := s.cadetMissions.ListByCadet(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	res := make([]CadetMissionProgressResponse, 0, len(records))
	for _, r := range records {
		res = append(res, CadetMissionProgressResponse{
			MissionID:     r.MissionID.String(),
			Status:        string(r.Status),
			RepositoryURL: r.RepositoryURL,
			StartedAt:     formatOptionalTime(r.StartedAt),
			CompletedAt:   formatOptionalTime(r.CompletedAt),
		})
	}
	return res, nil
}

// --- Helpers ---

func (s *cadetService) resolveRoles(ctx context.Context, names []string) ([]model.Role, error) {
	roles := make([]model.Role, 0, len(names))
	for _, name := range names {
		role, err := s.roles.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.BadRequest("unknown role: " + name)
			}
			return nil, fmt.Errorf("failed to resolve role '%s': %w", name, err)
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

func cadetToResponse(cadet *model.Cadet) *CadetResponse {
	roleNames := make([]string, 0, len(cadet.Roles))
	for _, r := range cadet.Roles {
		roleNames = append(roleNames, r.Name)
	}
	return &CadetResponse{
		ID:        cadet.ID.String(),
		Username:  cadet.Username,
		Email:     cadet.Email,
		FullName:  cadet.FullName,
		AvatarURL: cadet.AvatarURL,
		Roles:     roleNames,
		CreatedAt: cadet.CreatedAt.Format(time.RFC3339),
	}
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
