package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/gitea"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateStarSystemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
}

type UpdateStarSystemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
}

type StarSystemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	OwnerID     string `json:"owner_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type StarSystemWithMissionsResponse struct {
	StarSystemResponse
	Missions []MissionResponse `json:"missions"`
}

// --- Interface ---

type StarSystemService interface {
	CreateStarSystem(ctx context.Context, principal Principal, req CreateStarSystemRequest) (*StarSystemResponse, error)
	UpdateStarSystem(ctx context.Context, principal Principal, id uuid.UUID, req UpdateStarSystemRequest) (*StarSystemResponse, error)
	DeleteStarSystem(ctx context.Context, principal Principal, id uuid.UUID) error
	GetStarSystemByID(ctx context.Context, id uuid.UUID) (*StarSystemResponse, error)
	GetStarSystemWithMissions(ctx context.Context, principal Principal, id uuid.UUID) (*StarSystemWithMissionsResponse, error)
	ListStarSystems(ctx context.Context) ([]StarSystemResponse, error)
	ListOwnStarSystems(ctx context.Context, principal Principal) ([]StarSystemResponse, error)
}

type starSystemService struct {
	starSystems   repository.StarSystemRepository
	missions      repository.MissionRepository
	cadetMissions repository.CadetMissionRepository
	gitea         GiteaGateway
	audit         AuditService
	tx            repository.TransactionManager
}

func NewStarSystemService(
	starSystems repository.StarSystemRepository,
	missions repository.MissionRepository,
	cadetMissions repository.CadetMissionRepository,
	giteaGateway GiteaGateway,
	audit AuditService,
	tx repository.TransactionManager,
) StarSystemService {
	return &starSystemService{
		starSystems:   starSystems,
		missions:      missions,
		cadetMissions: cadetMissions,
		gitea:         giteaGateway,
		audit:         audit,
		tx:            tx,
	}
}

// --- Implementation ---

func (s *starSystemService) CreateStarSystem(ctx context.Context, principal Principal, req CreateStarSystemRequest) (*StarSystemResponse, error) {
	if _, err := s.starSystems.FindByName(ctx, req.Name); err == nil {
		return nil, apperr.Conflict("StarSystem", "name", req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check star system name: %w", err)
	}

	system := &model.StarSystem{
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		OwnerID:     principal.ID,
	}
	if err := s.starSystems.Create(ctx, system); err != nil {
		return nil, fmt.Errorf("failed to create star system: %w", err)
	}

	s.audit.Record(ctx, &principal.ID, model.ActionCreateStarSystem, system.ID.String(), system.Name, "")
	log.Printf("Star system '%s' created by '%s'", system.Name, principal.Username)
	return starSystemToResponse(system), nil
}

func (s *starSystemService) UpdateStarSystem(ctx context.Context, principal Principal, id uuid.UUID, req UpdateStarSystemRequest) (*StarSystemResponse, error) {
	system, err := s.starSystems.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "StarSystem", "id", id)
	}

	if !CanMutate(principal, system.OwnerID, "starsystem:edit_any") {
		return nil, apperr.Forbidden("you do not have permission to edit this star system")
	}

	if system.Name != req.Name {
		if _, err := s.starSystems.FindByName(ctx, req.Name); err == nil {
			return nil, apperr.Conflict("StarSystem", "name", req.Name)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check star system name: %w", err)
		}
	}

	system.Name = req.Name
	system.Description = req.Description
	system.IconURL = req.IconURL
	if err := s.starSystems.Update(ctx, system); err != nil {
		return nil, fmt.Errorf("failed to update star system: %w", err)
	}

	s.audit.Record(ctx, &principal.ID, model.ActionUpdateStarSystem, system.ID.String(), system.Name, "")
	return starSystemToResponse(system), nil
}

// DeleteStarSystem removes the system together with its missions and
// their progress records. Remote repositories are deleted best-effort
// before the transactional row cleanup, so a Gitea hiccup leaves at
// worst orphaned remote repos, never dangling rows.
func (s *starSystemService) DeleteStarSystem(ctx context.Context, principal Principal, id uuid.UUID) error {
	system, err := s.starSystems.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "StarSystem", "id", id)
	}

	if !CanMutate(principal, system.OwnerID, "starsystem:delete_any") {
		return apperr.Forbidden("you do not have permission to delete this star system")
	}

	missions, err := s.missions.ListByStarSystemOrdered(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list missions for star system: %w", err)
	}

	for i := range missions {
		repoName := gitea.RepoNameFromURL(missions[i].TemplateRepositoryURL)
		if repoName == "" {
			continue
		}
		if err := s.gitea.DeleteAdminRepository(ctx, repoName); err != nil {
			log.Printf("WARNING: failed to delete Gitea repo '%s': %v", repoName, err)
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range missions {
			if err := s.cadetMissions.DeleteAllByMission(txCtx, missions[i].ID); err != nil {
				return fmt.Errorf("failed to delete progress records: %w", err)
			}
			if err := s.missions.Delete(txCtx, missions[i].ID); err != nil {
				return fmt.Errorf("failed to delete mission %s: %w", missions[i].ID, err)
			}
		}
		return s.starSystems.Delete(txCtx, id)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &principal.ID, model.ActionDeleteStarSystem, id.String(), system.Name, fmt.Sprintf("missions=%d", len(missions)))
	log.Printf("Star system deleted: ID %s, Name '%s' (%d missions)", id, system.Name, len(missions))
	return nil
}

func (s *starSystemService) GetStarSystemByID(ctx context.Context, id uuid.UUID) (*StarSystemResponse, error) {
	system, err := s.starSystems.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "StarSystem", "id", id)
	}
	return starSystemToResponse(system), nil
}

func (s *starSystemService) GetStarSystemWithMissions(ctx context.Context, principal Principal, id uuid.UUID) (*StarSystemWithMissionsResponse, error) {
	system, err := s.starSystems.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "StarSystem", "id", id)
	}

	missions, err := s.missions.ListByStarSystemOrdered(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}

	return &StarSystemWithMissionsResponse{
		StarSystemResponse: *starSystemToResponse(system),
		Missions:           missionsToResponses(missions, principal),
	}, nil
}

func (s *starSystemService) ListStarSystems(ctx context.Context) ([]StarSystemResponse, error) {
	systems, err := s.starSystems.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list star systems: %w", err)
	}
	return starSystemsToResponses(systems), nil
}

func (s *starSystemService) ListOwnStarSystems(ctx context.Context, principal Principal) ([]StarSystemResponse, error) {
	systems, err := s.starSystems.ListByOwnerID(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list own star systems: %w", err)
	}
	return starSystemsToResponses(systems), nil
}

// --- Helpers ---

func starSystemToResponse(system *model.StarSystem) *StarSystemResponse {
	return &StarSystemResponse{
		ID:          system.ID.String(),
		Name:        system.Name,
		Description: system.Description,
		IconURL:     system.IconURL,
		OwnerID:     system.OwnerID.String(),
		CreatedAt:   system.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   system.UpdatedAt.Format(time.RFC3339),
	}
}

func starSystemsToResponses(systems []model.StarSystem) []StarSystemResponse {
	res := make([]StarSystemResponse, 0, len(systems))
	for i := range systems {
		res = append(res, *starSystemToResponse(&systems[i]))
	}
	return res
}
