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

type CreateMissionInitialRequest struct {
	StarSystemID        string `json:"star_system_id" binding:"required,uuid"`
	Name                string `json:"name" binding:"required"`
	DescriptionMarkdown string `json:"description_markdown"`
	MissionType         string `json:"mission_type" binding:"required"`
	Difficulty          string `json:"difficulty" binding:"required"`
	OrderInSystem       int    `json:"order_in_system" binding:"required"`
	TemplateLanguage    string `json:"template_language" binding:"required"`
}

type MissionForgeContentRequest struct {
	Files map[string]string `json:"files" binding:"required"`
}

type UpdateMissionRequest struct {
	StarSystemID        string `json:"star_system_id" binding:"required,uuid"`
	Name                string `json:"name" binding:"required"`
	DescriptionMarkdown string `json:"description_markdown"`
	MissionType         string `json:"mission_type" binding:"required"`
	Difficulty          string `json:"difficulty" binding:"required"`
	OrderInSystem       int    `json:"order_in_system" binding:"required"`
}

type MissionResponse struct {
	ID                    string                   `json:"id"`
	StarSystemID          string                   `json:"star_system_id"`
	Name                  string                   `json:"name"`
	DescriptionMarkdown   string                   `json:"description_markdown"`
	TemplateRepositoryURL string                   `json:"template_repository_url,omitempty"`
	MissionType           model.MissionType        `json:"mission_type"`
	Difficulty            model.Difficulty         `json:"difficulty"`
	OrderInSystem         int                      `json:"order_in_system"`
	OwnerID               string                   `json:"owner_id"`
	VerificationStatus    model.VerificationStatus `json:"verification_status"`
	CreatedAt             string                   `json:"created_at"`
	UpdatedAt             string                   `json:"updated_at"`
}

type StartMissionResponse struct {
	RepositoryURL string `json:"repository_url"`
}

// PermReadRepoURL lets a viewer see a mission's backing repository URL.
// Everyone else gets the field redacted from responses.
const PermReadRepoURL = "mission:read_repo"

// --- Interface ---

// MissionService is the mission forge orchestrator: it owns mission
// ordering, repository provisioning, per-student working copies and the
// verification state machine.
type MissionService interface {
	InitializeForgeMission(ctx context.Context, principal Principal, req CreateMissionInitialRequest) (*MissionResponse, error)
	SaveForgeContent(ctx context.Context, principal Principal, missionID uuid.UUID, req MissionForgeContentRequest) (*MissionResponse, error)
	GetMissionFiles(ctx context.Context, missionID uuid.UUID) (map[string]string, error)
	StartMission(ctx context.Context, principal Principal, missionID uuid.UUID) (*StartMissionResponse, error)
	UpdateMission(ctx context.Context, principal Principal, missionID uuid.UUID, req UpdateMissionRequest) (*MissionResponse, error)
	DeleteMission(ctx context.Context, principal Principal, missionID uuid.UUID) error
	GetMissionByID(ctx context.Context, principal Principal, id uuid.UUID) (*MissionResponse, error)
	ListMissions(ctx context.Context, principal Principal) ([]MissionResponse, error)
	ListMissionsByStarSystem(ctx context.Context, principal Principal, starSystemID uuid.UUID) ([]MissionResponse, error)
	NextOrder(ctx context.Context, starSystemID uuid.UUID) (int, error)
	UpdateVerificationStatus(ctx context.Context, missionID uuid.UUID, status model.VerificationStatus) error
}

type missionService struct {
	missions      repository.MissionRepository
	starSystems   repository.StarSystemRepository
	cadetMissions repository.CadetMissionRepository
	sequencer     *OrderSequencer
	gitea         GiteaGateway
	audit         AuditService
	tx            repository.TransactionManager
}

func NewMissionService(
	missions repository.MissionRepository,
	starSystems repository.StarSystemRepository,
	cadetMissions repository.CadetMissionRepository,
	sequencer *OrderSequencer,
	giteaGateway GiteaGateway,
	audit AuditService,
	tx repository.TransactionManager,
) MissionService {
	return &missionService{
		missions:      missions,
		starSystems:   starSystems,
		cadetMissions: cadetMissions,
		sequencer:     sequencer,
		gitea:         giteaGateway,
		audit:         audit,
		tx:            tx,
	}
}

// --- Implementation ---

// InitializeForgeMission provisions a mission repository from the
// requested language template and persists the mission as a DRAFT.
// The repository is named after the mission ID so the verification
// pipeline can address the mission from the repo name alone; Gitea
// provisioning happens before any row is written, so a failed remote
// call leaves the store untouched.
func (s *missionService) InitializeForgeMission(ctx context.Context, principal Principal, req CreateMissionInitialRequest) (*MissionResponse, error) {
	starSystemID, err := uuid.Parse(req.StarSystemID)
	if err != nil {
		return nil, apperr.BadRequest("invalid star system id: " + req.StarSystemID)
	}
	if req.OrderInSystem < 1 {
		return nil, apperr.BadRequest(fmt.Sprintf("order_in_system must be positive, got %d", req.OrderInSystem))
	}

	starSystem, err := s.starSystems.FindByID(ctx, starSystemID)
	if err != nil {
		return nil, notFoundOr(err, "StarSystem", "id", starSystemID)
	}

	if !CanMutate(principal, starSystem.OwnerID, "mission:create_any_system") {
		return nil, apperr.Forbidden("you can only add missions to your own star systems or with 'mission:create_any_system' permission")
	}

	taken, err := s.missions.ExistsByStarSystemAndName(ctx, starSystemID, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check mission name: %w", err)
	}
	if taken {
		return nil, apperr.Conflict("Mission", "name", req.Name)
	}

	// The mission ID doubles as the repository name.
	missionID := uuid.New()
	repoURL, err := s.gitea.CreateMissionRepository(ctx, missionID.String(), req.TemplateLanguage, principal.Username)
	if err != nil {
		return nil, err
	}

	mission := &model.Mission{
		ID:                    missionID,
		StarSystemID:          starSystemID,
		Name:                  req.Name,
		DescriptionMarkdown:   req.DescriptionMarkdown,
		TemplateRepositoryURL: repoURL,
		MissionType:           model.MissionType(req.MissionType),
		Difficulty:            model.Difficulty(req.Difficulty),
		OrderInSystem:         req.OrderInSystem,
		OwnerID:               principal.ID,
		VerificationStatus:    model.VerificationDraft,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.sequencer.Reserve(txCtx, starSystemID, req.OrderInSystem); err != nil {
			return err
		}
		return s.missions.Create(txCtx, mission)
	})
	if err != nil {
		// The remote repository is already provisioned; an orphan is
		// acceptable drift, a half-written mission row is not.
		log.Printf("WARNING: mission row insert failed after repo '%s' was provisioned: %v", missionID, err)
		return nil, err
	}

	s.audit.Record(ctx, &principal.ID, model.ActionInitializeMission, mission.ID.String(), mission.Name, "template="+req.TemplateLanguage)
	log.Printf("Mission '%s' initialized by '%s' with repo '%s'", mission.Name, principal.Username, repoURL)
	return s.mapToResponse(mission, principal), nil
}

// SaveForgeContent uploads the supplied files into the mission
// repository and re-queues the mission for verification.
func (s *missionService) SaveForgeContent(ctx context.Context, principal Principal, missionID uuid.UUID, req MissionForgeContentRequest) (*MissionResponse, error) {
	mission, err := s.missions.FindByID(ctx, missionID)
	if err != nil {
		return nil, notFoundOr(err, "Mission", "id", missionID)
	}

	if !CanMutate(principal, mission.OwnerID, "mission:edit_any") {
		return nil, apperr.Forbidden("you do not have permission to edit this mission")
	}

	repoName := gitea.RepoNameFromURL(mission.TemplateRepositoryURL)
	if repoName == "" {
		return nil, apperr.External("Gitea", "could not extract repository name from mission URL: "+mission.TemplateRepositoryURL, nil)
	}

	for path, content := range req.Files {
		if err := s.gitea.UploadFile(ctx, s.gitea.AdminUsername(), repoName, path, content); err != nil {
			return nil, err
		}
	}

	// Status read-modify-write runs in its own transaction so two
	// concurrent saves cannot interleave on the same row.
	var updated *model.Mission
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.missions.FindByID(txCtx, missionID)
		if err != nil {
			return notFoundOr(err, "Mission", "id", missionID)
		}
		// A save always re-queues verification, even out of a terminal state.
		current.VerificationStatus = model.VerificationPending
		if err := s.missions.Update(txCtx, current); err != nil {
			return fmt.Errorf("failed to update mission status: %w", err)
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &principal.ID, model.ActionSaveMissionForge, missionID.String(), updated.Name, fmt.Sprintf("files=%d", len(req.Files)))
	return s.mapToResponse(updated, principal), nil
}

// GetMissionFiles returns path -> decoded content for every file in the
// mission repository, walking directories via an explicit worklist.
func (s *missionService) GetMissionFiles(ctx context.Context, missionID uuid.UUID) (map[string]string, error) {
	mission, err := s.missions.FindByID(ctx, missionID)
	if err != nil {
		return nil, notFoundOr(err, "Mission", "id", missionID)
	}

	repoName := gitea.RepoNameFromURL(mission.TemplateRepositoryURL)
	if repoName == "" {
		return nil, apperr.External("Gitea", "could not extract repository name from mission URL: "+mission.TemplateRepositoryURL, nil)
	}

	admin := s.gitea.AdminUsername()
	files := make(map[string]string)
	dirs := []string{""}
	for len(dirs) > 0 {
		dir := dirs[len(dirs)-1]
		dirs = dirs[:len(dirs)-1]

		entries, err := s.gitea.ListContents(ctx, admin, repoName, dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			switch entry.Type {
			case "file":
				content, ok, err := s.gitea.GetFileContent(ctx, admin, repoName, entry.Path)
				if err != nil {
					return nil, err
				}
				if ok {
					files[entry.Path] = content
				}
			case "dir":
				dirs = append(dirs, entry.Path)
			}
		}
	}
	return files, nil
}

// StartMission provisions (or resumes) a student's private working copy
// of a mission. Resuming is idempotent: an existing progress record
// short-circuits before any remote call.
func (s *missionService) StartMission(ctx context.Context, principal Principal, missionID uuid.UUID) (*StartMissionResponse, error) {
	mission, err := s.missions.FindByID(ctx, missionID)
	if err != nil {
		return nil, notFoundOr(err, "Mission", "id", missionID)
	}

	existing, err := s.cadetMissions.FindByCadetAndMission(ctx, principal.ID, missionID)
	if err == nil {
		log.Printf("Cadet '%s' resumed mission '%s'", principal.Username, mission.Name)
		return &StartMissionResponse{RepositoryURL: existing.RepositoryURL}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up progress record: %w", err)
	}

	sourceRepo := gitea.RepoNameFromURL(mission.TemplateRepositoryURL)
	if sourceRepo == "" {
		return nil, apperr.External("Gitea", "could not extract repository name from mission URL: "+mission.TemplateRepositoryURL, nil)
	}

	workingRepoName := fmt.Sprintf("cadet-%s-%s", principal.Username, missionID)
	workingRepoURL, err := s.gitea.CreateRepository(ctx, workingRepoName, true)
	if err != nil {
		return nil, err
	}
	if err := s.gitea.CopyRepositoryContents(ctx, s.gitea.AdminUsername(), sourceRepo, workingRepoName); err != nil {
		return nil, err
	}
	if err := s.gitea.AddCollaborator(ctx, workingRepoName, principal.Username, "write"); err != nil {
		return nil, err
	}

	now := time.Now()
	progress := &model.CadetMission{
		CadetID:       principal.ID,
		MissionID:     missionID,
		Status:        model.CadetMissionInProgress,
		RepositoryURL: workingRepoURL,
		StartedAt:     &now,
	}
	if err := s.cadetMissions.Create(ctx, progress); err != nil {
		return nil, fmt.Errorf("failed to create progress record: %w", err)
	}

	s.audit.Record(ctx, &principal.ID, model.ActionStartMission, missionID.String(), mission.Name, "repo="+workingRepoName)
	log.Printf("Cadet '%s' started mission '%s'. Repo: %s", principal.Username, mission.Name, workingRepoName)
	return &StartMissionResponse{RepositoryURL: workingRepoURL}, nil
}

// UpdateMission applies field changes, re-resolving the rank when it
// moves and re-checking name uniqueness in the destination system.
func (s *missionService) UpdateMission(ctx context.Context, principal Principal, missionID uuid.UUID, req UpdateMissionRequest) (*MissionResponse, error) {
	targetSystemID, err := uuid.Parse(req.StarSystemID)
	if err != nil {
		return nil, apperr.BadRequest("invalid star system id: " + req.StarSystemID)
	}

	mission, err := s.missions.FindByID(ctx, missionID)
	if err != nil {
		return nil, notFoundOr(err, "Mission", "id", missionID)
	}

	if !CanMutate(principal, mission.OwnerID, "mission:edit_any") {
		return nil, apperr.Forbidden("you do not have permission to edit this mission")
	}

	targetSystem, err := s.starSystems.FindByID(ctx, targetSystemID)
	if err != nil {
		return nil, notFoundOr(err, "StarSystem", "id", targetSystemID)
	}

	systemChanged := mission.StarSystemID != targetSystemID
	if systemChanged && !CanMutate(principal, targetSystem.OwnerID, "mission:create_any_system") {
		return nil, apperr.Forbidden("you can only move missions to your own star systems or with 'mission:create_any_system' permission")
	}

	if mission.Name != req.Name || systemChanged {
		taken, err := s.missions.ExistsByStarSystemAndName(ctx, targetSystemID, req.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check mission name: %w", err)
		}
		if taken {
			return nil, apperr.Conflict("Mission", "name", req.Name)
		}
	}

	oldSystemID := mission.StarSystemID
	oldRank := mission.OrderInSystem
	rankChanged := oldRank != req.OrderInSystem

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		// Moving to the current rank in the current system is a no-op.
		if systemChanged || rankChanged {
			if err := s.sequencer.Reserve(txCtx, targetSystemID, req.OrderInSystem); err != nil {
				return err
			}
		}

		mission.StarSystemID = targetSystemID
		mission.Name = req.Name
		mission.DescriptionMarkdown = req.DescriptionMarkdown
		mission.MissionType = model.MissionType(req.MissionType)
		mission.Difficulty = model.Difficulty(req.Difficulty)
		mission.OrderInSystem = req.OrderInSystem
		if err := s.missions.Update(txCtx, mission); err != nil {
			return fmt.Errorf("failed to update mission: %w", err)
		}

		// A cross-system move leaves a gap behind in the old system.
		if systemChanged {
			return s.sequencer.Compact(txCtx, oldSystemID, oldRank)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &principal.ID, model.ActionUpdateMission, missionID.String(), mission.Name, "")
	return s.mapToResponse(mission, principal), nil
}

// DeleteMission tears down a mission. The remote repository delete is
// best-effort: the row removal and rank compaction proceed even when
// Gitea refuses, leaving at worst an orphaned remote repository.
func (s *missionService) DeleteMission(ctx context.Context, principal Principal, missionID uuid.UUID) error {
	mission, err := s.missions.FindByID(ctx, missionID)
	if err != nil {
		return notFoundOr(err, "Mission", "id", missionID)
	}

	if !CanMutate(principal, mission.OwnerID, "mission:delete_any") {
		return apperr.Forbidden("you do not have permission to delete this mission")
	}

	if repoName := gitea.RepoNameFromURL(mission.TemplateRepositoryURL); repoName != "" {
		if err := s.gitea.DeleteAdminRepository(ctx, repoName); err != nil {
			log.Printf("WARNING: failed to delete Gitea repo '%s': %v", repoName, err)
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.cadetMissions.DeleteAllByMission(txCtx, missionID); err != nil {
			return fmt.Errorf("failed to delete progress records: %w", err)
		}
		if err := s.missions.Delete(txCtx, missionID); err != nil {
			return fmt.Errorf("failed to delete mission: %w", err)
		}
		return s.sequencer.Compact(txCtx, mission.StarSystemID, mission.OrderInSystem)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, &principal.ID, model.ActionDeleteMission, missionID.String(), mission.Name, "")
	log.Printf("Mission deleted: ID %s, Name '%s'", missionID, mission.Name)
	return nil
}

func (s *missionService) GetMissionByID(ctx context.Context, principal Principal, id uuid.UUID) (*MissionResponse, error) {
	mission, err := s.missions.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Mission", "id", id)
	}
	return s.mapToResponse(mission, principal), nil
}

func (s *missionService) ListMissions(ctx context.Context, principal Principal) ([]MissionResponse, error) {
	missions, err := s.missions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	return s.mapAll(missions, principal), nil
}

func (s *missionService) ListMissionsByStarSystem(ctx context.Context, principal Principal, starSystemID uuid.UUID) ([]MissionResponse, error) {
	missions, err := s.missions.ListByStarSystemOrdered(ctx, starSystemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	return s.mapAll(missions, principal), nil
}

func (s *missionService) NextOrder(ctx context.Context, starSystemID uuid.UUID) (int, error) {
	return s.sequencer.NextOrder(ctx, starSystemID)
}

// UpdateVerificationStatus applies a verification pipeline result. The
// caller (the callback handler) has already authenticated the request
// and parsed the status.
func (s *missionService) UpdateVerificationStatus(ctx context.Context, missionID uuid.UUID, status model.VerificationStatus) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		mission, err := s.missions.FindByID(txCtx, missionID)
		if err != nil {
			return notFoundOr(err, "Mission", "id", missionID)
		}
		mission.VerificationStatus = status
		return s.missions.Update(txCtx, mission)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, nil, model.ActionVerifyMission, missionID.String(), "", "status="+string(status))
	log.Printf("Mission %s verification status updated to %s", missionID, status)
	return nil
}

// --- Helpers ---

func (s *missionService) mapToResponse(mission *model.Mission, principal Principal) *MissionResponse {
	return missionToResponse(mission, principal)
}

func missionToResponse(mission *model.Mission, principal Principal) *MissionResponse {
	resp := &MissionResponse{
		ID:                  mission.ID.String(),
		StarSystemID:        mission.StarSystemID.String(),
		Name:                mission.Name,
		DescriptionMarkdown: mission.DescriptionMarkdown,
		MissionType:         mission.MissionType,
		Difficulty:          mission.Difficulty,
		OrderInSystem:       mission.OrderInSystem,
		OwnerID:             mission.OwnerID.String(),
		VerificationStatus:  mission.VerificationStatus,
		CreatedAt:           mission.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           mission.UpdatedAt.Format(time.RFC3339),
	}
	// The backing repo URL is only for administrative viewers.
	if principal.HasPermission(PermReadRepoURL) {
		resp.TemplateRepositoryURL = mission.TemplateRepositoryURL
	}
	return resp
}

func (s *missionService) mapAll(missions []model.Mission, principal Principal) []MissionResponse {
	return missionsToResponses(missions, principal)
}

func missionsToResponses(missions []model.Mission, principal Principal) []MissionResponse {
	res := make([]MissionResponse, 0, len(missions))
	for i := range missions {
		res = append(res, *missionToResponse(&missions[i], principal))
	}
	return res
}

// notFoundOr maps gorm's record-not-found onto the API error taxonomy
// and wraps anything else as an internal lookup failure.
func notFoundOr(err error, resource, field string, value any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource, field, value)
	}
	return fmt.Errorf("failed to fetch %s: %w", resource, err)
}
