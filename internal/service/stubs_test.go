package service

import (
	"context"
	"fmt"
	"sort"

	"backend/internal/gitea"
	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- In-memory repositories ---

type memMissionRepo struct {
	missions map[uuid.UUID]*model.Mission
}

func newMemMissionRepo() *memMissionRepo {
	return &memMissionRepo{missions: make(map[uuid.UUID]*model.Mission)}
}

func (r *memMissionRepo) Create(_ context.Context, m *model.Mission) error {
	cp := *m
	r.missions[m.ID] = &cp
	return nil
}

func (r *memMissionRepo) Update(_ context.Context, m *model.Mission) error {
	if _, ok := r.missions[m.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *m
	r.missions[m.ID] = &cp
	return nil
}

func (r *memMissionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.missions, id)
	return nil
}

func (r *memMissionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Mission, error) {
	m, ok := r.missions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMissionRepo) ListAll(_ context.Context) ([]model.Mission, error) {
	out := make([]model.Mission, 0, len(r.missions))
	for _, m := range r.missions {
		out = append(out, *m)
	}
	return out, nil
}

func (r *memMissionRepo) ListByStarSystemOrdered(_ context.Context, systemID uuid.UUID) ([]model.Mission, error) {
	var out []model.Mission
	for _, m := range r.missions {
		if m.StarSystemID == systemID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderInSystem < out[j].OrderInSystem })
	return out, nil
}

func (r *memMissionRepo) ExistsByStarSystemAndName(_ context.Context, systemID uuid.UUID, name string) (bool, error) {
	for _, m := range r.missions {
		if m.StarSystemID == systemID && m.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *memMissionRepo) ExistsByStarSystemAndOrder(_ context.Context, systemID uuid.UUID, order int) (bool, error) {
	for _, m := range r.missions {
		if m.StarSystemID == systemID && m.OrderInSystem == order {
			return true, nil
		}
	}
	return false, nil
}

func (r *memMissionRepo) MaxOrderInSystem(_ context.Context, systemID uuid.UUID) (int, error) {
	max := 0
	for _, m := range r.missions {
		if m.StarSystemID == systemID && m.OrderInSystem > max {
			max = m.OrderInSystem
		}
	}
	return max, nil
}

func (r *memMissionRepo) ShiftOrdersUp(_ context.Context, systemID uuid.UUID, fromOrder int) error {
	for _, m := range r.missions {
		if m.StarSystemID == systemID && m.OrderInSystem >= fromOrder {
			m.OrderInSystem++
		}
	}
	return nil
}

func (r *memMissionRepo) ShiftOrdersDown(_ context.Context, systemID uuid.UUID, afterOrder int) error {
	for _, m := range r.missions {
		if m.StarSystemID == systemID && m.OrderInSystem > afterOrder {
			m.OrderInSystem--
		}
	}
	return nil
}

// ranks returns the order values of one system, ascending, paired with
// mission names for assertion convenience.
func (r *memMissionRepo) ranks(systemID uuid.UUID) []int {
	missions, _ := r.ListByStarSystemOrdered(context.Background(), systemID)
	out := make([]int, 0, len(missions))
	for _, m := range missions {
		out = append(out, m.OrderInSystem)
	}
	return out
}

type memStarSystemRepo struct {
	systems map[uuid.UUID]*model.StarSystem
}

func newMemStarSystemRepo() *memStarSystemRepo {
	return &memStarSystemRepo{systems: make(map[uuid.UUID]*model.StarSystem)}
}

func (r *memStarSystemRepo) Create(_ context.Context, s *model.StarSystem) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.systems[s.ID] = &cp
	return nil
}

func (r *memStarSystemRepo) Update(_ context.Context, s *model.StarSystem) error {
	cp := *s
	r.systems[s.ID] = &cp
	return nil
}

func (r *memStarSystemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.systems, id)
	return nil
}

func (r *memStarSystemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StarSystem, error) {
	s, ok := r.systems[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memStarSystemRepo) FindByName(_ context.Context, name string) (*model.StarSystem, error) {
	for _, s := range r.systems {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memStarSystemRepo) ListAll(_ context.Context) ([]model.StarSystem, error) {
	out := make([]model.StarSystem, 0, len(r.systems))
	for _, s := range r.systems {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memStarSystemRepo) ListByOwnerID(_ context.Context, ownerID uuid.UUID) ([]model.StarSystem, error) {
	var out []model.StarSystem
	for _, s := range r.systems {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type memCadetMissionRepo struct {
	records map[string]*model.CadetMission
}

func newMemCadetMissionRepo() *memCadetMissionRepo {
	return &memCadetMissionRepo{records: make(map[string]*model.CadetMission)}
}

func pairKey(cadetID, missionID uuid.UUID) string {
	return cadetID.String() + "/" + missionID.String()
}

func (r *memCadetMissionRepo) Create(_ context.Context, cm *model.CadetMission) error {
	cp := *cm
	r.records[pairKey(cm.CadetID, cm.MissionID)] = &cp
	return nil
}

func (r *memCadetMissionRepo) Update(_ context.Context, cm *model.CadetMission) error {
	cp := *cm
	r.records[pairKey(cm.CadetID, cm.MissionID)] = &cp
	return nil
}

func (r *memCadetMissionRepo) FindByCadetAndMission(_ context.Context, cadetID, missionID uuid.UUID) (*model.CadetMission, error) {
	cm, ok := r.records[pairKey(cadetID, missionID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *cm
	return &cp, nil
}

func (r *memCadetMissionRepo) ListByCadet(_ context.Context, cadetID uuid.UUID) ([]model.CadetMission, error) {
	var out []model.CadetMission
	for _, cm := range r.records {
		if cm.CadetID == cadetID {
			out = append(out, *cm)
		}
	}
	return out, nil
}

func (r *memCadetMissionRepo) DeleteAllByCadet(_ context.Context, cadetID uuid.UUID) error {
	for k, cm := range r.records {
		if cm.CadetID == cadetID {
			delete(r.records, k)
		}
	}
	return nil
}

func (r *memCadetMissionRepo) DeleteAllByMission(_ context.Context, missionID uuid.UUID) error {
	for k, cm := range r.records {
		if cm.MissionID == missionID {
			delete(r.records, k)
		}
	}
	return nil
}

// --- Gitea gateway stub ---

type stubGateway struct {
	admin string
	calls []string

	createRepoErr    error
	uploadErr        error
	deleteRepoErr    error
	createMissionErr error

	files map[string]map[string]string // repo -> path -> content
}

func newStubGateway() *stubGateway {
	return &stubGateway{admin: "forge_admin", files: make(map[string]map[string]string)}
}

func (g *stubGateway) record(format string, args ...any) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *stubGateway) callCount(prefix string) int {
	n := 0
	for _, c := range g.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (g *stubGateway) AdminUsername() string { return g.admin }

func (g *stubGateway) CreateUser(_ context.Context, username, _, _ string) (int64, error) {
	g.record("create-user %s", username)
	return 42, nil
}

func (g *stubGateway) DeleteUser(_ context.Context, username string) error {
	g.record("delete-user %s", username)
	return nil
}

func (g *stubGateway) CreateRepository(_ context.Context, name string, private bool) (string, error) {
	g.record("create-repo %s private=%t", name, private)
	if g.createRepoErr != nil {
		return "", g.createRepoErr
	}
	return "http://gitea.local/" + g.admin + "/" + name + ".git", nil
}

func (g *stubGateway) DeleteAdminRepository(_ context.Context, repo string) error {
	g.record("delete-repo %s", repo)
	return g.deleteRepoErr
}

func (g *stubGateway) CreateMissionRepository(_ context.Context, repoName, templateLanguage, ownerUsername string) (string, error) {
	g.record("create-mission-repo %s lang=%s owner=%s", repoName, templateLanguage, ownerUsername)
	if g.createMissionErr != nil {
		return "", g.createMissionErr
	}
	return "http://gitea.local/" + g.admin + "/" + repoName + ".git", nil
}

func (g *stubGateway) CopyRepositoryContents(_ context.Context, sourceOwner, sourceRepo, targetRepo string) error {
	g.record("copy %s/%s -> %s", sourceOwner, sourceRepo, targetRepo)
	return nil
}

func (g *stubGateway) AddCollaborator(_ context.Context, repo, username, permission string) error {
	g.record("collaborator %s %s=%s", repo, username, permission)
	return nil
}

func (g *stubGateway) UploadFile(_ context.Context, owner, repo, path, content string) error {
	g.record("upload %s/%s %s", owner, repo, path)
	if g.uploadErr != nil {
		return g.uploadErr
	}
	if g.files[repo] == nil {
		g.files[repo] = make(map[string]string)
	}
	g.files[repo][path] = content
	return nil
}

func (g *stubGateway) ListContents(_ context.Context, _, repo, path string) ([]gitea.ContentEntry, error) {
	if path != "" {
		return nil, nil
	}
	var out []gitea.ContentEntry
	for p := range g.files[repo] {
		out = append(out, gitea.ContentEntry{Name: p, Path: p, Type: "file"})
	}
	return out, nil
}

func (g *stubGateway) GetFileContent(_ context.Context, _, repo, path string) (string, bool, error) {
	content, ok := g.files[repo][path]
	return content, ok, nil
}

// --- Misc stubs ---

// passTx runs the function directly, there is no real transaction in
// unit tests.
type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type recordedAudit struct {
	action   string
	entityID string
	actorID  *uuid.UUID
}

type stubAudit struct {
	entries []recordedAudit
}

func (a *stubAudit) Record(_ context.Context, actorID *uuid.UUID, action, entityID, _, _ string) {
	a.entries = append(a.entries, recordedAudit{action: action, entityID: entityID, actorID: actorID})
}

func (a *stubAudit) GetAuditLogs(_ context.Context, _, _ int) ([]AuditLogResponse, int64, error) {
	return nil, 0, nil
}
