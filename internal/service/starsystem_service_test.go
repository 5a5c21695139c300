package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type starSystemFixture struct {
	svc         StarSystemService
	starSystems *memStarSystemRepo
	missions    *memMissionRepo
	progress    *memCadetMissionRepo
	gateway     *stubGateway
	owner       Principal
}

func newStarSystemFixture(t *testing.T) *starSystemFixture {
	t.Helper()
	starSystems := newMemStarSystemRepo()
	missions := newMemMissionRepo()
	progress := newMemCadetMissionRepo()
	gateway := newStubGateway()

	return &starSystemFixture{
		svc:         NewStarSystemService(starSystems, missions, progress, gateway, &stubAudit{}, passTx{}),
		starSystems: starSystems,
		missions:    missions,
		progress:    progress,
		gateway:     gateway,
		owner:       NewPrincipal(uuid.New(), "commander", nil),
	}
}

func TestCreateStarSystemRejectsDuplicateName(t *testing.T) {
	f := newStarSystemFixture(t)

	created, err := f.svc.CreateStarSystem(context.Background(), f.owner, CreateStarSystemRequest{Name: "Vega"})
	require.NoError(t, err)
	require.Equal(t, f.owner.ID.String(), created.OwnerID)

	_, err = f.svc.CreateStarSystem(context.Background(), f.owner, CreateStarSystemRequest{Name: "Vega"})
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestUpdateStarSystemOwnershipGate(t *testing.T) {
	f := newStarSystemFixture(t)
	created, err := f.svc.CreateStarSystem(context.Background(), f.owner, CreateStarSystemRequest{Name: "Vega"})
	require.NoError(t, err)
	systemID := uuid.MustParse(created.ID)

	req := UpdateStarSystemRequest{Name: "Vega Prime", Description: "updated"}

	stranger := NewPrincipal(uuid.New(), "intruder", nil)
	_, err = f.svc.UpdateStarSystem(context.Background(), stranger, systemID, req)
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))

	elevated := NewPrincipal(stranger.ID, "intruder", []string{"starsystem:edit_any"})
	updated, err := f.svc.UpdateStarSystem(context.Background(), elevated, systemID, req)
	require.NoError(t, err)
	require.Equal(t, "Vega Prime", updated.Name)

	// The owner id never changes on update.
	require.Equal(t, f.owner.ID.String(), updated.OwnerID)
}

func TestDeleteStarSystemCascades(t *testing.T) {
	f := newStarSystemFixture(t)
	created, err := f.svc.CreateStarSystem(context.Background(), f.owner, CreateStarSystemRequest{Name: "Vega"})
	require.NoError(t, err)
	systemID := uuid.MustParse(created.ID)

	missionID := uuid.New()
	require.NoError(t, f.missions.Create(context.Background(), &model.Mission{
		ID:                    missionID,
		StarSystemID:          systemID,
		Name:                  "Orbital Mechanics",
		TemplateRepositoryURL: "http://gitea.local/forge_admin/" + missionID.String() + ".git",
		OrderInSystem:         1,
		OwnerID:               f.owner.ID,
	}))
	cadetID := uuid.New()
	require.NoError(t, f.progress.Create(context.Background(), &model.CadetMission{
		CadetID:   cadetID,
		MissionID: missionID,
		Status:    model.CadetMissionInProgress,
	}))

	// A failing remote delete must not stop the local cleanup.
	f.gateway.deleteRepoErr = apperr.External("Gitea", "delete failed", nil)
	require.NoError(t, f.svc.DeleteStarSystem(context.Background(), f.owner, systemID))

	_, err = f.starSystems.FindByID(context.Background(), systemID)
	require.Error(t, err)
	_, err = f.missions.FindByID(context.Background(), missionID)
	require.Error(t, err)
	_, err = f.progress.FindByCadetAndMission(context.Background(), cadetID, missionID)
	require.Error(t, err)
	require.Equal(t, 1, f.gateway.callCount("delete-repo "+missionID.String()))
}

func TestGetStarSystemWithMissionsOrders(t *testing.T) {
	f := newStarSystemFixture(t)
	created, err := f.svc.CreateStarSystem(context.Background(), f.owner, CreateStarSystemRequest{Name: "Vega"})
	require.NoError(t, err)
	systemID := uuid.MustParse(created.ID)

	for i, name := range []string{"Third", "First", "Second"} {
		require.NoError(t, f.missions.Create(context.Background(), &model.Mission{
			ID:            uuid.New(),
			StarSystemID:  systemID,
			Name:          name,
			OrderInSystem: 3 - i,
			OwnerID:       f.owner.ID,
		}))
	}

	res, err := f.svc.GetStarSystemWithMissions(context.Background(), f.owner, systemID)
	require.NoError(t, err)
	require.Len(t, res.Missions, 3)
	require.Equal(t, "First", res.Missions[0].Name)
	require.Equal(t, "Second", res.Missions[1].Name)
	require.Equal(t, "Third", res.Missions[2].Name)
}

func TestListOwnStarSystems(t *testing.T) {
	f := newStarSystemFixture(t)
	_, err := f.svc.CreateStarSystem(context.Background(), f.owner, CreateStarSystemRequest{Name: "Vega"})
	require.NoError(t, err)

	other := NewPrincipal(uuid.New(), "other", nil)
	_, err = f.svc.CreateStarSystem(context.Background(), other, CreateStarSystemRequest{Name: "Sirius"})
	require.NoError(t, err)

	mine, err := f.svc.ListOwnStarSystems(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "Vega", mine[0].Name)
}
