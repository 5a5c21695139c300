package repository_test

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// missionDDL mirrors the schema AutoMigrate derives from model.Mission
// on Postgres, unique indexes included. It is spelled out here because
// the related models carry gen_random_uuid() column defaults that
// sqlite cannot evaluate.
var missionDDL = []string{
	`CREATE TABLE missions (
		id text PRIMARY KEY,
		star_system_id text NOT NULL,
		name text NOT NULL,
		description_markdown text,
		template_repository_url text NOT NULL,
		mission_type text NOT NULL,
		difficulty text NOT NULL,
		order_in_system integer NOT NULL,
		owner_id text NOT NULL,
		verification_status text NOT NULL,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE UNIQUE INDEX idx_missions_system_name ON missions(star_system_id, name)`,
	`CREATE UNIQUE INDEX idx_missions_system_order ON missions(star_system_id, order_in_system)`,
}

func newMissionDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection, so every statement sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range missionDDL {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedMissionRow(t *testing.T, repo repository.MissionRepository, systemID, ownerID uuid.UUID, name string, rank int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, repo.Create(context.Background(), &model.Mission{
		ID:                    id,
		StarSystemID:          systemID,
		Name:                  name,
		TemplateRepositoryURL: "http://gitea.local/forge_admin/" + id.String() + ".git",
		MissionType:           model.MissionTypeCoding,
		Difficulty:            model.DifficultyEasy,
		OrderInSystem:         rank,
		OwnerID:               ownerID,
		VerificationStatus:    model.VerificationDraft,
	}))
	return id
}

func ranksByName(t *testing.T, repo repository.MissionRepository, systemID uuid.UUID) map[string]int {
	t.Helper()
	missions, err := repo.ListByStarSystemOrdered(context.Background(), systemID)
	require.NoError(t, err)
	out := make(map[string]int, len(missions))
	for _, m := range missions {
		out[m.Name] = m.OrderInSystem
	}
	return out
}

func TestShiftOrdersUpOverContiguousBlock(t *testing.T) {
	db := newMissionDB(t)
	repo := repository.NewMissionRepository(db)
	systemID, ownerID := uuid.New(), uuid.New()
	for i, name := range []string{"First", "Second", "Third"} {
		seedMissionRow(t, repo, systemID, ownerID, name, i+1)
	}

	// Shifting {1,2,3} from rank 2 must not trip the unique rank index
	// even though every moved row lands on its neighbour's old rank.
	require.NoError(t, repo.ShiftOrdersUp(context.Background(), systemID, 2))

	require.Equal(t, map[string]int{"First": 1, "Second": 3, "Third": 4},
		ranksByName(t, repo, systemID))
}

func TestShiftOrdersDownOverContiguousBlock(t *testing.T) {
	db := newMissionDB(t)
	repo := repository.NewMissionRepository(db)
	systemID, ownerID := uuid.New(), uuid.New()
	for i, name := range []string{"Second", "Third", "Fourth"} {
		seedMissionRow(t, repo, systemID, ownerID, name, i+2)
	}

	require.NoError(t, repo.ShiftOrdersDown(context.Background(), systemID, 1))

	require.Equal(t, map[string]int{"Second": 1, "Third": 2, "Fourth": 3},
		ranksByName(t, repo, systemID))
}

func TestReserveThenInsertCommitsAgainstRankIndex(t *testing.T) {
	db := newMissionDB(t)
	repo := repository.NewMissionRepository(db)
	tx := repository.NewTransactionManager(db)
	sequencer := service.NewOrderSequencer(repo)
	systemID, ownerID := uuid.New(), uuid.New()
	for i, name := range []string{"First", "Second", "Third"} {
		seedMissionRow(t, repo, systemID, ownerID, name, i+1)
	}

	err := tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		if err := sequencer.Reserve(txCtx, systemID, 2); err != nil {
			return err
		}
		id := uuid.New()
		return repo.Create(txCtx, &model.Mission{
			ID:                    id,
			StarSystemID:          systemID,
			Name:                  "Wedged",
			TemplateRepositoryURL: "http://gitea.local/forge_admin/" + id.String() + ".git",
			MissionType:           model.MissionTypeCoding,
			Difficulty:            model.DifficultyEasy,
			OrderInSystem:         2,
			OwnerID:               ownerID,
			VerificationStatus:    model.VerificationDraft,
		})
	})
	require.NoError(t, err)

	require.Equal(t, map[string]int{"First": 1, "Wedged": 2, "Second": 3, "Third": 4},
		ranksByName(t, repo, systemID))
}

func TestDeleteThenCompactClosesGap(t *testing.T) {
	db := newMissionDB(t)
	repo := repository.NewMissionRepository(db)
	tx := repository.NewTransactionManager(db)
	sequencer := service.NewOrderSequencer(repo)
	systemID, ownerID := uuid.New(), uuid.New()
	ids := make([]uuid.UUID, 0, 3)
	for i, name := range []string{"First", "Second", "Third"} {
		ids = append(ids, seedMissionRow(t, repo, systemID, ownerID, name, i+1))
	}

	err := tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		if err := repo.Delete(txCtx, ids[1]); err != nil {
			return err
		}
		return sequencer.Compact(txCtx, systemID, 2)
	})
	require.NoError(t, err)

	require.Equal(t, map[string]int{"First": 1, "Third": 2},
		ranksByName(t, repo, systemID))
}

func TestShiftLeavesOtherSystemsUntouched(t *testing.T) {
	db := newMissionDB(t)
	repo := repository.NewMissionRepository(db)
	ownerID := uuid.New()
	systemA, systemB := uuid.New(), uuid.New()
	seedMissionRow(t, repo, systemA, ownerID, "Alpha", 1)
	seedMissionRow(t, repo, systemB, ownerID, "Beta", 1)

	require.NoError(t, repo.ShiftOrdersUp(context.Background(), systemA, 1))

	require.Equal(t, map[string]int{"Alpha": 2}, ranksByName(t, repo, systemA))
	require.Equal(t, map[string]int{"Beta": 1}, ranksByName(t, repo, systemB))
}
