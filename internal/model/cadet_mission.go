package model

import (
	"time"

	"github.com/google/uuid"
)

// CadetMissionStatus tracks a student's progress on one mission.
type CadetMissionStatus string

const (
	CadetMissionInProgress CadetMissionStatus = "IN_PROGRESS"
	CadetMissionCompleted  CadetMissionStatus = "COMPLETED"
)

// CadetMission links a cadet to a mission they started. One row per
// (cadet, mission); RepositoryURL points at the cadet's own working
// copy seeded from the mission repository.
type CadetMission struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CadetID       uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_cadet_missions_pair" json:"cadet_id"`
	Cadet         Cadet              `gorm:"foreignKey:CadetID" json:"-"`
	MissionID     uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_cadet_missions_pair" json:"mission_id"`
	Mission       Mission            `gorm:"foreignKey:MissionID" json:"-"`
	Status        CadetMissionStatus `gorm:"type:varchar(20);not null" json:"status"`
	RepositoryURL string             `gorm:"type:varchar(512)" json:"repository_url"`
	StartedAt     *time.Time         `json:"started_at"`
	CompletedAt   *time.Time         `json:"completed_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}
