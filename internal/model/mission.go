package model

import (
	"time"

	"github.com/google/uuid"
)

// MissionType classifies what kind of assignment a mission is.
type MissionType string

const (
	MissionTypeCoding  MissionType = "CODING"
	MissionTypeQuiz    MissionType = "QUIZ"
	MissionTypeProject MissionType = "PROJECT"
)

// Difficulty is the advertised difficulty of a mission.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Mission is a single assignment inside a star system, backed by one
// Gitea repository. The repository is named after the mission ID so the
// verification pipeline can address the mission from a repo name alone.
//
// (name, star_system_id) and (order_in_system, star_system_id) are both
// unique; order shifts run inside the same transaction as the
// triggering insert/delete and detour through negative rank values so
// the non-deferrable rank index never sees a duplicate mid-statement.
type Mission struct {
	ID                    uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	StarSystemID          uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_missions_system_name;uniqueIndex:idx_missions_system_order" json:"star_system_id"`
	StarSystem            StarSystem         `gorm:"foreignKey:StarSystemID" json:"-"`
	Name                  string             `gorm:"type:varchar(255);not null;uniqueIndex:idx_missions_system_name" json:"name"`
	DescriptionMarkdown   string             `gorm:"type:text" json:"description_markdown"`
	TemplateRepositoryURL string             `gorm:"type:varchar(512);not null" json:"-"`
	MissionType           MissionType        `gorm:"type:varchar(50);not null" json:"mission_type"`
	Difficulty            Difficulty         `gorm:"type:varchar(50);not null" json:"difficulty"`
	OrderInSystem         int                `gorm:"not null;uniqueIndex:idx_missions_system_order" json:"order_in_system"`
	OwnerID               uuid.UUID          `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner                 Cadet              `gorm:"foreignKey:OwnerID" json:"-"`
	VerificationStatus    VerificationStatus `gorm:"type:varchar(20);not null" json:"verification_status"`
	CreatedAt             time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}
