package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateStarSystem = "CREATE_STAR_SYSTEM"
	ActionUpdateStarSystem = "UPDATE_STAR_SYSTEM"
	ActionDeleteStarSystem = "DELETE_STAR_SYSTEM"

	ActionInitializeMission = "INITIALIZE_MISSION"
	ActionSaveMissionForge  = "SAVE_MISSION_FORGE"
	ActionUpdateMission     = "UPDATE_MISSION"
	ActionDeleteMission     = "DELETE_MISSION"
	ActionStartMission      = "START_MISSION"
	ActionVerifyMission     = "VERIFY_MISSION"

	ActionCreateCadet = "CREATE_CADET"
	ActionDeleteCadet = "DELETE_CADET"
	ActionCreateRole  = "CREATE_ROLE"
	ActionDeleteRole  = "DELETE_ROLE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CadetID    *uuid.UUID `gorm:"type:uuid;index" json:"cadet_id"` // nil for automated callers (verification pipeline)
	Cadet      *Cadet     `gorm:"foreignKey:CadetID" json:"cadet"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
