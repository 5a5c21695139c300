package model

import (
	"time"

	"github.com/google/uuid"
)

// Cadet represents a platform user. Every cadet has a mirrored account
// on the Gitea instance (GiteaUserID) so mission repositories can be
// shared with them as collaborators.
type Cadet struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string     `gorm:"type:varchar(255)" json:"full_name"`
	AvatarURL    string     `gorm:"type:varchar(512)" json:"avatar_url"`
	GiteaUserID  *int64     `json:"gitea_user_id,omitempty"`
	Roles        []Role     `gorm:"many2many:cadet_roles;" json:"roles"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// PermissionNames returns the union of role names and the names of every
// permission attached to those roles. Role names count as authorities so
// routes can gate on e.g. "ROLE_ADMIN" directly.
func (c *Cadet) PermissionNames() []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(c.Roles))
	for _, role := range c.Roles {
		if _, ok := seen[role.Name]; !ok {
			seen[role.Name] = struct{}{}
			names = append(names, role.Name)
		}
		for _, perm := range role.Permissions {
			if _, ok := seen[perm.Name]; !ok {
				seen[perm.Name] = struct{}{}
				names = append(names, perm.Name)
			}
		}
	}
	return names
}
