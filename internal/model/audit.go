package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
)

// AuditLog tracks who did what and when. Entries are append-only: no update
// or delete path exists anywhere in the codebase, and the timestamp is set
// once at creation.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable: system actions have no actor
	User      *User      `gorm:"foreignKey:UserID" json:"-"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	ModelName string     `gorm:"type:varchar(100);index" json:"model_name"`
	ObjectID  string     `gorm:"type:varchar(64);index" json:"object_id"`
	Details   string     `gorm:"type:text" json:"details"`
	OldData   string     `gorm:"type:jsonb" json:"old_data"` // Snapshot before the mutation
	NewData   string     `gorm:"type:jsonb" json:"new_data"` // Snapshot after the mutation
	IPAddress string     `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string     `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt time.Time  `gorm:"index" json:"timestamp"`
}
