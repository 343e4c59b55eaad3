package model

import (
	"time"

	"github.com/google/uuid"
)

// Hotel is the tenant boundary: hotel-scoped admins can only see and manage
// roles, grants and users that belong to their own hotel.
type Hotel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	Slug      string    `gorm:"type:varchar(220);uniqueIndex;not null" json:"slug"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
