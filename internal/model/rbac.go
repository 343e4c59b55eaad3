package model

import (
	"time"

	"github.com/google/uuid"
)

// Permission type codes. The catalog is a closed set: anything outside
// these four values is rejected at validation time.
const (
	PermCreate = "c"
	PermRead   = "r"
	PermUpdate = "u"
	PermDelete = "d"
)

// Role groups grants for a set of users. HotelID nil means a global/system
// role that is not bound to any single hotel.
type Role struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug        string     `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	HotelID     *uuid.UUID `gorm:"type:uuid;index" json:"hotel_id,omitempty"`
	Hotel       *Hotel     `gorm:"foreignKey:HotelID" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AppModel is an addressable resource that permissions are defined against.
// Static reference data, seeded at startup and rarely touched afterwards.
type AppModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	VerboseName string    `gorm:"type:varchar(255)" json:"verbose_name"`
	Description string    `gorm:"type:text" json:"description"`
	AppLabel    string    `gorm:"type:varchar(50);index" json:"app_label"`
}

// PermissionType is one of the four CRUD kinds.
type PermissionType struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Code string    `gorm:"type:varchar(1);uniqueIndex;not null" json:"code"`
}

// RoleModelPermission grants one permission type on one app model to one
// role. The (role, model, permission_type) triple is globally unique; the
// slug is the external-safe identifier used by the bulk endpoints.
type RoleModelPermission struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_role_model_perm" json:"role_id"`
	Role             Role           `gorm:"foreignKey:RoleID" json:"-"`
	ModelID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_role_model_perm" json:"model_id"`
	Model            AppModel       `gorm:"foreignKey:ModelID" json:"-"`
	PermissionTypeID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_role_model_perm" json:"permission_type_id"`
	PermissionType   PermissionType `gorm:"foreignKey:PermissionTypeID" json:"-"`
	Slug             string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	CreatedAt        time.Time      `json:"created_at"`
}
