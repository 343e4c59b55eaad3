package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the central account entity. Users created by an admin carry a
// created_by reference back to their creator; that chain also scopes audit
// log visibility.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email               string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone               string         `gorm:"type:varchar(20);uniqueIndex" json:"phone"`
	FullName            string         `gorm:"type:varchar(100)" json:"full_name"`
	Slug                string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Password            string         `gorm:"type:varchar(255);not null" json:"-"`
	RoleID              *uuid.UUID     `gorm:"type:uuid;index" json:"role_id,omitempty"`
	Role                *Role          `gorm:"foreignKey:RoleID" json:"-"`
	HotelID             *uuid.UUID     `gorm:"type:uuid;index" json:"hotel_id,omitempty"`
	Hotel               *Hotel         `gorm:"foreignKey:HotelID" json:"-"`
	IsSuperuser         bool           `gorm:"default:false" json:"is_superuser"`
	IsActive            bool           `gorm:"default:false" json:"is_active"`
	IsEmailVerified     bool           `gorm:"default:false" json:"is_email_verified"`
	ForcePasswordChange bool           `gorm:"default:false" json:"force_password_change"` // Must change password on first login or after admin reset
	CreatedByID         *uuid.UUID     `gorm:"type:uuid;index" json:"created_by_id,omitempty"`
	CreatedBy           *User          `gorm:"foreignKey:CreatedByID" json:"-"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"date_joined"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// Profile holds the HR details for a user. Every user owns exactly one
// profile, created in the same transaction as the user itself. The delete
// code must be quoted back before the account can be removed.
type Profile struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	FullName    string     `gorm:"type:varchar(200)" json:"full_name"`
	Phone       string     `gorm:"type:varchar(15)" json:"phone"`
	Department  string     `gorm:"type:varchar(100)" json:"department"`
	Designation string     `gorm:"type:varchar(100)" json:"designation"`
	JoinDate    *time.Time `gorm:"type:date" json:"join_date"`
	Slug        string     `gorm:"type:varchar(250);uniqueIndex;not null" json:"slug"`
	DeleteCode  string     `gorm:"type:varchar(10);uniqueIndex" json:"-"`
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
