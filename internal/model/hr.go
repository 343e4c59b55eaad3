package model

import (
	"time"

	"github.com/google/uuid"
)

// Attendance statuses, derived from check-in/check-out on every save.
const (
	AttendancePresent   = "Present"
	AttendanceHalfDay   = "Half Day"
	AttendanceCheckedIn = "Checked In"
	AttendanceAbsent    = "Absent"
)

// Attendance is one user-day record. Working hours and status are computed,
// never written directly by callers.
type Attendance struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_date" json:"user_id"`
	User         User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Date         time.Time     `gorm:"type:date;not null;uniqueIndex:idx_attendance_user_date" json:"date"`
	CheckIn      *time.Time    `json:"check_in"`
	CheckOut     *time.Time    `json:"check_out"`
	UID          string        `gorm:"type:varchar(20);uniqueIndex" json:"uid"`
	WorkingHours time.Duration `json:"working_hours"`
	Status       string        `gorm:"type:varchar(12);default:'Absent'" json:"status"`
}

// Leave request kinds and statuses.
const (
	LeaveSick   = "Sick"
	LeaveCasual = "Casual"
	LeaveWFH    = "WFH"

	LeavePending  = "Pending"
	LeaveApproved = "Approved"
	LeaveRejected = "Rejected"
)

type Leave struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Date      time.Time `gorm:"type:date;not null" json:"date"`
	LeaveType string    `gorm:"type:varchar(20);not null" json:"leave_type"`
	Status    string    `gorm:"type:varchar(10);default:'Pending'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Holiday struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Date time.Time `gorm:"type:date;uniqueIndex;not null" json:"date"`
	Name string    `gorm:"type:varchar(100);not null" json:"name"`
}

// Task statuses.
const (
	TaskPending    = "Pending"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
)

// Task is assigned to a staff member by an admin or manager. The short UID
// (T-prefixed) is the external identifier.
type Task struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string     `gorm:"type:varchar(200);not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	AssignedToID uuid.UUID  `gorm:"type:uuid;not null;index" json:"assigned_to_id"`
	AssignedTo   User       `gorm:"foreignKey:AssignedToID;constraint:OnDelete:CASCADE;" json:"-"`
	CreatedByID  *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`
	CreatedBy    *User      `gorm:"foreignKey:CreatedByID" json:"-"`
	DueDate      *time.Time `gorm:"type:date" json:"due_date"`
	Status       string     `gorm:"type:varchar(20);default:'Pending'" json:"status"`
	UID          string     `gorm:"type:varchar(20);uniqueIndex" json:"uid"`
	CreatedAt    time.Time  `json:"created_at"`
}
