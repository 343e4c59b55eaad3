package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceRepository interface {
	Create(ctx context.Context, att *model.Attendance) error
	Update(ctx context.Context, att *model.Attendance) error
	FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.Attendance, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Attendance, int64, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.Attendance, error)
	ListRange(ctx context.Context, from, to time.Time) ([]model.Attendance, error)
	ListOpenForDate(ctx context.Context, date time.Time) ([]model.Attendance, error)

	CreateLeave(ctx context.Context, leave *model.Leave) error
	UpdateLeave(ctx context.Context, leave *model.Leave) error
	FindLeaveByID(ctx context.Context, id uuid.UUID) (*model.Leave, error)
	ListLeaves(ctx context.Context, userID *uuid.UUID) ([]model.Leave, error)
	CountApprovedLeaves(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error)

	CreateHoliday(ctx context.Context, holiday *model.Holiday) error
	ListHolidays(ctx context.Context) ([]model.Holiday, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, att *model.Attendance) error {
	return GetDB(ctx, r.db).Create(att).Error
}

func (r *attendanceRepository) Update(ctx context.Context, att *model.Attendance) error {
	return GetDB(ctx, r.db).Save(att).Error
}

func (r *attendanceRepository) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.Attendance, error) {
	var att model.Attendance
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND date = ?", userID, date).
		First(&att).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *attendanceRepository) ListForUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Attendance, int64, error) {
	var records []model.Attendance
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Attendance{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("date desc").
		Offset(offset).Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *attendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]model.Attendance, error) {
	var records []model.Attendance
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("date = ?", date).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) ListRange(ctx context.Context, from, to time.Time) ([]model.Attendance, error) {
	var records []model.Attendance
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("date >= ? AND date < ?", from, to).
		Order("date asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListOpenForDate returns records with a check-in but no check-out yet.
func (r *attendanceRepository) ListOpenForDate(ctx context.Context, date time.Time) ([]model.Attendance, error) {
	var records []model.Attendance
	err := GetDB(ctx, r.db).
		Where("date = ? AND check_in IS NOT NULL AND check_out IS NULL", date).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// --- Leaves ---

func (r *attendanceRepository) CreateLeave(ctx context.Context, leave *model.Leave) error {
	return GetDB(ctx, r.db).Create(leave).Error
}

func (r *attendanceRepository) UpdateLeave(ctx context.Context, leave *model.Leave) error {
	return GetDB(ctx, r.db).Save(leave).Error
}

func (r *attendanceRepository) FindLeaveByID(ctx context.Context, id uuid.UUID) (*model.Leave, error) {
	var leave model.Leave
	if err := GetDB(ctx, r.db).Preload("User").First(&leave, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &leave, nil
}

func (r *attendanceRepository) ListLeaves(ctx context.Context, userID *uuid.UUID) ([]model.Leave, error) {
	var leaves []model.Leave
	q := GetDB(ctx, r.db).Preload("User").Order("date desc")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if err := q.Find(&leaves).Error; err != nil {
		return nil, err
	}
	return leaves, nil
}

func (r *attendanceRepository) CountApprovedLeaves(ctx context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.Leave{}).
		Where("user_id = ? AND status = ? AND date >= ? AND date < ?", userID, model.LeaveApproved, from, to).
		Count(&count).Error
	return count, err
}

// --- Holidays ---

func (r *attendanceRepository) CreateHoliday(ctx context.Context, holiday *model.Holiday) error {
	return GetDB(ctx, r.db).Create(holiday).Error
}

func (r *attendanceRepository) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	var holidays []model.Holiday
	if err := GetDB(ctx, r.db).Order("date asc").Find(&holidays).Error; err != nil {
		return nil, err
	}
	return holidays, nil
}
