package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditQuery narrows the audit log listing. When VisibleTo is set, only
// entries belonging to that user or to users they created are returned;
// superusers query with VisibleTo nil and see everything.
type AuditQuery struct {
	VisibleTo   *uuid.UUID
	EmailSubstr string // case-insensitive substring match on the actor's email
	Action      string // exact match, case-insensitive
	Page, Limit int
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, q AuditQuery) ([]model.AuditLog, int64, error)
	Recent(ctx context.Context, visibleTo *uuid.UUID, n int) ([]model.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) scope(ctx context.Context, q AuditQuery) *gorm.DB {
	db := GetDB(ctx, r.db).Model(&model.AuditLog{})

	if q.VisibleTo != nil {
		db = db.Where(
			"user_id = ? OR user_id IN (SELECT id FROM users WHERE created_by_id = ?)",
			*q.VisibleTo, *q.VisibleTo,
		)
	}
	if q.EmailSubstr != "" {
		db = db.Where(
			"user_id IN (SELECT id FROM users WHERE LOWER(email) LIKE LOWER(?))",
			"%"+q.EmailSubstr+"%",
		)
	}
	if q.Action != "" {
		db = db.Where("LOWER(action) = LOWER(?)", q.Action)
	}
	return db
}

func (r *auditRepository) List(ctx context.Context, q AuditQuery) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	if err := r.scope(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	err := r.scope(ctx, q).
		Preload("User").
		Order("created_at desc").
		Offset(offset).Limit(q.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *auditRepository) Recent(ctx context.Context, visibleTo *uuid.UUID, n int) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.scope(ctx, AuditQuery{VisibleTo: visibleTo}).
		Preload("User").
		Order("created_at desc").
		Limit(n).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
