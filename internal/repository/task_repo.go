package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	FindByUID(ctx context.Context, uid string) (*model.Task, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	ListAll(ctx context.Context, page, limit int) ([]model.Task, int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return GetDB(ctx, r.db).Create(task).Error
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return GetDB(ctx, r.db).Save(task).Error
}

func (r *taskRepository) FindByUID(ctx context.Context, uid string) (*model.Task, error) {
	var task model.Task
	if err := GetDB(ctx, r.db).Preload("AssignedTo").Where("uid = ?", uid).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := GetDB(ctx, r.db).
		Where("assigned_to_id = ?", userID).
		Order("created_at desc").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) ListAll(ctx context.Context, page, limit int) ([]model.Task, int64, error) {
	var tasks []model.Task
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Task{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("AssignedTo").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
