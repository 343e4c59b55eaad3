package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/uid"

	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assigned_to" binding:"required"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TaskResponse struct {
	UID         string     `json:"uid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TaskService interface {
	Create(ctx context.Context, actor Actor, req CreateTaskRequest) (*TaskResponse, error)
	MyTasks(ctx context.Context, actor Actor) ([]TaskResponse, error)
	AllTasks(ctx context.Context, page, limit int) ([]TaskResponse, int64, error)
	UpdateStatus(ctx context.Context, actor Actor, taskUID string, req UpdateTaskStatusRequest) (*TaskResponse, error)
}

type taskService struct {
	repo     repository.TaskRepository
	userRepo repository.UserRepository
	audit    AuditService
}

func NewTaskService(repo repository.TaskRepository, userRepo repository.UserRepository, audit AuditService) TaskService {
	return &taskService{repo: repo, userRepo: userRepo, audit: audit}
}

// Create assigns a task to a staff member, identified by user slug.
func (s *taskService) Create(ctx context.Context, actor Actor, req CreateTaskRequest) (*TaskResponse, error) {
	if !actor.IsSuperuser && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	assignee, err := s.userRepo.GetBySlug(ctx, req.AssignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("assigned_to", "User '%s' does not exist.", req.AssignedTo)
		}
		return nil, err
	}
	if assignee.Role == nil || assignee.Role.Name != "Staff" {
		return nil, validationErr("assigned_to", "Tasks can only be assigned to staff members.")
	}

	task := &model.Task{
		Title:        req.Title,
		Description:  req.Description,
		AssignedToID: assignee.ID,
		CreatedByID:  &actor.ID,
		DueDate:      req.DueDate,
		Status:       model.TaskPending,
		UID:          uid.New("T"),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionCreate, ModelName: "Task",
		ObjectID: task.UID, Details: "Assigned task to " + assignee.Email, NewData: task,
	}); err != nil {
		return nil, err
	}

	task.AssignedTo = *assignee
	return toTaskResponse(task), nil
}

func (s *taskService) MyTasks(ctx context.Context, actor Actor) ([]TaskResponse, error) {
	tasks, err := s.repo.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	res := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		res = append(res, *toTaskResponse(&tasks[i]))
	}
	return res, nil
}

func (s *taskService) AllTasks(ctx context.Context, page, limit int) ([]TaskResponse, int64, error) {
	tasks, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		res = append(res, *toTaskResponse(&tasks[i]))
	}
	return res, total, nil
}

// UpdateStatus may be called by the assignee or by an admin.
func (s *taskService) UpdateStatus(ctx context.Context, actor Actor, taskUID string, req UpdateTaskStatusRequest) (*TaskResponse, error) {
	switch req.Status {
	case model.TaskPending, model.TaskInProgress, model.TaskCompleted:
	default:
		return nil, validationErr("status", "Status must be one of Pending, In Progress, Completed.")
	}

	task, err := s.repo.FindByUID(ctx, taskUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.AssignedToID != actor.ID && !actor.IsSuperuser && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	old := task.Status
	task.Status = req.Status
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionUpdate, ModelName: "Task",
		ObjectID: task.UID, Details: fmt.Sprintf("Task status %s -> %s", old, req.Status),
	}); err != nil {
		return nil, err
	}
	return toTaskResponse(task), nil
}

func toTaskResponse(task *model.Task) *TaskResponse {
	return &TaskResponse{
		UID:         task.UID,
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  task.AssignedTo.Email,
		DueDate:     task.DueDate,
		Status:      task.Status,
		CreatedAt:   task.CreatedAt,
	}
}
