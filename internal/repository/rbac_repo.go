package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RBACRepository is the data access layer for the permission catalogs and
// the grant table. All methods resolve the transaction from context, so the
// bulk reconciler can run every mutation of one batch inside a single tx.
type RBACRepository interface {
	// Role catalog
	CreateRole(ctx context.Context, role *model.Role) error
	UpdateRole(ctx context.Context, role *model.Role) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	FindRoleBySlug(ctx context.Context, slug string) (*model.Role, error)
	ListRoles(ctx context.Context, hotelID *uuid.UUID) ([]model.Role, error)
	RoleSlugExists(ctx context.Context, slug string) bool

	// AppModel catalog
	CreateAppModel(ctx context.Context, m *model.AppModel) error
	UpdateAppModel(ctx context.Context, m *model.AppModel) error
	DeleteAppModel(ctx context.Context, id uuid.UUID) error
	FindAppModelByName(ctx context.Context, name string) (*model.AppModel, error)
	FindAppModelBySlug(ctx context.Context, slug string) (*model.AppModel, error)
	ListAppModels(ctx context.Context) ([]model.AppModel, error)
	AppModelSlugExists(ctx context.Context, slug string) bool

	// PermissionType catalog
	CreatePermissionType(ctx context.Context, p *model.PermissionType) error
	FindPermissionTypeByCode(ctx context.Context, code string) (*model.PermissionType, error)
	FindPermissionTypeBySlug(ctx context.Context, slug string) (*model.PermissionType, error)
	ListPermissionTypes(ctx context.Context) ([]model.PermissionType, error)
	PermissionTypeSlugExists(ctx context.Context, slug string) bool

	// Grant table
	CreateGrant(ctx context.Context, g *model.RoleModelPermission) error
	DeleteGrant(ctx context.Context, id uuid.UUID) error
	FindGrant(ctx context.Context, roleID, modelID, permID uuid.UUID) (*model.RoleModelPermission, error)
	FindGrantBySlug(ctx context.Context, slug string) (*model.RoleModelPermission, error)
	ListGrantsForRoleModel(ctx context.Context, roleID, modelID uuid.UUID) ([]model.RoleModelPermission, error)
	ListGrants(ctx context.Context, scope GrantScope) ([]model.RoleModelPermission, error)
	GrantSlugExists(ctx context.Context, slug string) bool
	HasGrant(ctx context.Context, roleName, modelName, code string) (bool, error)
}

type rbacRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) RBACRepository {
	return &rbacRepository{db: db}
}

// --- Roles ---

func (r *rbacRepository) CreateRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *rbacRepository) UpdateRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *rbacRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Role{}).Error
}

func (r *rbacRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("LOWER(name) = LOWER(?)", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rbacRepository) FindRoleBySlug(ctx context.Context, slug string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("slug = ?", slug).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rbacRepository) ListRoles(ctx context.Context, hotelID *uuid.UUID) ([]model.Role, error) {
	var roles []model.Role
	q := GetDB(ctx, r.db).Order("name asc")
	if hotelID != nil {
		q = q.Where("hotel_id = ?", *hotelID)
	}
	if err := q.Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *rbacRepository) RoleSlugExists(ctx context.Context, slug string) bool {
	var count int64
	GetDB(ctx, r.db).Model(&model.Role{}).Where("slug = ?", slug).Count(&count)
	return count > 0
}

// --- App models ---

func (r *rbacRepository) CreateAppModel(ctx context.Context, m *model.AppModel) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *rbacRepository) UpdateAppModel(ctx context.Context, m *model.AppModel) error {
	return GetDB(ctx, r.db).Save(m).Error
}

func (r *rbacRepository) DeleteAppModel(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.AppModel{}).Error
}

func (r *rbacRepository) FindAppModelByName(ctx context.Context, name string) (*model.AppModel, error) {
	var m model.AppModel
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *rbacRepository) FindAppModelBySlug(ctx context.Context, slug string) (*model.AppModel, error) {
	var m model.AppModel
	if err := GetDB(ctx, r.db).Where("slug = ?", slug).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *rbacRepository) ListAppModels(ctx context.Context) ([]model.AppModel, error) {
	var models []model.AppModel
	if err := GetDB(ctx, r.db).Order("name asc").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

func (r *rbacRepository) AppModelSlugExists(ctx context.Context, slug string) bool {
	var count int64
	GetDB(ctx, r.db).Model(&model.AppModel{}).Where("slug = ?", slug).Count(&count)
	return count > 0
}

// --- Permission types ---

func (r *rbacRepository) CreatePermissionType(ctx context.Context, p *model.PermissionType) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *rbacRepository) FindPermissionTypeByCode(ctx context.Context, code string) (*model.PermissionType, error) {
	var p model.PermissionType
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *rbacRepository) FindPermissionTypeBySlug(ctx context.Context, slug string) (*model.PermissionType, error) {
	var p model.PermissionType
	if err := GetDB(ctx, r.db).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *rbacRepository) ListPermissionTypes(ctx context.Context) ([]model.PermissionType, error) {
	var perms []model.PermissionType
	if err := GetDB(ctx, r.db).Order("code asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *rbacRepository) PermissionTypeSlugExists(ctx context.Context, slug string) bool {
	var count int64
	GetDB(ctx, r.db).Model(&model.PermissionType{}).Where("slug = ?", slug).Count(&count)
	return count > 0
}

// --- Grants ---

func (r *rbacRepository) CreateGrant(ctx context.Context, g *model.RoleModelPermission) error {
	return GetDB(ctx, r.db).Create(g).Error
}

func (r *rbacRepository) DeleteGrant(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.RoleModelPermission{}).Error
}

func (r *rbacRepository) FindGrant(ctx context.Context, roleID, modelID, permID uuid.UUID) (*model.RoleModelPermission, error) {
	var g model.RoleModelPermission
	err := GetDB(ctx, r.db).
		Where("role_id = ? AND model_id = ? AND permission_type_id = ?", roleID, modelID, permID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *rbacRepository) FindGrantBySlug(ctx context.Context, slug string) (*model.RoleModelPermission, error) {
	var g model.RoleModelPermission
	err := GetDB(ctx, r.db).
		Preload("Role").Preload("Model").Preload("PermissionType").
		Where("slug = ?", slug).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *rbacRepository) ListGrantsForRoleModel(ctx context.Context, roleID, modelID uuid.UUID) ([]model.RoleModelPermission, error) {
	var grants []model.RoleModelPermission
	err := GetDB(ctx, r.db).
		Preload("PermissionType").
		Where("role_id = ? AND model_id = ?", roleID, modelID).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// GrantScope narrows a grant listing to the roles a caller may see. The
// zero value matches only roles without a hotel, so a tenant filter is
// always applied unless All is set explicitly.
type GrantScope struct {
	All     bool
	HotelID *uuid.UUID
}

func (r *rbacRepository) ListGrants(ctx context.Context, scope GrantScope) ([]model.RoleModelPermission, error) {
	var grants []model.RoleModelPermission
	q := GetDB(ctx, r.db).
		Preload("Role").Preload("Model").Preload("PermissionType").
		Order("role_model_permissions.created_at asc")
	if !scope.All {
		q = q.Joins("JOIN roles ON roles.id = role_model_permissions.role_id")
		if scope.HotelID != nil {
			q = q.Where("roles.hotel_id = ?", *scope.HotelID)
		} else {
			q = q.Where("roles.hotel_id IS NULL")
		}
	}
	if err := q.Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *rbacRepository) GrantSlugExists(ctx context.Context, slug string) bool {
	var count int64
	GetDB(ctx, r.db).Model(&model.RoleModelPermission{}).Where("slug = ?", slug).Count(&count)
	return count > 0
}

// HasGrant answers the authorization check: does roleName hold code on
// modelName. Single join query, no preloading.
func (r *rbacRepository) HasGrant(ctx context.Context, roleName, modelName, code string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.RoleModelPermission{}).
		Joins("JOIN roles ON roles.id = role_model_permissions.role_id").
		Joins("JOIN app_models ON app_models.id = role_model_permissions.model_id").
		Joins("JOIN permission_types ON permission_types.id = role_model_permissions.permission_type_id").
		Where("LOWER(roles.name) = LOWER(?) AND app_models.name = ? AND permission_types.code = ?",
			roleName, modelName, code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
