package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/slugify"

	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateAppModelRequest struct {
	Name        string `json:"name" binding:"required"`
	VerboseName string `json:"verbose_name"`
	Description string `json:"description"`
	AppLabel    string `json:"app_label"`
}

type CreatePermissionTypeRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

// CreateGrantRequest is the strict single-grant path: all three sides are
// referenced by slug, and a duplicate triple is a conflict, not a no-op.
type CreateGrantRequest struct {
	Role           string `json:"role" binding:"required"`
	Model          string `json:"model" binding:"required"`
	PermissionType string `json:"permission_type" binding:"required"`
}

// PermissionBlock describes the desired permission codes for one model.
type PermissionBlock struct {
	ModelSlug       string   `json:"model_slug" binding:"required"`
	PermissionSlugs []string `json:"permission_slugs" binding:"required"`
}

type BulkAssignRequest struct {
	RoleName    string            `json:"role_name" binding:"required"`
	Permissions []PermissionBlock `json:"permissions"`
}

type BulkDeleteRequest struct {
	Slugs []string `json:"slugs"`
}

type BulkCreateResult struct {
	Created []string `json:"created"`
}

type BulkUpdateResult struct {
	Updated []string `json:"updated"`
	Removed []string `json:"removed"`
}

type BulkDeleteResult struct {
	Deleted []string `json:"deleted"`
}

type RoleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	HotelID     string `json:"hotel_id,omitempty"`
}

type AppModelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	VerboseName string `json:"verbose_name"`
	Description string `json:"description"`
	AppLabel    string `json:"app_label"`
}

type PermissionTypeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Code string `json:"code"`
}

type GrantResponse struct {
	ID             string `json:"id"`
	Role           string `json:"role"`
	Model          string `json:"model"`
	PermissionType string `json:"permission_type"`
	RoleName       string `json:"role_name"`
	ModelName      string `json:"model_name"`
	PermissionName string `json:"permission_name"`
	Slug           string `json:"slug"`
}

// --- Interface ---

// PermissionService owns the three catalogs, the grant table and the bulk
// reconciler. Every bulk operation runs inside one transaction: a failure
// partway never leaves earlier blocks committed.
type PermissionService interface {
	ListRoles(ctx context.Context, actor Actor) ([]RoleResponse, error)
	GetRole(ctx context.Context, slug string) (*RoleResponse, error)
	CreateRole(ctx context.Context, actor Actor, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, actor Actor, slug string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, actor Actor, slug string) error

	ListAppModels(ctx context.Context) ([]AppModelResponse, error)
	GetAppModel(ctx context.Context, slug string) (*AppModelResponse, error)
	CreateAppModel(ctx context.Context, actor Actor, req CreateAppModelRequest) (*AppModelResponse, error)
	DeleteAppModel(ctx context.Context, actor Actor, slug string) error

	ListPermissionTypes(ctx context.Context) ([]PermissionTypeResponse, error)
	CreatePermissionType(ctx context.Context, actor Actor, req CreatePermissionTypeRequest) (*PermissionTypeResponse, error)

	ListGrants(ctx context.Context, actor Actor) ([]GrantResponse, error)
	CreateGrant(ctx context.Context, actor Actor, req CreateGrantRequest) (*GrantResponse, error)
	DeleteGrant(ctx context.Context, actor Actor, slug string) error

	BulkCreate(ctx context.Context, actor Actor, req BulkAssignRequest) (*BulkCreateResult, error)
	BulkUpdate(ctx context.Context, actor Actor, req BulkAssignRequest) (*BulkUpdateResult, error)
	BulkDelete(ctx context.Context, actor Actor, req BulkDeleteRequest) (*BulkDeleteResult, error)

	SeedDefaults(ctx context.Context) error
}

type permissionService struct {
	repo  repository.RBACRepository
	tx    repository.TransactionManager
	audit AuditService
	authz Authorizer
}

func NewPermissionService(repo repository.RBACRepository, tx repository.TransactionManager, audit AuditService, authz Authorizer) PermissionService {
	return &permissionService{repo: repo, tx: tx, audit: audit, authz: authz}
}

// --- Roles ---

func (s *permissionService) ListRoles(ctx context.Context, actor Actor) ([]RoleResponse, error) {
	var hotelID = actor.HotelID
	if actor.IsSuperuser {
		hotelID = nil
	}
	roles, err := s.repo.ListRoles(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *permissionService) GetRole(ctx context.Context, slug string) (*RoleResponse, error) {
	role, err := s.repo.FindRoleBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *permissionService) CreateRole(ctx context.Context, actor Actor, req CreateRoleRequest) (*RoleResponse, error) {
	if _, err := s.repo.FindRoleByName(ctx, req.Name); err == nil {
		return nil, validationErr("name", "A role with this name already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := &model.Role{
		Name:        req.Name,
		Slug:        slugify.Unique(req.Name, func(slug string) bool { return s.repo.RoleSlugExists(ctx, slug) }),
		Description: req.Description,
	}
	// Hotel admins only ever create roles inside their own hotel.
	if !actor.IsSuperuser {
		role.HotelID = actor.HotelID
	}

	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionCreate, ModelName: "Role",
		ObjectID: role.Slug, Details: "Created role " + role.Name, NewData: role,
	}); err != nil {
		return nil, err
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *permissionService) UpdateRole(ctx context.Context, actor Actor, slug string, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.repo.FindRoleBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	if err := s.authz.CanManageGrant(actor, role, nil, nil); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindRoleByName(ctx, req.Name); err == nil && existing.ID != role.ID {
		return nil, validationErr("name", "A role with this name already exists.")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	old := *role
	role.Name = req.Name
	role.Description = req.Description
	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.authz.InvalidateCache(old.Name)

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionUpdate, ModelName: "Role",
		ObjectID: role.Slug, Details: "Updated role " + role.Name, OldData: old, NewData: role,
	}); err != nil {
		return nil, err
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *permissionService) DeleteRole(ctx context.Context, actor Actor, slug string) error {
	role, err := s.repo.FindRoleBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	if err := s.authz.CanManageGrant(actor, role, nil, nil); err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		// Revoke all grants of the role before removing it.
		all, err := s.repo.ListGrants(txCtx, repository.GrantScope{All: true})
		if err != nil {
			return err
		}
		for _, g := range all {
			if g.RoleID == role.ID {
				if err := s.repo.DeleteGrant(txCtx, g.ID); err != nil {
					return err
				}
			}
		}
		if err := s.repo.DeleteRole(txCtx, role.ID); err != nil {
			return err
		}
		_, err = s.audit.Record(txCtx, AuditEntry{
			Actor: &actor, Action: model.ActionDelete, ModelName: "Role",
			ObjectID: role.Slug, Details: "Deleted role " + role.Name, OldData: role,
		})
		return err
	})
	if err != nil {
		return err
	}
	s.authz.InvalidateCache(role.Name)
	return nil
}

// --- App models ---

func (s *permissionService) ListAppModels(ctx context.Context) ([]AppModelResponse, error) {
	models, err := s.repo.ListAppModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch app models: %w", err)
	}
	res := make([]AppModelResponse, 0, len(models))
	for _, m := range models {
		res = append(res, toAppModelResponse(m))
	}
	return res, nil
}

func (s *permissionService) GetAppModel(ctx context.Context, slug string) (*AppModelResponse, error) {
	m, err := s.repo.FindAppModelBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppModelNotFound
		}
		return nil, err
	}
	resp := toAppModelResponse(*m)
	return &resp, nil
}

func (s *permissionService) CreateAppModel(ctx context.Context, actor Actor, req CreateAppModelRequest) (*AppModelResponse, error) {
	if _, err := s.repo.FindAppModelByName(ctx, req.Name); err == nil {
		return nil, validationErr("name", "A model with this name already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	m := &model.AppModel{
		Name:        req.Name,
		Slug:        slugify.Unique(req.Name, func(slug string) bool { return s.repo.AppModelSlugExists(ctx, slug) }),
		VerboseName: req.VerboseName,
		Description: req.Description,
		AppLabel:    req.AppLabel,
	}
	if err := s.repo.CreateAppModel(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create app model: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionCreate, ModelName: "AppModel",
		ObjectID: m.Slug, Details: "Registered model " + m.Name, NewData: m,
	}); err != nil {
		return nil, err
	}

	resp := toAppModelResponse(*m)
	return &resp, nil
}

func (s *permissionService) DeleteAppModel(ctx context.Context, actor Actor, slug string) error {
	m, err := s.repo.FindAppModelBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAppModelNotFound
		}
		return err
	}
	if err := s.repo.DeleteAppModel(ctx, m.ID); err != nil {
		return err
	}
	_, err = s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionDelete, ModelName: "AppModel",
		ObjectID: m.Slug, Details: "Removed model " + m.Name, OldData: m,
	})
	return err
}

// --- Permission types ---

func (s *permissionService) ListPermissionTypes(ctx context.Context) ([]PermissionTypeResponse, error) {
	perms, err := s.repo.ListPermissionTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permission types: %w", err)
	}
	res := make([]PermissionTypeResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionTypeResponse(p))
	}
	return res, nil
}

func (s *permissionService) CreatePermissionType(ctx context.Context, actor Actor, req CreatePermissionTypeRequest) (*PermissionTypeResponse, error) {
	switch req.Code {
	case model.PermCreate, model.PermRead, model.PermUpdate, model.PermDelete:
	default:
		return nil, validationErr("code", "Code must be one of 'c', 'r', 'u', 'd'.")
	}

	p := &model.PermissionType{
		Name: req.Name,
		Slug: slugify.Unique(req.Name, func(slug string) bool { return s.repo.PermissionTypeSlugExists(ctx, slug) }),
		Code: req.Code,
	}
	if err := s.repo.CreatePermissionType(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create permission type: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionCreate, ModelName: "PermissionType",
		ObjectID: p.Slug, Details: "Created permission type " + p.Name, NewData: p,
	}); err != nil {
		return nil, err
	}

	resp := toPermissionTypeResponse(*p)
	return &resp, nil
}

// --- Grants ---

func (s *permissionService) ListGrants(ctx context.Context, actor Actor) ([]GrantResponse, error) {
	if !actor.IsSuperuser && !actor.IsAdmin() {
		// Non-admin roles have no visibility into the grant table.
		return []GrantResponse{}, nil
	}
	// A hotel admin without a hotel sees only hotel-less roles, never
	// another tenant's grants.
	scope := repository.GrantScope{All: actor.IsSuperuser, HotelID: actor.HotelID}
	grants, err := s.repo.ListGrants(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	res := make([]GrantResponse, 0, len(grants))
	for _, g := range grants {
		res = append(res, toGrantResponse(g))
	}
	return res, nil
}

// CreateGrant is the strict path: a duplicate (role, model, permission)
// triple is rejected with ErrPermissionExists rather than returned as-is.
func (s *permissionService) CreateGrant(ctx context.Context, actor Actor, req CreateGrantRequest) (*GrantResponse, error) {
	role, err := s.repo.FindRoleBySlug(ctx, req.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	appModel, err := s.repo.FindAppModelBySlug(ctx, req.Model)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppModelNotFound
		}
		return nil, err
	}
	perm, err := s.repo.FindPermissionTypeBySlug(ctx, req.PermissionType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionTypeNotFound
		}
		return nil, err
	}

	if err := s.authz.CanManageGrant(actor, role, appModel, perm); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindGrant(ctx, role.ID, appModel.ID, perm.ID); err == nil {
		return nil, ErrPermissionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	grant := &model.RoleModelPermission{
		RoleID:           role.ID,
		ModelID:          appModel.ID,
		PermissionTypeID: perm.ID,
		Slug:             s.grantSlug(ctx, role, appModel, perm),
	}
	if err := s.repo.CreateGrant(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to assign permission: %w", err)
	}
	s.authz.InvalidateCache(role.Name)

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionCreate, ModelName: "RoleModelPermission",
		ObjectID: grant.Slug,
		Details:  fmt.Sprintf("Granted %s on %s to %s", perm.Name, appModel.Name, role.Name),
		NewData:  grant,
	}); err != nil {
		return nil, err
	}

	grant.Role = *role
	grant.Model = *appModel
	grant.PermissionType = *perm
	resp := toGrantResponse(*grant)
	return &resp, nil
}

func (s *permissionService) DeleteGrant(ctx context.Context, actor Actor, slug string) error {
	grant, err := s.repo.FindGrantBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGrantNotFound
		}
		return err
	}
	if err := s.authz.CanManageGrant(actor, &grant.Role, &grant.Model, &grant.PermissionType); err != nil {
		return err
	}
	if err := s.repo.DeleteGrant(ctx, grant.ID); err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	s.authz.InvalidateCache(grant.Role.Name)

	_, err = s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionDelete, ModelName: "RoleModelPermission",
		ObjectID: grant.Slug,
		Details:  fmt.Sprintf("Revoked %s on %s from %s", grant.PermissionType.Name, grant.Model.Name, grant.Role.Name),
		OldData:  grant,
	})
	return err
}

// --- Bulk reconciler ---

// BulkCreate resolves (or creates) the role by name, then create-or-fetches
// every requested grant. Only grants that did not exist before are reported
// back. Any unresolvable slug aborts the whole transaction.
func (s *permissionService) BulkCreate(ctx context.Context, actor Actor, req BulkAssignRequest) (*BulkCreateResult, error) {
	if len(req.Permissions) == 0 {
		return nil, validationErr("permissions", "Permissions list cannot be empty.")
	}

	result := &BulkCreateResult{Created: []string{}}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.upsertRoleByName(txCtx, actor, req.RoleName)
		if err != nil {
			return err
		}
		for _, block := range req.Permissions {
			appModel, err := s.resolveModel(txCtx, block.ModelSlug)
			if err != nil {
				return err
			}
			for _, code := range block.PermissionSlugs {
				created, slug, err := s.ensureGrant(txCtx, actor, role, appModel, code)
				if err != nil {
					return err
				}
				if created {
					result.Created = append(result.Created, slug)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.authz.InvalidateCache(req.RoleName)
	return result, nil
}

// BulkUpdate reconciles the existing grant set per (role, model) block
// against the desired codes: missing codes are created, surplus codes are
// removed. Models not mentioned in the request are left untouched.
func (s *permissionService) BulkUpdate(ctx context.Context, actor Actor, req BulkAssignRequest) (*BulkUpdateResult, error) {
	if len(req.Permissions) == 0 {
		return nil, validationErr("permissions", "Permissions list cannot be empty.")
	}

	result := &BulkUpdateResult{Updated: []string{}, Removed: []string{}}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.upsertRoleByName(txCtx, actor, req.RoleName)
		if err != nil {
			return err
		}
		for _, block := range req.Permissions {
			appModel, err := s.resolveModel(txCtx, block.ModelSlug)
			if err != nil {
				return err
			}

			existing, err := s.repo.ListGrantsForRoleModel(txCtx, role.ID, appModel.ID)
			if err != nil {
				return err
			}
			existingByCode := make(map[string]model.RoleModelPermission, len(existing))
			for _, g := range existing {
				existingByCode[g.PermissionType.Code] = g
			}
			desired := make(map[string]bool, len(block.PermissionSlugs))
			for _, code := range block.PermissionSlugs {
				desired[code] = true
			}

			for _, code := range block.PermissionSlugs {
				if _, ok := existingByCode[code]; ok {
					continue
				}
				created, slug, err := s.ensureGrant(txCtx, actor, role, appModel, code)
				if err != nil {
					return err
				}
				if created {
					result.Updated = append(result.Updated, slug)
				}
			}

			for code, g := range existingByCode {
				if desired[code] {
					continue
				}
				if err := s.authz.CanManageGrant(actor, role, appModel, &g.PermissionType); err != nil {
					return err
				}
				if err := s.repo.DeleteGrant(txCtx, g.ID); err != nil {
					return err
				}
				if _, err := s.audit.Record(txCtx, AuditEntry{
					Actor: &actor, Action: model.ActionDelete, ModelName: "RoleModelPermission",
					ObjectID: g.Slug,
					Details:  fmt.Sprintf("Revoked %s on %s from %s", code, appModel.Name, role.Name),
					OldData:  g,
				}); err != nil {
					return err
				}
				result.Removed = append(result.Removed, g.Slug)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.authz.InvalidateCache(req.RoleName)
	return result, nil
}

// BulkDelete revokes each grant identified by slug. Unknown slugs are
// skipped silently and excluded from the reported list.
func (s *permissionService) BulkDelete(ctx context.Context, actor Actor, req BulkDeleteRequest) (*BulkDeleteResult, error) {
	if len(req.Slugs) == 0 {
		return nil, validationErr("slugs", "List of slugs cannot be empty.")
	}

	result := &BulkDeleteResult{Deleted: []string{}}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, slug := range req.Slugs {
			grant, err := s.repo.FindGrantBySlug(txCtx, slug)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if err := s.authz.CanManageGrant(actor, &grant.Role, &grant.Model, &grant.PermissionType); err != nil {
				return err
			}
			if err := s.repo.DeleteGrant(txCtx, grant.ID); err != nil {
				return err
			}
			if _, err := s.audit.Record(txCtx, AuditEntry{
				Actor: &actor, Action: model.ActionDelete, ModelName: "RoleModelPermission",
				ObjectID: grant.Slug,
				Details:  fmt.Sprintf("Revoked %s on %s from %s", grant.PermissionType.Name, grant.Model.Name, grant.Role.Name),
				OldData:  grant,
			}); err != nil {
				return err
			}
			s.authz.InvalidateCache(grant.Role.Name)
			result.Deleted = append(result.Deleted, grant.Slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --- Internals ---

// upsertRoleByName returns the existing role matching name
// (case-insensitively) or creates it. Roles created by a hotel admin are
// bound to that admin's hotel.
func (s *permissionService) upsertRoleByName(ctx context.Context, actor Actor, name string) (*model.Role, error) {
	role, err := s.repo.FindRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = &model.Role{
		Name: name,
		Slug: slugify.Unique(name, func(slug string) bool { return s.repo.RoleSlugExists(ctx, slug) }),
	}
	if !actor.IsSuperuser {
		role.HotelID = actor.HotelID
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}

func (s *permissionService) resolveModel(ctx context.Context, slug string) (*model.AppModel, error) {
	appModel, err := s.repo.FindAppModelBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("model_slug", "Invalid model slug: %s. This model does not exist.", slug)
		}
		return nil, err
	}
	return appModel, nil
}

// ensureGrant create-or-fetches a grant idempotently and reports whether a
// new row was created.
func (s *permissionService) ensureGrant(ctx context.Context, actor Actor, role *model.Role, appModel *model.AppModel, code string) (bool, string, error) {
	perm, err := s.repo.FindPermissionTypeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "", validationErr("permission_slugs", "Invalid permission: %s", code)
		}
		return false, "", err
	}

	if err := s.authz.CanManageGrant(actor, role, appModel, perm); err != nil {
		return false, "", err
	}

	if existing, err := s.repo.FindGrant(ctx, role.ID, appModel.ID, perm.ID); err == nil {
		return false, existing.Slug, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, "", err
	}

	grant := &model.RoleModelPermission{
		RoleID:           role.ID,
		ModelID:          appModel.ID,
		PermissionTypeID: perm.ID,
		Slug:             s.grantSlug(ctx, role, appModel, perm),
	}
	if err := s.repo.CreateGrant(ctx, grant); err != nil {
		return false, "", fmt.Errorf("failed to assign permission: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionCreate, ModelName: "RoleModelPermission",
		ObjectID: grant.Slug,
		Details:  fmt.Sprintf("Granted %s on %s to %s", perm.Name, appModel.Name, role.Name),
		NewData:  grant,
	}); err != nil {
		return false, "", err
	}

	return true, grant.Slug, nil
}

func (s *permissionService) grantSlug(ctx context.Context, role *model.Role, appModel *model.AppModel, perm *model.PermissionType) string {
	base := role.Slug + "-" + appModel.Slug + "-" + perm.Code
	return slugify.Unique(base, func(slug string) bool { return s.repo.GrantSlugExists(ctx, slug) })
}

// --- Seeding ---

var defaultAppModels = []model.AppModel{
	{Name: "User", VerboseName: "User", AppLabel: "accounts"},
	{Name: "Role", VerboseName: "Role", AppLabel: "mbp"},
	{Name: "AppModel", VerboseName: "App Model", AppLabel: "mbp"},
	{Name: "PermissionType", VerboseName: "Permission Type", AppLabel: "mbp"},
	{Name: "RoleModelPermission", VerboseName: "Role Model Permission", AppLabel: "mbp"},
	{Name: "AuditLog", VerboseName: "Audit Log", AppLabel: "mbp"},
	{Name: "Room", VerboseName: "Room", AppLabel: "hotel"},
	{Name: "Booking", VerboseName: "Booking", AppLabel: "hotel"},
	{Name: "Staff", VerboseName: "Staff", AppLabel: "hotel"},
	{Name: "RestaurantOrder", VerboseName: "Restaurant Order", AppLabel: "restaurant"},
	{Name: "RoomServiceRequest", VerboseName: "Room Service Request", AppLabel: "hotel"},
	{Name: "Attendance", VerboseName: "Attendance", AppLabel: "hrm"},
	{Name: "Task", VerboseName: "Task", AppLabel: "hrm"},
	{Name: "Leave", VerboseName: "Leave", AppLabel: "hrm"},
}

var defaultPermissionTypes = []model.PermissionType{
	{Name: "Create", Code: model.PermCreate},
	{Name: "Read", Code: model.PermRead},
	{Name: "Update", Code: model.PermUpdate},
	{Name: "Delete", Code: model.PermDelete},
}

var defaultRoles = []model.Role{
	{Name: "Super Admin", Description: "Full system access"},
	{Name: "Admin", Description: "Hotel administrator"},
	{Name: "Staff", Description: "Hotel staff member"},
	{Name: "Customer", Description: "Self-registered customer"},
}

// SeedDefaults upserts the reference catalogs: the four permission types,
// the built-in app models and the built-in roles. Safe to run on every
// startup.
func (s *permissionService) SeedDefaults(ctx context.Context) error {
	for i := range defaultPermissionTypes {
		p := defaultPermissionTypes[i]
		if _, err := s.repo.FindPermissionTypeByCode(ctx, p.Code); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p.Slug = slugify.Unique(p.Name, func(slug string) bool { return s.repo.PermissionTypeSlugExists(ctx, slug) })
		if err := s.repo.CreatePermissionType(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed permission type '%s': %w", p.Name, err)
		}
	}

	for i := range defaultAppModels {
		m := defaultAppModels[i]
		if _, err := s.repo.FindAppModelByName(ctx, m.Name); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		m.Slug = slugify.Unique(m.Name, func(slug string) bool { return s.repo.AppModelSlugExists(ctx, slug) })
		if err := s.repo.CreateAppModel(ctx, &m); err != nil {
			return fmt.Errorf("failed to seed app model '%s': %w", m.Name, err)
		}
	}

	for i := range defaultRoles {
		r := defaultRoles[i]
		if _, err := s.repo.FindRoleByName(ctx, r.Name); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		r.Slug = slugify.Unique(r.Name, func(slug string) bool { return s.repo.RoleSlugExists(ctx, slug) })
		if err := s.repo.CreateRole(ctx, &r); err != nil {
			return fmt.Errorf("failed to seed role '%s': %w", r.Name, err)
		}
	}

	return nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	res := RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
	}
	if r.HotelID != nil {
		res.HotelID = r.HotelID.String()
	}
	return res
}

func toAppModelResponse(m model.AppModel) AppModelResponse {
	return AppModelResponse{
		ID:          m.ID.String(),
		Name:        m.Name,
		Slug:        m.Slug,
		VerboseName: m.VerboseName,
		Description: m.Description,
		AppLabel:    m.AppLabel,
	}
}

func toPermissionTypeResponse(p model.PermissionType) PermissionTypeResponse {
	return PermissionTypeResponse{
		ID:   p.ID.String(),
		Name: p.Name,
		Slug: p.Slug,
		Code: p.Code,
	}
}

func toGrantResponse(g model.RoleModelPermission) GrantResponse {
	return GrantResponse{
		ID:             g.ID.String(),
		Role:           g.Role.Slug,
		Model:          g.Model.Slug,
		PermissionType: g.PermissionType.Slug,
		RoleName:       g.Role.Name,
		ModelName:      g.Model.Name,
		PermissionName: g.PermissionType.Name,
		Slug:           g.Slug,
	}
}
