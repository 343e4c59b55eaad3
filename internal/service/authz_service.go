package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

// methodPermissionCode is the static action-to-permission-kind table: the
// HTTP method of the embedding endpoint decides which code the check needs.
var methodPermissionCode = map[string]string{
	http.MethodPost:   model.PermCreate,
	http.MethodPut:    model.PermUpdate,
	http.MethodPatch:  model.PermUpdate,
	http.MethodDelete: model.PermDelete,
}

// PermissionCodeForMethod maps an HTTP method to the required permission
// code; anything not in the table is a read.
func PermissionCodeForMethod(method string) string {
	if code, ok := methodPermissionCode[method]; ok {
		return code
	}
	return model.PermRead
}

// hotelAllowedModels is the fixed allow-list of resources a hotel admin may
// assign permissions for. Everything else is superuser territory.
var hotelAllowedModels = map[string]bool{
	"Room":               true,
	"Booking":            true,
	"Staff":              true,
	"RestaurantOrder":    true,
	"RoomServiceRequest": true,
}

// Authorizer answers allow/deny for (actor, resource, permission code) and
// enforces the tenant rules that gate grant mutations.
type Authorizer interface {
	IsAllowed(ctx context.Context, actor Actor, modelName, code string) (bool, error)
	CanManageGrant(actor Actor, role *model.Role, appModel *model.AppModel, perm *model.PermissionType) error
	InvalidateCache(roleName string)
}

type grantCacheEntry struct {
	allowed   bool
	expiresAt time.Time
}

type authorizer struct {
	repo     repository.RBACRepository
	cache    sync.Map // "role\x00model\x00code" -> grantCacheEntry
	cacheTTL time.Duration
}

func NewAuthorizer(repo repository.RBACRepository) Authorizer {
	return &authorizer{repo: repo, cacheTTL: 5 * time.Minute}
}

// IsAllowed resolves the actor's role grants. Superusers bypass the grant
// table entirely; an actor without a role is denied.
func (a *authorizer) IsAllowed(ctx context.Context, actor Actor, modelName, code string) (bool, error) {
	if actor.IsSuperuser {
		return true, nil
	}
	if actor.RoleName == "" {
		return false, nil
	}

	key := actor.RoleName + "\x00" + modelName + "\x00" + code
	if entry, ok := a.cache.Load(key); ok {
		cached := entry.(grantCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.allowed, nil
		}
	}

	allowed, err := a.repo.HasGrant(ctx, actor.RoleName, modelName, code)
	if err != nil {
		return false, err
	}

	a.cache.Store(key, grantCacheEntry{allowed: allowed, expiresAt: time.Now().Add(a.cacheTTL)})
	return allowed, nil
}

// CanManageGrant enforces the tenant boundary on grant mutations:
// a hotel admin may only touch grants of roles inside their own hotel, and
// only for models on the hotel allow-list. Non-admin roles may not manage
// grants at all. Returns ErrForbidden so handlers answer 403 without
// revealing whether the grant exists.
func (a *authorizer) CanManageGrant(actor Actor, role *model.Role, appModel *model.AppModel, perm *model.PermissionType) error {
	if actor.IsSuperuser {
		return nil
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	// Role must belong to the admin's hotel.
	if role != nil {
		if role.HotelID == nil || actor.HotelID == nil || *role.HotelID != *actor.HotelID {
			return ErrForbidden
		}
	}

	// Closed code set is validated elsewhere; anything outside it is
	// system-level and never assignable by a hotel admin.
	if perm != nil {
		switch perm.Code {
		case model.PermCreate, model.PermRead, model.PermUpdate, model.PermDelete:
		default:
			return ErrForbidden
		}
	}

	if appModel != nil && !hotelAllowedModels[appModel.Name] {
		return ErrForbidden
	}
	return nil
}

func (a *authorizer) InvalidateCache(roleName string) {
	// Match through the key separator so "Admin" does not also clear
	// entries of a role named "Administrator".
	prefix := roleName + "\x00"
	a.cache.Range(func(key, _ interface{}) bool {
		k := key.(string)
		if roleName == "" || strings.HasPrefix(k, prefix) {
			a.cache.Delete(key)
		}
		return true
	})
}
