package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionCodeForMethod(t *testing.T) {
	assert.Equal(t, model.PermCreate, PermissionCodeForMethod("POST"))
	assert.Equal(t, model.PermUpdate, PermissionCodeForMethod("PUT"))
	assert.Equal(t, model.PermUpdate, PermissionCodeForMethod("PATCH"))
	assert.Equal(t, model.PermDelete, PermissionCodeForMethod("DELETE"))
	assert.Equal(t, model.PermRead, PermissionCodeForMethod("GET"))
	assert.Equal(t, model.PermRead, PermissionCodeForMethod("OPTIONS"))
}

func TestIsAllowedSuperuserBypassesGrants(t *testing.T) {
	env := newTestEnv(t)

	ok, err := env.authz.IsAllowed(context.Background(), superuserActor(), "Room", model.PermDelete)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsAllowedDeniesWithoutRole(t *testing.T) {
	env := newTestEnv(t)
	actor := Actor{ID: uuid.New(), Email: "norole@example.com"}

	ok, err := env.authz.IsAllowed(context.Background(), actor, "Room", model.PermRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsAllowedFollowsGrantTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.perms.BulkCreate(ctx, superuserActor(), BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"r"}},
		},
	})
	require.NoError(t, err)

	staff := Actor{ID: uuid.New(), Email: "s@example.com", RoleName: "Staff"}

	ok, err := env.authz.IsAllowed(ctx, staff, "Room", model.PermRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.authz.IsAllowed(ctx, staff, "Room", model.PermDelete)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.authz.IsAllowed(ctx, staff, "Booking", model.PermRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanManageGrantTenantBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hotelA := &model.Hotel{Name: "Seaside", Slug: "seaside"}
	hotelB := &model.Hotel{Name: "Alpine", Slug: "alpine"}
	require.NoError(t, env.db.Create(hotelA).Error)
	require.NoError(t, env.db.Create(hotelB).Error)

	roleA := &model.Role{Name: "Seaside Reception", Slug: "seaside-reception", HotelID: &hotelA.ID}
	require.NoError(t, env.rbac.CreateRole(ctx, roleA))

	room, err := env.rbac.FindAppModelByName(ctx, "Room")
	require.NoError(t, err)
	auditModel, err := env.rbac.FindAppModelByName(ctx, "AuditLog")
	require.NoError(t, err)
	read, err := env.rbac.FindPermissionTypeByCode(ctx, model.PermRead)
	require.NoError(t, err)

	adminA := Actor{ID: uuid.New(), RoleName: "Admin", HotelID: &hotelA.ID}
	adminB := Actor{ID: uuid.New(), RoleName: "Admin", HotelID: &hotelB.ID}
	staff := Actor{ID: uuid.New(), RoleName: "Staff", HotelID: &hotelA.ID}

	// Admin of the same hotel, allow-listed model: permitted.
	assert.NoError(t, env.authz.CanManageGrant(adminA, roleA, room, read))

	// Admin of another hotel: denied.
	assert.ErrorIs(t, env.authz.CanManageGrant(adminB, roleA, room, read), ErrForbidden)

	// Non-admin: denied.
	assert.ErrorIs(t, env.authz.CanManageGrant(staff, roleA, room, read), ErrForbidden)

	// Model outside the hotel allow-list: denied even for the right admin.
	assert.ErrorIs(t, env.authz.CanManageGrant(adminA, roleA, auditModel, read), ErrForbidden)

	// Superuser ignores all tenant rules.
	assert.NoError(t, env.authz.CanManageGrant(superuserActor(), roleA, auditModel, read))
}

func TestInvalidateCacheMatchesWholeRoleName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.perms.BulkCreate(ctx, superuserActor(), BulkAssignRequest{
		RoleName: "Administrator",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"r"}},
		},
	})
	require.NoError(t, err)

	administrator := Actor{ID: uuid.New(), RoleName: "Administrator"}
	ok, err := env.authz.IsAllowed(ctx, administrator, "Room", model.PermRead)
	require.NoError(t, err)
	require.True(t, ok)

	// Drop the row behind the cache's back so a cache miss would deny.
	require.NoError(t, env.db.Where("slug = ?", "administrator-room-r").
		Delete(&model.RoleModelPermission{}).Error)

	// Invalidating "Admin" must leave the "Administrator" entry alone.
	env.authz.InvalidateCache("Admin")
	ok, err = env.authz.IsAllowed(ctx, administrator, "Room", model.PermRead)
	require.NoError(t, err)
	assert.True(t, ok)

	env.authz.InvalidateCache("Administrator")
	ok, err = env.authz.IsAllowed(ctx, administrator, "Room", model.PermRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateCacheDropsStaleAllow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	root := superuserActor()

	created, err := env.perms.BulkCreate(ctx, root, BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"r"}},
		},
	})
	require.NoError(t, err)

	staff := Actor{ID: uuid.New(), RoleName: "Staff"}
	ok, err := env.authz.IsAllowed(ctx, staff, "Room", model.PermRead)
	require.NoError(t, err)
	require.True(t, ok)

	// Revoking through the service invalidates the cached allow.
	_, err = env.perms.BulkDelete(ctx, root, BulkDeleteRequest{Slugs: created.Created})
	require.NoError(t, err)

	ok, err = env.authz.IsAllowed(ctx, staff, "Room", model.PermRead)
	require.NoError(t, err)
	assert.False(t, ok)
}
