package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGrantRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := superuserActor()

	grant, err := env.perms.CreateGrant(ctx, actor, CreateGrantRequest{
		Role: "staff", Model: "room", PermissionType: "read",
	})
	require.NoError(t, err)
	assert.Equal(t, "staff-room-r", grant.Slug)

	_, err = env.perms.CreateGrant(ctx, actor, CreateGrantRequest{
		Role: "staff", Model: "room", PermissionType: "read",
	})
	assert.ErrorIs(t, err, ErrPermissionExists)

	grants, err := env.perms.ListGrants(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
}

func TestCreateGrantUnknownSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := superuserActor()

	_, err := env.perms.CreateGrant(ctx, actor, CreateGrantRequest{
		Role: "no-such-role", Model: "room", PermissionType: "read",
	})
	assert.ErrorIs(t, err, ErrRoleNotFound)

	_, err = env.perms.CreateGrant(ctx, actor, CreateGrantRequest{
		Role: "staff", Model: "no-such-model", PermissionType: "read",
	})
	assert.ErrorIs(t, err, ErrAppModelNotFound)
}

func TestBulkCreateIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := superuserActor()

	req := BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"c", "r"}},
			{ModelSlug: "booking", PermissionSlugs: []string{"r"}},
		},
	}

	first, err := env.perms.BulkCreate(ctx, actor, req)
	require.NoError(t, err)
	assert.Len(t, first.Created, 3)

	// Replaying the same request creates nothing new.
	second, err := env.perms.BulkCreate(ctx, actor, req)
	require.NoError(t, err)
	assert.Empty(t, second.Created)

	grants, err := env.perms.ListGrants(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, grants, 3)
}

func TestBulkCreateUpsertsRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := superuserActor()

	_, err := env.perms.BulkCreate(ctx, actor, BulkAssignRequest{
		RoleName: "Night Auditor",
		Permissions: []PermissionBlock{
			{ModelSlug: "booking", PermissionSlugs: []string{"r"}},
		},
	})
	require.NoError(t, err)

	role, err := env.rbac.FindRoleByName(ctx, "night auditor")
	require.NoError(t, err)
	assert.Equal(t, "Night Auditor", role.Name)
	assert.Equal(t, "night-auditor", role.Slug)
}

func TestBulkCreateEmptyPermissions(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.perms.BulkCreate(context.Background(), superuserActor(), BulkAssignRequest{
		RoleName: "Staff",
	})
	assert.True(t, IsValidation(err))
}

func TestBulkCreateRollsBackOnBadModel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := superuserActor()

	_, err := env.perms.BulkCreate(ctx, actor, BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"c", "r"}},
			{ModelSlug: "does-not-exist", PermissionSlugs: []string{"r"}},
		},
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// The valid first block must not have been committed.
	grants, err := env.perms.ListGrants(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestBulkUpdateReconciles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := superuserActor()

	_, err := env.perms.BulkCreate(ctx, actor, BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"c", "r"}},
		},
	})
	require.NoError(t, err)

	// Desired state drops "c" and adds "u".
	result, err := env.perms.BulkUpdate(ctx, actor, BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"r", "u"}},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.Updated, 1)
	assert.Len(t, result.Removed, 1)

	grants, err := env.perms.ListGrants(ctx, actor)
	require.NoError(t, err)
	codes := map[string]bool{}
	for _, g := range grants {
		codes[g.PermissionName] = true
	}
	assert.True(t, codes["Read"])
	assert.True(t, codes["Update"])
	assert.False(t, codes["Create"])
}

func TestBulkUpdateLeavesOtherModelsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := superuserActor()

	_, err := env.perms.BulkCreate(ctx, actor, BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"r"}},
			{ModelSlug: "booking", PermissionSlugs: []string{"r"}},
		},
	})
	require.NoError(t, err)

	_, err = env.perms.BulkUpdate(ctx, actor, BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"c"}},
		},
	})
	require.NoError(t, err)

	// Booking grant untouched.
	ok, err := env.rbac.HasGrant(ctx, "Staff", "Booking", "r")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBulkDeleteSkipsUnknownSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := superuserActor()

	created, err := env.perms.BulkCreate(ctx, actor, BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"r", "u"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Created, 2)

	result, err := env.perms.BulkDelete(ctx, actor, BulkDeleteRequest{
		Slugs: []string{created.Created[0], "ghost-slug"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{created.Created[0]}, result.Deleted)

	grants, err := env.perms.ListGrants(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
}

func TestBulkDeleteEmptySlugs(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.perms.BulkDelete(context.Background(), superuserActor(), BulkDeleteRequest{})
	assert.True(t, IsValidation(err))
}

func TestSeedDefaultsIsRepeatable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// newTestEnv already seeded once.
	require.NoError(t, env.perms.SeedDefaults(ctx))

	perms, err := env.perms.ListPermissionTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, 4)

	roles, err := env.perms.ListRoles(ctx, superuserActor())
	require.NoError(t, err)
	assert.Len(t, roles, 4)
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.perms.CreateRole(ctx, superuserActor(), CreateRoleRequest{Name: "staff"})
	assert.True(t, IsValidation(err))
}

func TestListGrantsTenantScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hotel := &model.Hotel{Name: "Seaside", Slug: "seaside"}
	require.NoError(t, env.db.Create(hotel).Error)

	hotelAdmin := Actor{ID: uuid.New(), Email: "admin@seaside.test", RoleName: "Admin", HotelID: &hotel.ID}
	_, err := env.perms.BulkCreate(ctx, hotelAdmin, BulkAssignRequest{
		RoleName: "Front Desk",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"c", "r"}},
		},
	})
	require.NoError(t, err)

	_, err = env.perms.BulkCreate(ctx, superuserActor(), BulkAssignRequest{
		RoleName: "Staff",
		Permissions: []PermissionBlock{
			{ModelSlug: "room", PermissionSlugs: []string{"r"}},
		},
	})
	require.NoError(t, err)

	slugsOf := func(grants []GrantResponse) []string {
		out := make([]string, 0, len(grants))
		for _, g := range grants {
			out = append(out, g.Slug)
		}
		return out
	}

	all, err := env.perms.ListGrants(ctx, superuserActor())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	seaside, err := env.perms.ListGrants(ctx, hotelAdmin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"front-desk-room-c", "front-desk-room-r"}, slugsOf(seaside))

	// An admin without a hotel is scoped to hotel-less roles; the Seaside
	// grants stay invisible.
	floating := Actor{ID: uuid.New(), Email: "hq@example.com", RoleName: "Admin"}
	visible, err := env.perms.ListGrants(ctx, floating)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"staff-room-r"}, slugsOf(visible))
}

func TestCreatePermissionTypeRejectsUnknownCode(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.perms.CreatePermissionType(context.Background(), superuserActor(), CreatePermissionTypeRequest{
		Name: "Execute", Code: "x",
	})
	assert.True(t, IsValidation(err))
}
