package service

import (
	"context"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type testEnv struct {
	db    *gorm.DB
	rbac  repository.RBACRepository
	users repository.UserRepository
	audit AuditService
	authz Authorizer
	perms PermissionService
}

// nopSink discards broadcast events in tests.
type nopSink struct{}

func (nopSink) Publish([]byte) {}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	rbacRepo := repository.NewRBACRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	tx := repository.NewTransactionManager(db)

	auditSvc := NewAuditService(auditRepo, nopSink{})
	authz := NewAuthorizer(rbacRepo)
	perms := NewPermissionService(rbacRepo, tx, auditSvc, authz)

	require.NoError(t, perms.SeedDefaults(context.Background()))

	return &testEnv{
		db:    db,
		rbac:  rbacRepo,
		users: userRepo,
		audit: auditSvc,
		authz: authz,
		perms: perms,
	}
}

func superuserActor() Actor {
	return Actor{
		ID:          uuid.New(),
		Email:       "root@example.com",
		FullName:    "Root",
		RoleName:    "Super Admin",
		IsSuperuser: true,
	}
}

// newTestUser inserts an account with the named role and returns it with the
// role preloaded.
func newTestUser(t *testing.T, env *testEnv, email, roleName string) *model.User {
	t.Helper()
	ctx := context.Background()

	var roleID *uuid.UUID
	if roleName != "" {
		role, err := env.rbac.FindRoleByName(ctx, roleName)
		require.NoError(t, err)
		roleID = &role.ID
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Email:    email,
		Phone:    email, // unique per test user
		FullName: email,
		Slug:     email,
		Password: string(hashed),
		RoleID:   roleID,
		IsActive: true,
	}
	require.NoError(t, env.users.Create(ctx, user))

	loaded, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	return loaded
}
