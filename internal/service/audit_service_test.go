package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordFor(t *testing.T, env *testEnv, user *model.User, action, details string) {
	t.Helper()
	actor := ActorFromUser(user)
	_, err := env.audit.Record(context.Background(), AuditEntry{
		Actor: &actor, Action: action, ModelName: "Booking",
		ObjectID: "b-1", Details: details,
	})
	require.NoError(t, err)
}

func TestAuditVisibilityScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := newTestUser(t, env, "admin@example.com", "Admin")
	stranger := newTestUser(t, env, "stranger@example.com", "Staff")

	// worker was created by admin.
	worker := newTestUser(t, env, "worker@example.com", "Staff")
	worker.CreatedByID = &admin.ID
	require.NoError(t, env.users.Update(ctx, worker))

	recordFor(t, env, admin, model.ActionCreate, "admin action")
	recordFor(t, env, worker, model.ActionUpdate, "worker action")
	recordFor(t, env, stranger, model.ActionDelete, "stranger action")

	// Admin sees own entries plus the worker's, not the stranger's.
	logs, total, err := env.audit.List(ctx, ActorFromUser(admin), AuditFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	details := map[string]bool{}
	for _, l := range logs {
		details[l.Details] = true
	}
	assert.True(t, details["admin action"])
	assert.True(t, details["worker action"])
	assert.False(t, details["stranger action"])

	// The worker only sees themselves.
	_, total, err = env.audit.List(ctx, ActorFromUser(worker), AuditFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// Superusers see everything (including seed-less system entries).
	_, total, err = env.audit.List(ctx, superuserActor(), AuditFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestAuditFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := newTestUser(t, env, "alice@example.com", "Staff")
	bob := newTestUser(t, env, "bob@example.com", "Staff")

	recordFor(t, env, alice, model.ActionCreate, "alice created")
	recordFor(t, env, alice, model.ActionDelete, "alice deleted")
	recordFor(t, env, bob, model.ActionCreate, "bob created")

	root := superuserActor()

	logs, total, err := env.audit.List(ctx, root, AuditFilter{Action: "create", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, l := range logs {
		assert.Equal(t, model.ActionCreate, l.Action)
	}

	_, total, err = env.audit.List(ctx, root, AuditFilter{UserEmail: "alice", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, total, err = env.audit.List(ctx, root, AuditFilter{UserEmail: "alice", Action: "delete", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestAuditRecentLabels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := newTestUser(t, env, "recent@example.com", "Staff")
	for i := 0; i < 7; i++ {
		recordFor(t, env, user, model.ActionUpdate, "change")
	}

	activity, err := env.audit.Recent(ctx, superuserActor())
	require.NoError(t, err)
	require.Len(t, activity, 5)
	for _, a := range activity {
		assert.Equal(t, model.ActionUpdate, a.Action)
		assert.NotEmpty(t, a.TimeAgo)
		assert.Equal(t, "recent@example.com", a.User)
	}
}

func TestAuditRecordSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := newTestUser(t, env, "snap@example.com", "Staff")
	actor := ActorFromUser(user)

	entry, err := env.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionUpdate, ModelName: "Room",
		ObjectID: "r-1",
		OldData:  map[string]string{"status": "free"},
		NewData:  map[string]string{"status": "occupied"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"free"}`, entry.OldData)
	assert.JSONEq(t, `{"status":"occupied"}`, entry.NewData)
}
