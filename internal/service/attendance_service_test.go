package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttendanceEnv(t *testing.T) (*testEnv, AttendanceService, repository.AttendanceRepository) {
	t.Helper()
	env := newTestEnv(t)
	repo := repository.NewAttendanceRepository(env.db)
	svc := NewAttendanceService(repo, env.users, env.audit)
	return env, svc, repo
}

func at(h, m int) *time.Time {
	ts := time.Date(2026, 8, 10, h, m, 0, 0, time.UTC)
	return &ts
}

func TestComputeAttendanceStatuses(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  *time.Time
		checkOut *time.Time
		status   string
		hours    float64
	}{
		{"no check-in", nil, nil, model.AttendanceAbsent, 0},
		{"open day", at(9, 0), nil, model.AttendanceCheckedIn, 0},
		{"exactly 8h", at(9, 0), at(17, 0), model.AttendancePresent, 8},
		{"exactly 9h", at(9, 0), at(18, 0), model.AttendancePresent, 9},
		{"short day", at(9, 0), at(13, 0), model.AttendanceHalfDay, 4},
		{"overlong day", at(9, 0), at(19, 30), model.AttendanceHalfDay, 10.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := &model.Attendance{CheckIn: tt.checkIn, CheckOut: tt.checkOut}
			computeAttendance(att)
			assert.Equal(t, tt.status, att.Status)
			assert.InDelta(t, tt.hours, att.WorkingHours.Hours(), 0.001)
		})
	}
}

func TestComputeAttendanceOvernight(t *testing.T) {
	// 22:00 in, 06:30 "next morning": checkout timestamp is before check-in
	// and must roll one day forward.
	in := time.Date(2026, 8, 10, 22, 0, 0, 0, time.UTC)
	out := time.Date(2026, 8, 10, 6, 30, 0, 0, time.UTC)
	att := &model.Attendance{CheckIn: &in, CheckOut: &out}
	computeAttendance(att)

	assert.InDelta(t, 8.5, att.WorkingHours.Hours(), 0.001)
	assert.Equal(t, model.AttendancePresent, att.Status)
}

func TestCheckInTwiceRejected(t *testing.T) {
	env, svc, _ := newAttendanceEnv(t)
	user := newTestUser(t, env, "worker@example.com", "Staff")
	actor := ActorFromUser(user)
	ctx := context.Background()

	first, err := svc.CheckIn(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceCheckedIn, first.Status)
	assert.NotEmpty(t, first.UID)

	_, err = svc.CheckIn(ctx, actor)
	assert.True(t, IsValidation(err))
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	env, svc, _ := newAttendanceEnv(t)
	user := newTestUser(t, env, "worker@example.com", "Staff")

	_, err := svc.CheckOut(context.Background(), ActorFromUser(user))
	assert.True(t, IsValidation(err))
}

func TestCheckInThenOut(t *testing.T) {
	env, svc, _ := newAttendanceEnv(t)
	user := newTestUser(t, env, "worker@example.com", "Staff")
	actor := ActorFromUser(user)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, actor)
	require.NoError(t, err)

	out, err := svc.CheckOut(ctx, actor)
	require.NoError(t, err)
	assert.NotNil(t, out.CheckOut)
	// A same-minute checkout is far below 8 hours.
	assert.Equal(t, model.AttendanceHalfDay, out.Status)

	_, err = svc.CheckOut(ctx, actor)
	assert.True(t, IsValidation(err))
}

func TestRunAutoUpdateBackfillsAbsences(t *testing.T) {
	env, svc, repo := newAttendanceEnv(t)
	user := newTestUser(t, env, "worker@example.com", "Staff")
	ctx := context.Background()

	// Wednesday noon: Monday and Tuesday had no records.
	now := time.Date(2026, 8, 12, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RunAutoUpdate(ctx, now))

	for _, day := range []time.Time{
		time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
	} {
		att, err := repo.FindByUserAndDate(ctx, user.ID, day)
		require.NoError(t, err, day)
		assert.Equal(t, model.AttendanceAbsent, att.Status)
	}

	// Sunday the 9th is skipped.
	_, err := repo.FindByUserAndDate(ctx, user.ID, time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestRunAutoUpdateSkipsHolidays(t *testing.T) {
	env, svc, repo := newAttendanceEnv(t)
	user := newTestUser(t, env, "worker@example.com", "Staff")
	ctx := context.Background()

	admin := newTestUser(t, env, "admin@example.com", "Admin")
	_, err := svc.CreateHoliday(ctx, ActorFromUser(admin), HolidayRequest{Date: "2026-08-11", Name: "Founders Day"})
	require.NoError(t, err)

	now := time.Date(2026, 8, 12, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RunAutoUpdate(ctx, now))

	_, err = repo.FindByUserAndDate(ctx, user.ID, time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err, "holiday must not be backfilled as absent")
}

func TestLeaveLifecycle(t *testing.T) {
	env, svc, _ := newAttendanceEnv(t)
	worker := newTestUser(t, env, "worker@example.com", "Staff")
	admin := newTestUser(t, env, "admin@example.com", "Admin")
	ctx := context.Background()

	leave, err := svc.RequestLeave(ctx, ActorFromUser(worker), LeaveRequest{Date: "2026-09-01", LeaveType: model.LeaveSick})
	require.NoError(t, err)
	assert.Equal(t, model.LeavePending, leave.Status)

	_, err = svc.RequestLeave(ctx, ActorFromUser(worker), LeaveRequest{Date: "2026-09-01", LeaveType: "Sabbatical"})
	assert.True(t, IsValidation(err))

	// Workers cannot approve their own leave.
	_, err = svc.UpdateLeaveStatus(ctx, ActorFromUser(worker), leave.ID, LeaveStatusRequest{Status: model.LeaveApproved})
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := svc.UpdateLeaveStatus(ctx, ActorFromUser(admin), leave.ID, LeaveStatusRequest{Status: model.LeaveApproved})
	require.NoError(t, err)
	assert.Equal(t, model.LeaveApproved, approved.Status)

	// Workers list only their own leaves, admins list all.
	mine, err := svc.ListLeaves(ctx, ActorFromUser(worker))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestMonthlySummaryCounts(t *testing.T) {
	env, svc, repo := newAttendanceEnv(t)
	user := newTestUser(t, env, "worker@example.com", "Staff")
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC) }
	in := func(d, h int) *time.Time {
		ts := time.Date(2026, 7, d, h, 0, 0, 0, time.UTC)
		return &ts
	}

	records := []model.Attendance{
		{UserID: user.ID, Date: day(1), CheckIn: in(1, 9), CheckOut: in(1, 17), UID: "A000001"},
		{UserID: user.ID, Date: day(2), CheckIn: in(2, 9), CheckOut: in(2, 13), UID: "A000002"},
		{UserID: user.ID, Date: day(3), UID: "A000003"},
	}
	for i := range records {
		computeAttendance(&records[i])
		require.NoError(t, repo.Create(ctx, &records[i]))
	}

	summaries, err := svc.MonthlySummaries(ctx, 2026, time.July)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	sum := summaries[0]
	assert.Equal(t, 1, sum.Present)
	assert.Equal(t, 1, sum.HalfDay)
	assert.Equal(t, 1, sum.Absent)
	assert.InDelta(t, 12, sum.TotalHours, 0.001)

	csvData, err := svc.ExportMonthlyCSV(ctx, 2026, time.July)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	require.Len(t, lines, 4) // header plus one row per day
	assert.Equal(t, "Email,Name,Date,Check In,Check Out,Hours,Status", lines[0])
	assert.Contains(t, lines[1], "worker@example.com")
	assert.Contains(t, lines[1], "2026-07-01")
	assert.Contains(t, lines[1], "8.00")
	assert.Contains(t, lines[1], model.AttendancePresent)
	assert.Contains(t, lines[3], model.AttendanceAbsent)
}
