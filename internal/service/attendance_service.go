package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/uid"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceResponse struct {
	UID          string     `json:"uid"`
	UserEmail    string     `json:"user_email,omitempty"`
	Date         string     `json:"date"`
	CheckIn      *time.Time `json:"check_in"`
	CheckOut     *time.Time `json:"check_out"`
	WorkingHours string     `json:"working_hours"`
	Status       string     `json:"status"`
}

type MonthlySummary struct {
	UserEmail  string  `json:"user_email"`
	FullName   string  `json:"full_name"`
	Present    int     `json:"present"`
	HalfDay    int     `json:"half_day"`
	Absent     int     `json:"absent"`
	Leaves     int     `json:"leaves"`
	TotalHours float64 `json:"total_hours"`
}

type LeaveRequest struct {
	Date      string `json:"date" binding:"required"`
	LeaveType string `json:"leave_type" binding:"required"`
}

type LeaveStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type LeaveResponse struct {
	ID        uuid.UUID `json:"id"`
	UserEmail string    `json:"user_email"`
	Date      string    `json:"date"`
	LeaveType string    `json:"leave_type"`
	Status    string    `json:"status"`
}

type HolidayRequest struct {
	Date string `json:"date" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type AttendanceService interface {
	CheckIn(ctx context.Context, actor Actor) (*AttendanceResponse, error)
	CheckOut(ctx context.Context, actor Actor) (*AttendanceResponse, error)
	MyAttendance(ctx context.Context, actor Actor, page, limit int) ([]AttendanceResponse, int64, error)
	ByDate(ctx context.Context, date time.Time) ([]AttendanceResponse, error)
	MonthlySummaries(ctx context.Context, year int, month time.Month) ([]MonthlySummary, error)
	ExportMonthlyCSV(ctx context.Context, year int, month time.Month) ([]byte, error)
	RunAutoUpdate(ctx context.Context, now time.Time) error

	RequestLeave(ctx context.Context, actor Actor, req LeaveRequest) (*LeaveResponse, error)
	UpdateLeaveStatus(ctx context.Context, actor Actor, id uuid.UUID, req LeaveStatusRequest) (*LeaveResponse, error)
	ListLeaves(ctx context.Context, actor Actor) ([]LeaveResponse, error)

	CreateHoliday(ctx context.Context, actor Actor, req HolidayRequest) (*model.Holiday, error)
	ListHolidays(ctx context.Context) ([]model.Holiday, error)
}

type attendanceService struct {
	repo     repository.AttendanceRepository
	userRepo repository.UserRepository
	audit    AuditService
}

func NewAttendanceService(repo repository.AttendanceRepository, userRepo repository.UserRepository, audit AuditService) AttendanceService {
	return &attendanceService{repo: repo, userRepo: userRepo, audit: audit}
}

const dateLayout = "2006-01-02"

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckIn opens today's attendance record. A second check-in on the same
// day is rejected.
func (s *attendanceService) CheckIn(ctx context.Context, actor Actor) (*AttendanceResponse, error) {
	now := time.Now()
	today := dateOnly(now)

	att, err := s.repo.FindByUserAndDate(ctx, actor.ID, today)
	if err == nil {
		if att.CheckIn != nil {
			return nil, validationErr("check_in", "Already checked in today.")
		}
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		att = &model.Attendance{
			UserID: actor.ID,
			Date:   today,
			UID:    uid.New("A"),
		}
		if err := s.repo.Create(ctx, att); err != nil {
			return nil, fmt.Errorf("failed to create attendance: %w", err)
		}
	} else {
		return nil, err
	}

	att.CheckIn = &now
	computeAttendance(att)
	if err := s.repo.Update(ctx, att); err != nil {
		return nil, fmt.Errorf("failed to save check-in: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionUpdate, ModelName: "Attendance",
		ObjectID: att.UID, Details: actor.Email + " checked in",
	}); err != nil {
		return nil, err
	}
	return toAttendanceResponse(att, ""), nil
}

func (s *attendanceService) CheckOut(ctx context.Context, actor Actor) (*AttendanceResponse, error) {
	now := time.Now()
	today := dateOnly(now)

	att, err := s.repo.FindByUserAndDate(ctx, actor.ID, today)
	if err != nil {
		// Overnight shift: the open record belongs to yesterday.
		att, err = s.repo.FindByUserAndDate(ctx, actor.ID, today.AddDate(0, 0, -1))
		if err != nil {
			return nil, validationErr("check_out", "No check-in found to close.")
		}
	}
	if att.CheckIn == nil {
		return nil, validationErr("check_out", "No check-in found to close.")
	}
	if att.CheckOut != nil {
		return nil, validationErr("check_out", "Already checked out.")
	}

	att.CheckOut = &now
	computeAttendance(att)
	if err := s.repo.Update(ctx, att); err != nil {
		return nil, fmt.Errorf("failed to save check-out: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionUpdate, ModelName: "Attendance",
		ObjectID: att.UID, Details: actor.Email + " checked out",
	}); err != nil {
		return nil, err
	}
	return toAttendanceResponse(att, ""), nil
}

// computeAttendance derives working hours and status. A checkout earlier
// than the check-in means the shift ran past midnight and rolls one day
// forward. Present needs a full 8 to 9 hour day, anything else counts as
// Half Day.
func computeAttendance(att *model.Attendance) {
	if att.CheckIn == nil {
		att.Status = model.AttendanceAbsent
		att.WorkingHours = 0
		return
	}
	if att.CheckOut == nil {
		att.Status = model.AttendanceCheckedIn
		att.WorkingHours = 0
		return
	}

	out := *att.CheckOut
	if out.Before(*att.CheckIn) {
		out = out.AddDate(0, 0, 1)
	}
	att.WorkingHours = out.Sub(*att.CheckIn)

	h := att.WorkingHours.Hours()
	if h >= 8 && h <= 9 {
		att.Status = model.AttendancePresent
	} else {
		att.Status = model.AttendanceHalfDay
	}
}

func (s *attendanceService) MyAttendance(ctx context.Context, actor Actor, page, limit int) ([]AttendanceResponse, int64, error) {
	records, total, err := s.repo.ListForUser(ctx, actor.ID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]AttendanceResponse, 0, len(records))
	for i := range records {
		res = append(res, *toAttendanceResponse(&records[i], actor.Email))
	}
	return res, total, nil
}

func (s *attendanceService) ByDate(ctx context.Context, date time.Time) ([]AttendanceResponse, error) {
	records, err := s.repo.ListByDate(ctx, dateOnly(date))
	if err != nil {
		return nil, err
	}
	res := make([]AttendanceResponse, 0, len(records))
	for i := range records {
		res = append(res, *toAttendanceResponse(&records[i], records[i].User.Email))
	}
	return res, nil
}

func (s *attendanceService) MonthlySummaries(ctx context.Context, year int, month time.Month) ([]MonthlySummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	records, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID]*MonthlySummary)
	order := []uuid.UUID{}
	for i := range records {
		r := &records[i]
		sum, ok := byUser[r.UserID]
		if !ok {
			sum = &MonthlySummary{UserEmail: r.User.Email, FullName: r.User.FullName}
			byUser[r.UserID] = sum
			order = append(order, r.UserID)
		}
		switch r.Status {
		case model.AttendancePresent:
			sum.Present++
		case model.AttendanceHalfDay:
			sum.HalfDay++
		case model.AttendanceAbsent:
			sum.Absent++
		}
		sum.TotalHours += r.WorkingHours.Hours()
	}

	for userID, sum := range byUser {
		leaves, err := s.repo.CountApprovedLeaves(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
		sum.Leaves = int(leaves)
	}

	res := make([]MonthlySummary, 0, len(order))
	for _, id := range order {
		res = append(res, *byUser[id])
	}
	return res, nil
}

func (s *attendanceService) ExportMonthlyCSV(ctx context.Context, year int, month time.Month) ([]byte, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	records, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Email", "Name", "Date", "Check In", "Check Out", "Hours", "Status"}); err != nil {
		return nil, err
	}
	for i := range records {
		r := &records[i]
		checkIn, checkOut := "", ""
		if r.CheckIn != nil {
			checkIn = r.CheckIn.Format("15:04")
		}
		if r.CheckOut != nil {
			checkOut = r.CheckOut.Format("15:04")
		}
		row := []string{
			r.User.Email,
			r.User.FullName,
			r.Date.Format(dateLayout),
			checkIn,
			checkOut,
			fmt.Sprintf("%.2f", r.WorkingHours.Hours()),
			r.Status,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunAutoUpdate is the scheduled maintenance pass: staff with no record for
// any of the previous three working days are marked Absent, and records
// still open at 23:00 are closed automatically.
func (s *attendanceService) RunAutoUpdate(ctx context.Context, now time.Time) error {
	staff, err := s.userRepo.ListByRoleName(ctx, "Staff")
	if err != nil {
		return err
	}

	holidays, err := s.repo.ListHolidays(ctx)
	if err != nil {
		return err
	}
	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[h.Date.Format(dateLayout)] = true
	}

	for back := 1; back <= 3; back++ {
		day := dateOnly(now).AddDate(0, 0, -back)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		if holidaySet[day.Format(dateLayout)] {
			continue
		}
		for i := range staff {
			u := &staff[i]
			if _, err := s.repo.FindByUserAndDate(ctx, u.ID, day); err == nil {
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			att := &model.Attendance{
				UserID: u.ID,
				Date:   day,
				UID:    uid.New("A"),
				Status: model.AttendanceAbsent,
			}
			if err := s.repo.Create(ctx, att); err != nil {
				return fmt.Errorf("failed to backfill absence: %w", err)
			}
		}
	}

	// Force-close at 23:00 local time anything still checked in today.
	if now.Hour() >= 23 {
		open, err := s.repo.ListOpenForDate(ctx, dateOnly(now))
		if err != nil {
			return err
		}
		cutoff := time.Date(now.Year(), now.Month(), now.Day(), 23, 0, 0, 0, now.Location())
		for i := range open {
			att := &open[i]
			att.CheckOut = &cutoff
			computeAttendance(att)
			if err := s.repo.Update(ctx, att); err != nil {
				return fmt.Errorf("failed to auto close attendance: %w", err)
			}
		}
	}
	return nil
}

// --- Leaves ---

func (s *attendanceService) RequestLeave(ctx context.Context, actor Actor, req LeaveRequest) (*LeaveResponse, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, validationErr("date", "Date must be in YYYY-MM-DD format.")
	}
	switch req.LeaveType {
	case model.LeaveSick, model.LeaveCasual, model.LeaveWFH:
	default:
		return nil, validationErr("leave_type", "Leave type must be one of Sick, Casual, WFH.")
	}

	leave := &model.Leave{
		UserID:    actor.ID,
		Date:      date,
		LeaveType: req.LeaveType,
		Status:    model.LeavePending,
	}
	if err := s.repo.CreateLeave(ctx, leave); err != nil {
		return nil, fmt.Errorf("failed to request leave: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionCreate, ModelName: "Leave",
		ObjectID: leave.ID.String(), Details: actor.Email + " requested " + req.LeaveType + " leave on " + req.Date,
	}); err != nil {
		return nil, err
	}
	return toLeaveResponse(leave, actor.Email), nil
}

func (s *attendanceService) UpdateLeaveStatus(ctx context.Context, actor Actor, id uuid.UUID, req LeaveStatusRequest) (*LeaveResponse, error) {
	if !actor.IsSuperuser && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	switch req.Status {
	case model.LeaveApproved, model.LeaveRejected:
	default:
		return nil, validationErr("status", "Status must be Approved or Rejected.")
	}

	leave, err := s.repo.FindLeaveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, err
	}

	leave.Status = req.Status
	if err := s.repo.UpdateLeave(ctx, leave); err != nil {
		return nil, fmt.Errorf("failed to update leave: %w", err)
	}

	if _, err := s.audit.Record(ctx, AuditEntry{
		Actor: &actor, Action: model.ActionUpdate, ModelName: "Leave",
		ObjectID: leave.ID.String(), Details: "Leave " + req.Status,
	}); err != nil {
		return nil, err
	}
	return toLeaveResponse(leave, leave.User.Email), nil
}

func (s *attendanceService) ListLeaves(ctx context.Context, actor Actor) ([]LeaveResponse, error) {
	var userID *uuid.UUID
	if !actor.IsSuperuser && !actor.IsAdmin() {
		userID = &actor.ID
	}
	leaves, err := s.repo.ListLeaves(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := make([]LeaveResponse, 0, len(leaves))
	for i := range leaves {
		res = append(res, *toLeaveResponse(&leaves[i], leaves[i].User.Email))
	}
	return res, nil
}

// --- Holidays ---

func (s *attendanceService) CreateHoliday(ctx context.Context, actor Actor, req HolidayRequest) (*model.Holiday, error) {
	if !actor.IsSuperuser && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, validationErr("date", "Date must be in YYYY-MM-DD format.")
	}
	holiday := &model.Holiday{Date: date, Name: req.Name}
	if err := s.repo.CreateHoliday(ctx, holiday); err != nil {
		return nil, fmt.Errorf("failed to create holiday: %w", err)
	}
	return holiday, nil
}

func (s *attendanceService) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	return s.repo.ListHolidays(ctx)
}

// --- Helpers ---

func toAttendanceResponse(att *model.Attendance, email string) *AttendanceResponse {
	return &AttendanceResponse{
		UID:          att.UID,
		UserEmail:    email,
		Date:         att.Date.Format(dateLayout),
		CheckIn:      att.CheckIn,
		CheckOut:     att.CheckOut,
		WorkingHours: fmt.Sprintf("%.2f", att.WorkingHours.Hours()),
		Status:       att.Status,
	}
}

func toLeaveResponse(leave *model.Leave, email string) *LeaveResponse {
	return &LeaveResponse{
		ID:        leave.ID,
		UserEmail: email,
		Date:      leave.Date.Format(dateLayout),
		LeaveType: leave.LeaveType,
		Status:    leave.Status,
	}
}
