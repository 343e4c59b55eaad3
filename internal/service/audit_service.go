package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// EventSink receives every recorded audit entry for live fan-out. The
// websocket hub implements it; publishing is best-effort and never blocks
// the recording path.
type EventSink interface {
	Publish(msg []byte)
}

// AuditEntry is one mutation to record. Actor nil means a system action.
type AuditEntry struct {
	Actor     *Actor
	Action    string
	ModelName string
	ObjectID  string
	Details   string
	OldData   interface{}
	NewData   interface{}
	IPAddress string
	UserAgent string
}

type AuditFilter struct {
	UserEmail string // substring match against the actor's email
	Action    string // exact action kind
	Page      int
	Limit     int
}

type AuditLogResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	Action    string `json:"action"`
	ModelName string `json:"model_name"`
	ObjectID  string `json:"object_id"`
	Details   string `json:"details"`
	OldData   string `json:"old_data"`
	NewData   string `json:"new_data"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Timestamp string `json:"timestamp"`
}

type RecentActivity struct {
	Action  string `json:"action"`
	Details string `json:"details"`
	TimeAgo string `json:"time_ago"`
	User    string `json:"user"`
}

type AuditService interface {
	Record(ctx context.Context, entry AuditEntry) (*model.AuditLog, error)
	List(ctx context.Context, actor Actor, filter AuditFilter) ([]AuditLogResponse, int64, error)
	Recent(ctx context.Context, actor Actor) ([]RecentActivity, error)
}

type auditService struct {
	repo repository.AuditRepository
	sink EventSink
}

// NewAuditService creates a new AuditService instance. sink may be nil.
func NewAuditService(repo repository.AuditRepository, sink EventSink) AuditService {
	return &auditService{repo: repo, sink: sink}
}

// Record appends one immutable entry. A storage failure here propagates to
// the caller untouched: audit completeness is a correctness requirement,
// not best-effort.
func (s *auditService) Record(ctx context.Context, entry AuditEntry) (*model.AuditLog, error) {
	log := &model.AuditLog{
		Action:    entry.Action,
		ModelName: entry.ModelName,
		ObjectID:  entry.ObjectID,
		Details:   entry.Details,
		OldData:   marshalSnapshot(entry.OldData),
		NewData:   marshalSnapshot(entry.NewData),
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
	}
	var actorName string
	if entry.Actor != nil {
		id := entry.Actor.ID
		log.UserID = &id
		actorName = entry.Actor.FullName
		if actorName == "" {
			actorName = entry.Actor.Email
		}
	}

	if err := s.repo.Log(ctx, log); err != nil {
		return nil, fmt.Errorf("audit: failed to record entry: %w", err)
	}

	if s.sink != nil {
		event, err := json.Marshal(map[string]interface{}{
			"action":     log.Action,
			"model_name": log.ModelName,
			"object_id":  log.ObjectID,
			"details":    log.Details,
			"user":       actorName,
			"timestamp":  log.CreatedAt.Format(time.RFC3339),
		})
		if err == nil {
			s.sink.Publish(event)
		}
	}

	return log, nil
}

func (s *auditService) List(ctx context.Context, actor Actor, filter AuditFilter) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, repository.AuditQuery{
		VisibleTo:   visibleTo(actor),
		EmailSubstr: filter.UserEmail,
		Action:      filter.Action,
		Page:        filter.Page,
		Limit:       filter.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditResponse(l))
	}
	return res, total, nil
}

// Recent returns the 5 most recent entries visible to the actor with a
// human relative-time label.
func (s *auditService) Recent(ctx context.Context, actor Actor) ([]RecentActivity, error) {
	logs, err := s.repo.Recent(ctx, visibleTo(actor), 5)
	if err != nil {
		return nil, err
	}

	res := make([]RecentActivity, 0, len(logs))
	for _, l := range logs {
		var user string
		if l.User != nil {
			user = l.User.FullName
			if user == "" {
				user = l.User.Email
			}
		}
		res = append(res, RecentActivity{
			Action:  l.Action,
			Details: l.Details,
			TimeAgo: humanize.Time(l.CreatedAt),
			User:    user,
		})
	}
	return res, nil
}

// visibleTo returns nil for superusers (full visibility); everyone else is
// scoped to their own entries plus entries of users they created.
func visibleTo(actor Actor) *uuid.UUID {
	if actor.IsSuperuser {
		return nil
	}
	id := actor.ID
	return &id
}

func marshalSnapshot(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func toAuditResponse(l model.AuditLog) AuditLogResponse {
	res := AuditLogResponse{
		ID:        l.ID.String(),
		Action:    l.Action,
		ModelName: l.ModelName,
		ObjectID:  l.ObjectID,
		Details:   l.Details,
		OldData:   l.OldData,
		NewData:   l.NewData,
		IPAddress: l.IPAddress,
		UserAgent: l.UserAgent,
		Timestamp: l.CreatedAt.Format(time.RFC3339),
	}
	if l.UserID != nil {
		res.UserID = l.UserID.String()
	}
	if l.User != nil {
		res.UserEmail = l.User.Email
	}
	return res
}
