package service

import (
	"strings"

	"github.com/google/uuid"
)

// Actor is the authenticated caller as carried in the JWT claims. An empty
// RoleName means the user has no role assigned and is denied everything
// except reads of their own data.
type Actor struct {
	ID          uuid.UUID
	Email       string
	FullName    string
	RoleName    string
	HotelID     *uuid.UUID
	IsSuperuser bool
}

// IsAdmin reports whether the actor carries the admin role marker. Hotel
// admins are admins scoped to a hotel; only superusers escape tenant rules.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.RoleName, "admin") || strings.EqualFold(a.RoleName, "super admin")
}
