package models

import "fmt"

// Role is the single role an account holds.
type Role string

const (
	RoleSuperuser  Role = "superuser"
	RoleManagement Role = "management"
	RoleDriver     Role = "driver"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
)

// AllRoles lists every valid role.
var AllRoles = []Role{RoleSuperuser, RoleManagement, RoleDriver, RoleTeacher, RoleStudent, RoleParent}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsAdmin reports whether the role administers accounts and buses.
func (r Role) IsAdmin() bool {
	return r == RoleSuperuser || r == RoleManagement
}

// MemberRole is a role a management account may register directly.
type MemberRole string

const (
	MemberTeacher MemberRole = "teacher"
	MemberDriver  MemberRole = "driver"
	MemberStudent MemberRole = "student"
)

// Role maps the member role to the account role.
func (m MemberRole) Role() (Role, bool) {
	switch m {
	case MemberTeacher:
		return RoleTeacher, true
	case MemberDriver:
		return RoleDriver, true
	case MemberStudent:
		return RoleStudent, true
	default:
		return "", false
	}
}

// TripType is the direction of a trip.
type TripType string

const (
	TripMorning TripType = "morning"
	TripEvening TripType = "evening"
)

// Display returns "Morning" or "Evening".
func (t TripType) Display() string {
	switch t {
	case TripMorning:
		return "Morning"
	case TripEvening:
		return "Evening"
	default:
		return string(t)
	}
}

// NotificationType classifies a feed entry.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
)

// ComplaintStatus tracks a complaint through handling.
type ComplaintStatus string

const (
	ComplaintSubmitted ComplaintStatus = "submitted"
	ComplaintInAction  ComplaintStatus = "in_action"
	ComplaintResolved  ComplaintStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintSubmitted, ComplaintInAction, ComplaintResolved:
		return true
	}
	return false
}
