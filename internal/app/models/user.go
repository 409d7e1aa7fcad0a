package models

import (
	"strings"
	"time"
)

// Default organization schedule.
var (
	DefaultMorningArrival   = NewTimeOfDay(9, 0, 0)
	DefaultEveningDeparture = NewTimeOfDay(16, 0, 0)
)

// User defines the user model based on the 'users' table
type User struct {
	ID                   int64      `json:"id" db:"id" example:"1"`
	Username             string     `json:"username" db:"username" example:"jdoe"`
	Email                string     `json:"email" db:"email" example:"jdoe@school.edu"`
	Password             string     `json:"-" db:"password"`
	FirstName            string     `json:"first_name" db:"first_name" example:"John"`
	LastName             string     `json:"last_name" db:"last_name" example:"Doe"`
	Role                 Role       `json:"role" db:"role" example:"student"`
	IsActive             bool       `json:"is_active" db:"is_active" example:"true"`
	Phone                *string    `json:"phone,omitempty" db:"phone" example:"+15550100"`
	OrganizationName     *string    `json:"organization_name,omitempty" db:"organization_name"`
	MorningArrivalTime   TimeOfDay  `json:"morning_arrival_time" db:"morning_arrival_time" swaggertype:"string" example:"09:00:00"`
	EveningDepartureTime TimeOfDay  `json:"evening_departure_time" db:"evening_departure_time" swaggertype:"string" example:"16:00:00"`
	PushToken            *string    `json:"push_token,omitempty" db:"push_token"`
	ParentID             *int64     `json:"parent_id,omitempty" db:"parent_id"`
	ManagedByID          *int64     `json:"managed_by_id,omitempty" db:"managed_by_id"`
	ClassInChargeID      *int64     `json:"class_in_charge_id,omitempty" db:"class_in_charge_id"`
	BusID                *int64     `json:"bus_id,omitempty" db:"bus_id"`
	DateJoined           time.Time  `json:"date_joined" db:"date_joined"`
	LastLogin            *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// FullName joins first and last name, empty when neither is set.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Username
}

// HasBus reports whether the user is assigned to busID.
func (u *User) HasBus(busID int64) bool {
	return u.BusID != nil && *u.BusID == busID
}

// IsManagedBy reports whether managerID administers this user.
func (u *User) IsManagedBy(managerID int64) bool {
	return u.ManagedByID != nil && *u.ManagedByID == managerID
}

// PhoneOr returns the phone number or def when unset.
func (u *User) PhoneOr(def string) string {
	if u.Phone == nil || *u.Phone == "" {
		return def
	}
	return *u.Phone
}

// PushTokenValue returns the push token or an empty string.
func (u *User) PushTokenValue() string {
	if u.PushToken == nil {
		return ""
	}
	return *u.PushToken
}

// PasswordResetOTP is the one-time code a user requests to reset a password.
type PasswordResetOTP struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	OTP       string    `json:"-" db:"otp"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OTPValidity is how long a reset code stays usable.
const OTPValidity = 10 * time.Minute

// IsValid reports whether the code is still within its validity window at now.
func (o *PasswordResetOTP) IsValid(now time.Time) bool {
	return !o.CreatedAt.Before(now.Add(-OTPValidity))
}

// UserFilter narrows user listings. Nil fields are not applied.
type UserFilter struct {
	Role            *Role
	ManagedByID     *int64
	BusID           *int64
	ParentID        *int64
	ClassInChargeID *int64
	ActiveOnly      bool
}
