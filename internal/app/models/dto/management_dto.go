package dto

import "github.com/yigit/edutransit/internal/app/models"

// ManagementBreakdownEntry counts the active members of one management account
type ManagementBreakdownEntry struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	ActiveUsers int    `json:"active_users"`
}

// ManagementStatsResponse is the management dashboard
type ManagementStatsResponse struct {
	TotalUsers           int                        `json:"total_users"`
	ManagementUsers      int                        `json:"management_users"`
	VerifiedInstitutions int                        `json:"verified_institutions"`
	PendingInstitutions  int                        `json:"pending_institutions"`
	ActiveUsers          int                        `json:"active_users"`
	TotalBuses           int                        `json:"total_buses"`
	ManagementBreakdown  []ManagementBreakdownEntry `json:"management_breakdown"`
	Revenue              int                        `json:"revenue"`
	OpenComplaints       int                        `json:"open_complaints"`
}

// UserListEntry is a row of the user administration table
type UserListEntry struct {
	ID               int64       `json:"id"`
	Username         string      `json:"username"`
	Email            string      `json:"email"`
	Role             models.Role `json:"role"`
	IsActive         bool        `json:"is_active"`
	Phone            *string     `json:"phone"`
	OrganizationName *string     `json:"organization_name"`
}

// ToggleBlockResponse reports the new state of a user
type ToggleBlockResponse struct {
	Message  string `json:"message" example:"User blocked successfully"`
	IsActive bool   `json:"is_active"`
}

// ParentDetails describes the parent account created with a student
type ParentDetails struct {
	Name  string `json:"name" binding:"required,username"`
	Email string `json:"email" binding:"required,email"`
}

// RegisterMemberRequest creates a teacher, driver or student account
type RegisterMemberRequest struct {
	Role            string         `json:"role"`
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	Phone           *string        `json:"phone" binding:"omitempty,phone"`
	ClassInChargeID *int64         `json:"class_in_charge"`
	BusID           *int64         `json:"bus"`
	ParentDetails   *ParentDetails `json:"parent_details"`
}

// RegisterMemberResponse returns the generated credentials
type RegisterMemberResponse struct {
	Message        string `json:"message" example:"Student account created successfully"`
	MemberUsername string `json:"member_username"`
	MemberPassword string `json:"member_password"`
	ParentUsername string `json:"parent_username,omitempty"`
	ParentPassword string `json:"parent_password,omitempty"`
}

// RegisterManagementRequest creates a management account
type RegisterManagementRequest struct {
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	Phone            *string `json:"phone" binding:"omitempty,phone"`
	OrganizationName *string `json:"organization_name"`
}

// UpdateParentDetails renames or re-addresses a student's parent
type UpdateParentDetails struct {
	Name  *string `json:"name" binding:"omitempty,username"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// OptionalID distinguishes an absent field from an explicit null, which clears the link
type OptionalID struct {
	Set   bool
	Value *int64
}

// UpdateMemberRequest lists the fields an administrator may change on a member.
// ClassInChargeID and BusID are filled from the raw body by the handler.
type UpdateMemberRequest struct {
	Username             *string              `json:"username" binding:"omitempty,username"`
	Email                *string              `json:"email" binding:"omitempty,email"`
	Phone                *string              `json:"phone" binding:"omitempty,phone"`
	OrganizationName     *string              `json:"organization_name"`
	MorningArrivalTime   *models.TimeOfDay    `json:"morning_arrival_time" swaggertype:"string"`
	EveningDepartureTime *models.TimeOfDay    `json:"evening_departure_time" swaggertype:"string"`
	ParentDetails        *UpdateParentDetails `json:"parent_details"`
	ClassInChargeID      OptionalID           `json:"-"`
	BusID                OptionalID           `json:"-"`
}

// BusRequest is the form body for creating or updating a bus. Every field is
// optional on update.
type BusRequest struct {
	BusNumber            *string           `form:"bus_number" json:"bus_number"`
	Destination          *string           `form:"destination" json:"destination"`
	NumberPlate          *string           `form:"number_plate" json:"number_plate"`
	MorningTripEndTime   *models.TimeOfDay `form:"-" json:"morning_trip_end_time" swaggertype:"string"`
	EveningTripStartTime *models.TimeOfDay `form:"-" json:"evening_trip_start_time" swaggertype:"string"`
}

// BusResponse is the administrative view of a bus
type BusResponse struct {
	ID                   int64            `json:"id"`
	BusNumber            string           `json:"bus_number"`
	Destination          *string          `json:"destination"`
	NumberPlate          *string          `json:"number_plate"`
	Photo                *string          `json:"photo"`
	Management           *int64           `json:"management"`
	MorningTripEndTime   models.TimeOfDay `json:"morning_trip_end_time" swaggertype:"string"`
	EveningTripStartTime models.TimeOfDay `json:"evening_trip_start_time" swaggertype:"string"`
}

// NewBusResponse maps a bus to its administrative view
func NewBusResponse(b *models.Bus) BusResponse {
	return BusResponse{
		ID:                   b.ID,
		BusNumber:            b.BusNumber,
		Destination:          b.Destination,
		NumberPlate:          b.NumberPlate,
		Photo:                b.PhotoURL,
		Management:           b.ManagementID,
		MorningTripEndTime:   b.MorningTripEndTime,
		EveningTripStartTime: b.EveningTripStartTime,
	}
}

// GradeEntry is a class option such as "10 - A"
type GradeEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name" example:"10 - A"`
}
