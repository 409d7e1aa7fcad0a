package dto

// TripStatus is the type/status pair shown on dashboards
type TripStatus struct {
	Type   string `json:"type" example:"Morning"`
	Status string `json:"status" example:"Ongoing"`
}

// RouteInfo describes where the current or next trip runs
type RouteInfo struct {
	Name  string `json:"name" example:"Morning Pickup"`
	Start string `json:"start" example:"Pickups"`
	End   string `json:"end" example:"College Campus"`
}

// BoardingCounts compares boarded students with those assigned
type BoardingCounts struct {
	Boarded  int `json:"boarded"`
	Expected int `json:"expected"`
}

// DriverBusInfo is the bus card on the driver dashboard
type DriverBusInfo struct {
	ID     int64   `json:"id"`
	Number string  `json:"number"`
	Status string  `json:"status" example:"Active"`
	Plate  *string `json:"plate"`
}

// LocationInfo reports whether the driver is sharing GPS
type LocationInfo struct {
	GPS         bool   `json:"gps"`
	LastUpdated string `json:"lastUpdated" example:"08:15 AM"`
}

// DriverStudentEntry is one student row on the driver dashboard
type DriverStudentEntry struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status" example:"Boarded"`
	Time   string `json:"time" example:"08:05 AM"`
}

// NotificationEntry is a compact feed item
type NotificationEntry struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Time    string `json:"time" example:"08:05 AM"`
}

// DriverStatsResponse is the driver dashboard. QRToken is the boarding token
// the driver app renders; it is refreshed on every request.
type DriverStatsResponse struct {
	Bus      *DriverBusInfo       `json:"bus"`
	QRToken  string               `json:"qr_token,omitempty"`
	Trip     TripStatus           `json:"trip"`
	Route    RouteInfo            `json:"route"`
	Boarding BoardingCounts       `json:"boarding"`
	Location *LocationInfo        `json:"location,omitempty"`
	Students []DriverStudentEntry `json:"students"`
	Alerts   []NotificationEntry  `json:"alerts"`
}

// RiderBusInfo is the bus card shown to students and parents
type RiderBusInfo struct {
	ID         int64   `json:"id"`
	Number     string  `json:"number"`
	Plate      *string `json:"plate"`
	DriverName string  `json:"driver_name" example:"N/A"`
}

// BoardingState is Boarded or Not Boarded
type BoardingState struct {
	Status string `json:"status" example:"Not Boarded"`
}

// StudentDashboardResponse is the student dashboard
type StudentDashboardResponse struct {
	Bus           *RiderBusInfo       `json:"bus"`
	Trip          TripStatus          `json:"trip"`
	Boarding      BoardingState       `json:"boarding"`
	Notifications []NotificationEntry `json:"notifications"`
}

// ChildStatus is one child on the parent dashboard
type ChildStatus struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Bus      *RiderBusInfo `json:"bus"`
	Trip     TripStatus    `json:"trip"`
	Boarding BoardingState `json:"boarding"`
}

// ParentDashboardResponse is the parent dashboard
type ParentDashboardResponse struct {
	Children      []ChildStatus       `json:"children"`
	AnyBoarded    bool                `json:"any_boarded"`
	Notifications []NotificationEntry `json:"notifications"`
}

// TeacherStatsResponse summarises the teacher's class for today
type TeacherStatsResponse struct {
	Boarded       int    `json:"boarded"`
	TotalStudents int    `json:"total_students"`
	PendingAlerts int    `json:"pending_alerts"`
	TripStatus    string `json:"trip_status" example:"Morning Trip Ongoing"`
	TripType      string `json:"trip_type" example:"morning"`
}

// TeacherStudentEntry is one student of the teacher's class
type TeacherStudentEntry struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Class  string  `json:"class" example:"10 - A"`
	Status string  `json:"status" example:"Boarded"`
	Time   *string `json:"time"`
	Image  *string `json:"image"`
}

// TeacherAlertEntry is one item of the teacher's alert feed
type TeacherAlertEntry struct {
	ID      int64  `json:"id"`
	Type    string `json:"type" example:"warning"`
	Student string `json:"student"`
	Time    string `json:"time" example:"04:00 PM"`
	Details string `json:"details"`
}

// UpdateStudentStatusRequest records a teacher's note on a student's attendance
type UpdateStudentStatusRequest struct {
	StudentID int64  `json:"student_id" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=Absent Leave Late Present"`
}

// UpdateStudentStatusResponse acknowledges a status update
type UpdateStudentStatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message" example:"Status updated to Absent"`
}

// BroadcastRequest is a driver's alert to the riders of their bus
type BroadcastRequest struct {
	Type    string `json:"type" example:"Delay"`
	Message string `json:"message" example:"Running 10 minutes late"`
	Phone   string `json:"phone" example:"+15550100"`
}

// BroadcastHistoryEntry is one item of the driver's broadcast history
type BroadcastHistoryEntry struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at" example:"Jan 02, 03:04 PM"`
}
