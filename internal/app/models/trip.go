package models

import "time"

// Trip is one directional run of a bus.
type Trip struct {
	ID        int64      `json:"id" db:"id"`
	BusID     int64      `json:"bus_id" db:"bus_id"`
	DriverID  int64      `json:"driver_id" db:"driver_id"`
	TripType  TripType   `json:"trip_type" db:"trip_type"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`
}

// BoardingLog records that a student boarded a bus during a trip.
type BoardingLog struct {
	ID        int64     `json:"id" db:"id"`
	StudentID int64     `json:"student_id" db:"student_id"`
	BusID     int64     `json:"bus_id" db:"bus_id"`
	TripID    int64     `json:"trip_id" db:"trip_id"`
	ScanTime  time.Time `json:"scan_time" db:"scan_time"`
	// Date is the local calendar day of the scan.
	Date      time.Time `json:"date" db:"date"`
	Latitude  *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64  `json:"longitude,omitempty" db:"longitude"`
}

// Notification is a per-user feed entry.
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Type      NotificationType `json:"type" db:"type"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	IsRead    bool             `json:"is_read" db:"is_read"`
}

// Complaint is a ticket raised by a student or parent.
type Complaint struct {
	ID                     int64           `json:"id" db:"id"`
	UserID                 int64           `json:"user_id" db:"user_id"`
	Title                  string          `json:"title" db:"title"`
	Description            string          `json:"description" db:"description"`
	Status                 ComplaintStatus `json:"status" db:"status"`
	AdministrativeResponse *string         `json:"response,omitempty" db:"administrative_response"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// ComplaintWithAuthor joins a complaint with the user who filed it.
type ComplaintWithAuthor struct {
	Complaint
	AuthorUsername string `json:"student_name"`
	AuthorEmail    string `json:"student_email"`
}
