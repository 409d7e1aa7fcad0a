package models

import "time"

// Default trip boundaries for a new bus.
var (
	DefaultMorningTripEnd   = NewTimeOfDay(12, 0, 0)
	DefaultEveningTripStart = NewTimeOfDay(12, 0, 0)
)

// Bus defines the bus model based on the 'buses' table
type Bus struct {
	ID                   int64      `json:"id" db:"id" example:"1"`
	BusNumber            string     `json:"bus_number" db:"bus_number" example:"BUS-12"`
	Destination          *string    `json:"destination,omitempty" db:"destination" example:"North Campus"`
	NumberPlate          *string    `json:"number_plate,omitempty" db:"number_plate" example:"KA-01-1234"`
	PhotoURL             *string    `json:"photo,omitempty" db:"photo_url"`
	Latitude             *float64   `json:"latitude" db:"latitude"`
	Longitude            *float64   `json:"longitude" db:"longitude"`
	LastUpdate           *time.Time `json:"last_update" db:"last_update"`
	ManagementID         *int64     `json:"management_id,omitempty" db:"management_id"`
	MorningTripEndTime   TimeOfDay  `json:"morning_trip_end_time" db:"morning_trip_end_time" swaggertype:"string" example:"12:00:00"`
	EveningTripStartTime TimeOfDay  `json:"evening_trip_start_time" db:"evening_trip_start_time" swaggertype:"string" example:"12:00:00"`
}

// TripTypeAt derives the trip direction for a local time of day: before the
// evening boundary is a morning trip, at or after it is an evening trip.
func (b *Bus) TripTypeAt(t TimeOfDay) TripType {
	if t.Before(b.EveningTripStartTime) {
		return TripMorning
	}
	return TripEvening
}

// IsOwnedBy reports whether managementID owns the bus.
func (b *Bus) IsOwnedBy(managementID int64) bool {
	return b.ManagementID != nil && *b.ManagementID == managementID
}

// DestinationOr returns the destination or def when unset.
func (b *Bus) DestinationOr(def string) string {
	if b.Destination == nil || *b.Destination == "" {
		return def
	}
	return *b.Destination
}

// Grade is a class and section pair, e.g. "10 - A".
type Grade struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name" example:"10"`
	Section string `json:"section" db:"section" example:"A"`
}

func (g Grade) String() string {
	return g.Name + " - " + g.Section
}
