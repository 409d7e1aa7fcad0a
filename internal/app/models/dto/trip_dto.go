package dto

import (
	"time"

	"github.com/yigit/edutransit/internal/app/models"
)

// StartTripResponse is returned when a driver starts a trip
type StartTripResponse struct {
	Message  string          `json:"message" example:"Morning Trip started"`
	TripID   int64           `json:"trip_id" example:"12"`
	TripType models.TripType `json:"trip_type" example:"morning"`
}

// UpdateLocationRequest carries the driver's current position
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90" example:"12.9716"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180" example:"77.5946"`
}

// BusLocationResponse is the last known position of a bus
type BusLocationResponse struct {
	BusID        int64      `json:"bus_id" example:"3"`
	BusNumber    string     `json:"bus_number" example:"BUS-12"`
	IsActiveTrip bool       `json:"is_active_trip"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	LastUpdate   *time.Time `json:"last_update"`
}
