package dto

// BoardRequest is submitted by a student after scanning the driver's QR code
type BoardRequest struct {
	QRToken   string   `json:"qr_token" example:"3:1a2B3c:Zm9vYmFy"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// BoardingStatusAlreadyBoarded marks a retried scan for a trip the student already boarded
const BoardingStatusAlreadyBoarded = "already_boarded"

// BoardResponse reports the outcome of a scan. Created is false for an
// already-boarded retry, which the handler answers with 200 instead of 201.
type BoardResponse struct {
	Message string `json:"message" example:"Boarding successful!"`
	Bus     string `json:"bus,omitempty" example:"BUS-12"`
	Time    string `json:"time,omitempty" example:"08:05 AM"`
	Status  string `json:"status,omitempty" example:"already_boarded"`
	Created bool   `json:"-"`
}
