package dto

import "github.com/yigit/edutransit/internal/app/models"

// CreateComplaintRequest is filed by a student or parent
type CreateComplaintRequest struct {
	Title       string `json:"title" example:"Bus arrived late"`
	Description string `json:"description" example:"The morning bus was 20 minutes late on Monday."`
}

// ComplaintEntry is a complaint as its author sees it
type ComplaintEntry struct {
	ID          int64                  `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      models.ComplaintStatus `json:"status"`
	Response    *string                `json:"response"`
	Date        string                 `json:"date" example:"02 Jan 2006"`
}

// ManagementComplaintEntry is a complaint with its author for administrators
type ManagementComplaintEntry struct {
	ID           int64                  `json:"id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Status       models.ComplaintStatus `json:"status"`
	Response     *string                `json:"response"`
	Date         string                 `json:"date" example:"2006-01-02"`
	StudentName  string                 `json:"student_name"`
	StudentID    int64                  `json:"student_id"`
	StudentEmail string                 `json:"student_email"`
}

// UpdateComplaintRequest changes the status or the administrative response
type UpdateComplaintRequest struct {
	Status   *models.ComplaintStatus `json:"status" binding:"omitempty,oneof=submitted in_action resolved"`
	Response *string                 `json:"response"`
}
