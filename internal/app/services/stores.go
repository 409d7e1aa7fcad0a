package services

import (
	"context"
	"time"

	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/repositories"
)

// UserStore persists accounts
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	Count(ctx context.Context, filter models.UserFilter) (int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID int64) error
	Delete(ctx context.Context, id int64) error
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// BusStore persists buses and their last known position
type BusStore interface {
	GetByID(ctx context.Context, id int64) (*models.Bus, error)
	List(ctx context.Context, managementID *int64) ([]*models.Bus, error)
	Count(ctx context.Context, managementID *int64) (int, error)
	Create(ctx context.Context, bus *models.Bus) error
	Update(ctx context.Context, bus *models.Bus) error
	UpdateLocation(ctx context.Context, busID int64, lat, lon *float64, at *time.Time) error
	Delete(ctx context.Context, id int64) error
}

// TripStore persists trips
type TripStore interface {
	GetByID(ctx context.Context, id int64) (*models.Trip, error)
	GetActiveByBus(ctx context.Context, busID int64) (*models.Trip, error)
	LatestStartedSince(ctx context.Context, busID *int64, since time.Time, active bool) (*models.Trip, error)
	DeactivateActiveByBus(ctx context.Context, busID int64, endTime time.Time) (int64, error)
	Create(ctx context.Context, trip *models.Trip) error
}

// BoardingLogStore persists boarding events
type BoardingLogStore interface {
	Create(ctx context.Context, log *models.BoardingLog) error
	GetByStudentAndTrip(ctx context.Context, studentID, tripID int64) (*models.BoardingLog, error)
	ListByTrip(ctx context.Context, tripID int64) ([]*models.BoardingLog, error)
	ListByBusAndDate(ctx context.Context, busID int64, date time.Time) ([]*models.BoardingLog, error)
	ExistsForStudentOnDate(ctx context.Context, studentID int64, date time.Time, tripType models.TripType) (bool, error)
}

// NotificationStore persists feed entries
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
}

// ComplaintStore persists complaints
type ComplaintStore interface {
	Create(ctx context.Context, c *models.Complaint) error
	GetByID(ctx context.Context, id int64) (*models.Complaint, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Complaint, error)
	ListWithAuthors(ctx context.Context, managedBy *int64) ([]*models.ComplaintWithAuthor, error)
	CountOpen(ctx context.Context, managedBy *int64) (int, error)
	Update(ctx context.Context, c *models.Complaint) error
}

// GradeStore persists classes
type GradeStore interface {
	Create(ctx context.Context, grade *models.Grade) error
	GetByID(ctx context.Context, id int64) (*models.Grade, error)
	GetAll(ctx context.Context) ([]*models.Grade, error)
}

// OTPStore persists password reset codes
type OTPStore interface {
	Upsert(ctx context.Context, otp *models.PasswordResetOTP) error
	GetByUserID(ctx context.Context, userID int64) (*models.PasswordResetOTP, error)
	DeleteByUserID(ctx context.Context, userID int64) error
}

// RefreshTokenStore persists refresh tokens
type RefreshTokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetTokenByValue(ctx context.Context, token string) (int64, time.Time, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// Stores groups every store a service may depend on
type Stores struct {
	Users         UserStore
	Buses         BusStore
	Trips         TripStore
	BoardingLogs  BoardingLogStore
	Notifications NotificationStore
	Complaints    ComplaintStore
	Grades        GradeStore
	OTPs          OTPStore
	RefreshTokens RefreshTokenStore
}

// NewStores exposes the Postgres repositories through the store interfaces
func NewStores(repos *repositories.Repositories) Stores {
	return Stores{
		Users:         repos.UserRepository,
		Buses:         repos.BusRepository,
		Trips:         repos.TripRepository,
		BoardingLogs:  repos.BoardingLogRepository,
		Notifications: repos.NotificationRepository,
		Complaints:    repos.ComplaintRepository,
		Grades:        repos.GradeRepository,
		OTPs:          repos.OTPRepository,
		RefreshTokens: repos.TokenRepository,
	}
}
