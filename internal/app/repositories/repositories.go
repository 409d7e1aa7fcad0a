package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	BusRepository          *BusRepository
	TripRepository         *TripRepository
	BoardingLogRepository  *BoardingLogRepository
	NotificationRepository *NotificationRepository
	ComplaintRepository    *ComplaintRepository
	GradeRepository        *GradeRepository
	OTPRepository          *PasswordResetOTPRepository
	TokenRepository        *TokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		BusRepository:          NewBusRepository(db),
		TripRepository:         NewTripRepository(db),
		BoardingLogRepository:  NewBoardingLogRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		ComplaintRepository:    NewComplaintRepository(db),
		GradeRepository:        NewGradeRepository(db),
		OTPRepository:          NewPasswordResetOTPRepository(db),
		TokenRepository:        NewTokenRepository(db),
	}
}
