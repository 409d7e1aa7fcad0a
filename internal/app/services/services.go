package services

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edutransit/internal/app/auth"
	pkgauth "github.com/yigit/edutransit/internal/pkg/auth"
	"github.com/yigit/edutransit/internal/pkg/clock"
	"github.com/yigit/edutransit/internal/pkg/filestorage"
	"github.com/yigit/edutransit/internal/pkg/qrtoken"
)

// Options carries the collaborators shared by every service
type Options struct {
	Stores              Stores
	Authz               *auth.AuthorizationService
	JWT                 *pkgauth.JWTService
	Dispatcher          *Dispatcher
	Publisher           LocationPublisher
	Signer              *qrtoken.Signer
	Boarding            BoardingPolicy
	Storage             filestorage.FileStorage
	Clock               clock.Clock
	Location            *time.Location
	DefaultOrganization string
	Logger              zerolog.Logger
}

// Services groups the application services
type Services struct {
	Auth       *AuthService
	Users      UserService
	Trips      TripService
	Boarding   BoardingService
	Drivers    DriverService
	Dashboards DashboardService
	Teachers   TeacherService
	Complaints ComplaintService
	Management ManagementService
}

// New builds every service from the shared options
func New(o Options) *Services {
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	component := func(name string) zerolog.Logger {
		return o.Logger.With().Str("service", name).Logger()
	}

	boarding := NewBoardingService(o.Stores, o.Authz, o.Signer, o.Boarding, o.Clock, o.Location, component("boarding"))
	return &Services{
		Auth:       NewAuthService(o.Stores, o.JWT, o.Dispatcher, o.DefaultOrganization, o.Clock, component("auth")),
		Users:      NewUserService(o.Stores, o.DefaultOrganization, component("user")),
		Trips:      NewTripService(o.Stores, o.Authz, o.Publisher, o.Clock, o.Location, component("trip")),
		Boarding:   boarding,
		Drivers:    NewDriverService(o.Stores, o.Authz, boarding, o.Dispatcher, o.Clock, o.Location, component("driver")),
		Dashboards: NewDashboardService(o.Stores, o.Authz, o.Clock, o.Location),
		Teachers:   NewTeacherService(o.Stores, o.Authz, o.Clock, o.Location, component("teacher")),
		Complaints: NewComplaintService(o.Stores, o.Authz, o.Location, component("complaint")),
		Management: NewManagementService(o.Stores, o.Authz, o.Dispatcher, o.Storage, component("management")),
	}
}
