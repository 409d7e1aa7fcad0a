package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/yigit/edutransit/internal/app/controllers"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/middleware"
	"github.com/yigit/edutransit/internal/pkg/websocket"

	_ "github.com/yigit/edutransit/docs" // swagger docs
)

// Handlers groups the controllers mounted by SetupRouter
type Handlers struct {
	Auth       *controllers.AuthController
	Users      *controllers.UserController
	Trips      *controllers.TripController
	Drivers    *controllers.DriverController
	Riders     *controllers.RiderController
	Teachers   *controllers.TeacherController
	Management *controllers.ManagementController
	LiveBus    *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	v1 := router.Group("/api/v1")

	// --- Public auth routes ---
	v1.POST("/login/", h.Auth.Login)
	v1.POST("/token/refresh/", h.Auth.RefreshToken)
	passwordReset := v1.Group("/password-reset")
	{
		passwordReset.POST("/send-otp/", h.Auth.SendOTP)
		passwordReset.POST("/verify-otp/", h.Auth.VerifyOTP)
		passwordReset.POST("/reset-with-otp/", h.Auth.ResetPassword)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.POST("/logout/", h.Auth.Logout)
	authenticated.GET("/users/me/", h.Users.GetProfile)
	authenticated.PUT("/users/me/", h.Users.UpdateProfile)

	trip := authenticated.Group("/trip")
	{
		trip.POST("/start/", h.Trips.StartTrip)
		trip.POST("/end/", h.Trips.EndTrip)
		trip.POST("/update-location/", h.Trips.UpdateLocation)
		trip.GET("/bus-location/:id/", h.Trips.BusLocation)
		trip.GET("/bus-location/:id/ws", h.LiveBus.HandleConnection)
	}

	// Driver and student endpoints check the role in the service so the
	// messages match the dashboard clients.
	dashboard := authenticated.Group("/dashboard")
	{
		dashboard.POST("/student/board/", h.Drivers.Board)
		dashboard.GET("/driver/stats/", h.Drivers.Stats)
		dashboard.GET("/driver/qr.png", h.Drivers.QRCode)
		dashboard.GET("/driver/broadcast/", h.Drivers.BroadcastHistory)
		dashboard.POST("/driver/broadcast/", h.Drivers.Broadcast)
		dashboard.GET("/buses/", h.Management.ListBuses)
	}

	student := authenticated.Group("/student")
	student.Use(authMiddleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/dashboard/", h.Riders.StudentDashboard)
		student.GET("/complaints/", h.Riders.ListComplaints)
		student.POST("/complaints/", h.Riders.CreateComplaint)
	}

	parent := authenticated.Group("/parent")
	parent.Use(authMiddleware.RequireRoles(models.RoleParent))
	{
		parent.GET("/dashboard/", h.Riders.ParentDashboard)
		parent.GET("/complaints/", h.Riders.ListComplaints)
		parent.POST("/complaints/", h.Riders.CreateComplaint)
	}

	teacher := authenticated.Group("/teacher")
	teacher.Use(authMiddleware.RequireRoles(models.RoleTeacher))
	{
		teacher.GET("/dashboard/stats/", h.Teachers.Stats)
		teacher.GET("/students/", h.Teachers.Students)
		teacher.GET("/alerts/", h.Teachers.Alerts)
		teacher.POST("/student/update-status/", h.Teachers.UpdateStudentStatus)
	}

	admin := authenticated.Group("")
	admin.Use(authMiddleware.RequireRoles(models.RoleSuperuser, models.RoleManagement))
	{
		admin.GET("/dashboard/stats/", h.Management.Stats)
		admin.GET("/users/", h.Management.ListUsers)
		admin.DELETE("/users/:id/delete/", h.Management.DeleteUser)
		admin.POST("/users/:id/toggle-block/", h.Management.ToggleBlock)
		admin.PUT("/users/:id/update/", h.Management.UpdateMember)
		admin.POST("/register/member/", h.Management.RegisterMember)
		admin.POST("/register/management/", h.Management.RegisterManagement)
		admin.POST("/dashboard/add-bus/", h.Management.CreateBus)
		admin.PUT("/dashboard/buses/:id/", h.Management.UpdateBus)
		admin.DELETE("/dashboard/buses/:id/", h.Management.DeleteBus)
		admin.GET("/dashboard/grades/", h.Management.Grades)
		admin.GET("/dashboard/complaints/", h.Management.Complaints)
		admin.PATCH("/dashboard/complaints/:id/", h.Management.UpdateComplaint)
	}
}

// SetupOps mounts the health check, the metrics endpoint and the API docs
func SetupOps(router *gin.Engine, metricsPath string) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	if metricsPath != "" {
		router.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"), ginSwagger.DefaultModelsExpandDepth(1)))
}
