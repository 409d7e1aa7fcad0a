package main

import (
	"os"

	"github.com/yigit/edutransit/internal/pkg/logger"
	"github.com/yigit/edutransit/internal/server"
)

// @title EduTransit API
// @version 1.0
// @description School bus tracking: trips, QR boarding, live locations, alerts and administration

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal arrives
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		logger.FlushRollbar()
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
	logger.FlushRollbar()
}
