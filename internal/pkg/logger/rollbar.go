package logger

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rs/zerolog"
)

// RollbarConfig holds what the Rollbar client needs to report errors.
type RollbarConfig struct {
	Token       string
	Environment string
	ServerHost  string
	CodeVersion string
}

// RollbarHook forwards error-level events to Rollbar.
type RollbarHook struct{}

// NewRollbarHook configures the global Rollbar client. It returns nil when no
// token is set so callers can skip the hook.
func NewRollbarHook(cfg RollbarConfig) zerolog.Hook {
	if cfg.Token == "" {
		return nil
	}
	rollbar.SetToken(cfg.Token)
	rollbar.SetEnvironment(cfg.Environment)
	rollbar.SetServerHost(cfg.ServerHost)
	rollbar.SetCodeVersion(cfg.CodeVersion)
	return RollbarHook{}
}

// Run implements zerolog.Hook
func (RollbarHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.ErrorLevel:
		rollbar.Error(msg)
	case zerolog.FatalLevel, zerolog.PanicLevel:
		rollbar.Critical(msg)
	}
}

// FlushRollbar waits for queued reports to be sent.
func FlushRollbar() {
	rollbar.Wait()
}
