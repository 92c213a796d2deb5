package logger

import (
	"go.uber.org/zap"
)

// New builds the application logger. Production gets JSON output with
// sampling, everything else the human-readable development config.
func New(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
