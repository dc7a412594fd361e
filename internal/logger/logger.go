package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the application logger for env ("dev" or "prod").
func New(env string) (*zap.Logger, error) {
	switch env {
	case "", "dev":
		return zap.NewDevelopment()
	case "prod":
		return zap.NewProduction()
	}
	return nil, fmt.Errorf("unknown LOG_ENV %q", env)
}
