// Package logger configures the process-wide structured logger.
package logger

import (
	"os"

	"go.uber.org/zap"
)

// New builds a zap logger: production JSON config when ENV=production,
// human-readable development config otherwise.
func New() (*zap.Logger, error) {
	if os.Getenv("ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Must is New for main(): panics on the (practically impossible) config error.
func Must() *zap.Logger {
	l, err := New()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return l
}
