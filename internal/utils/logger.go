package utils

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger picks the zap preset from ENV so dev keeps the console encoder
// and everything else logs structured JSON.
func NewLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
