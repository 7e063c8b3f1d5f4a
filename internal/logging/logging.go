// Package logging builds the process-wide zap logger.
package logging

import "go.uber.org/zap"

// New returns a production logger in prod environments and a development
// logger everywhere else.
func New(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
