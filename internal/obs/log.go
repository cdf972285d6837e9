package obs

import (
	"go.uber.org/zap"
)

// NewLogger builds the shared application logger. Development mode switches
// to the human-readable console encoder.
func NewLogger(development bool) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
