package logging

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger is the global logger instance
var Logger = zap.NewNop()

// Setup builds the process logger. debug switches to the development console
// encoder at debug level; otherwise production JSON at info level is used.
// Every entry carries appName, appVersion and a per-run runID.
func Setup(debug bool, appName, appVersion string) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.InitialFields = map[string]interface{}{
		"appName":    appName,
		"appVersion": appVersion,
		"runID":      uuid.NewString(),
	}

	l, err := cfg.Build()
	if err != nil {
		Logger = zap.NewExample()
		return Logger, err
	}

	Logger = l
	zap.ReplaceGlobals(Logger)
	return Logger, nil
}
