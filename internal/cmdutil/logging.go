package cmdutil

import (
	"sync"

	"github.com/leefowlercu/chunkalyze/internal/logging"
)

var (
	logMu      sync.Mutex
	logManager *logging.Manager
)

// LogManager returns the process logging manager, creating it in bootstrap
// mode (stderr text only) on first use.
func LogManager() *logging.Manager {
	logMu.Lock()
	defer logMu.Unlock()
	if logManager == nil {
		logManager = logging.NewManager()
	}
	return logManager
}
