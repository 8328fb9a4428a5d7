package mcad

import (
	"log"
	"os"
	"strings"
	"sync"
)

var (
	logMu   sync.Mutex
	logger  = log.New(os.Stderr, "", log.LstdFlags)
	verbose bool
)

// SetLogger replaces the logger used for assembly diagnostics
func SetLogger(l *log.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = l
}

// SetLogging turns [INFO] progress messages on or off. Warnings are always
// logged.
func SetLogging(enabled bool) {
	logMu.Lock()
	defer logMu.Unlock()
	verbose = enabled
}

// Logf writes a message with an explicit [INFO] or [WARN] prefix
func Logf(format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	if logger == nil {
		return
	}
	if !verbose && strings.HasPrefix(format, "[INFO]") {
		return
	}
	logger.Printf(format, args...)
}
