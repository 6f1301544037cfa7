// Package boxxylog sets up boxxy's logrus logger. Adapted from the
// teacher's lxd-export/core/logger.SafeLogger: a single mutex-guarded
// *logrus.Logger configured once at startup, handed out as *logrus.Entry
// values so every package can attach its own fields without fighting over
// global state.
package boxxylog

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.Mutex
	log = logrus.New()
)

// Setup configures the package-wide logger's level and output, returning
// the root entry callers should derive their own fields from.
func Setup(levelName string) (*logrus.Entry, error) {
	mu.Lock()
	defer mu.Unlock()

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", levelName, err)
	}

	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return logrus.NewEntry(log), nil
}

// Entry returns the current root entry without changing configuration,
// for packages constructed before Setup runs (e.g. in tests).
func Entry() *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()
	return logrus.NewEntry(log)
}
