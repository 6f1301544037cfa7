package enclosure

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/queer/boxxy/internal/fsdriver"
)

// cleanup tears down the enclosure root and every synthetic path rule
// preparation created: the root first, then created files (order doesn't
// matter, they have no children), then
// created directories in reverse insertion order so a child directory is
// always removed before the parent that contains it. Errors are logged,
// not propagated — cleanup is best-effort by design (it may run from the
// SIGINT handler, where there is no one left to hand an error to).
func cleanup(fs fsdriver.Driver, log *logrus.Entry, name string, createdFiles, createdDirectories []string) {
	if name != "" {
		if err := fs.CleanupRoot(name); err != nil {
			log.WithError(err).WithField("name", name).Warn("failed to clean up enclosure root")
		}
	}

	for _, f := range createdFiles {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			log.WithError(err).WithField("path", f).Warn("failed to remove synthetic file")
		}
	}

	for i := len(createdDirectories) - 1; i >= 0; i-- {
		d := createdDirectories[i]
		if err := os.Remove(d); err != nil && !os.IsNotExist(err) {
			log.WithError(err).WithField("path", d).Warn("failed to remove synthetic directory")
		}
	}
}
