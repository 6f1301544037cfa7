package enclosure

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/queer/boxxy/internal/fsdriver"
)

// sigintHandler owns a cheap copy of the enclosure's name and its child's
// raw PID, plus the driver, logger and created-path lists its cleanup
// needs. It never reaches back into the Enclosure that installed it. pid
// is set
// asynchronously via setPID once the child has actually been cloned,
// since installation happens before the clone so that a SIGINT arriving
// during the clone itself is still caught.
type sigintHandler struct {
	name string
	pid  atomic.Int64
	fs   fsdriver.Driver
	log  *logrus.Entry

	sigCh chan os.Signal
	done  chan struct{}
}

// installSigintHandler starts a goroutine that, on the process's first
// SIGINT, sends SIGTERM to the child (if one has been cloned yet), cleans
// up the enclosure root and any synthetic paths, then exits the process
// with status 1. Call (*sigintHandler).stop to cancel the handler once
// the run finishes normally.
func installSigintHandler(name string, fs fsdriver.Driver, log *logrus.Entry, createdFiles, createdDirectories []string) *sigintHandler {
	h := &sigintHandler{
		name:  name,
		fs:    fs,
		log:   log,
		sigCh: make(chan os.Signal, 1),
		done:  make(chan struct{}),
	}
	h.pid.Store(-1)

	signal.Notify(h.sigCh, syscall.SIGINT)

	go func() {
		select {
		case <-h.sigCh:
			pid := int(h.pid.Load())
			log.WithField("pid", pid).Warn("received SIGINT, tearing down enclosure")
			if pid > 0 {
				if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
					log.WithError(err).Warn("failed to SIGTERM child")
				}
			}
			cleanup(fs, log, name, createdFiles, createdDirectories)
			os.Exit(1)
		case <-h.done:
		}
	}()

	return h
}

// setPID records the child's PID once it exists.
func (h *sigintHandler) setPID(pid int) {
	h.pid.Store(int64(pid))
}

// stop cancels the handler, used once the run has already completed
// normally and the enclosure's own cleanup path will run instead.
func (h *sigintHandler) stop() {
	signal.Stop(h.sigCh)
	close(h.done)
}
