// Package userns writes uid_map/gid_map entries for a child stopped inside
// a fresh user namespace, via the setuid newuidmap/newgidmap helpers. Go
// processes generally can't write /proc/<pid>/{uid,gid}_map with more than
// a single identity mapping unless they hold CAP_SETUID, so — like the
// original Rust implementation — this goes through the helper binaries
// that consult /etc/subuid and /etc/subgid on the caller's behalf.
package userns

import (
	"bytes"
	"fmt"
	"os/exec"
	"os/user"
	"strconv"
	"strings"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"github.com/sirupsen/logrus"
)

// entry is one candidate id mapping: inside-namespace-id -> host id, for a
// single id (range length always 1 here — boxxy maps specific ids, not
// ranges). The name and shape echo fuidshift's idmapEntry, a subuid/subgid
// range type repurposed from "shift an id through a parsed range" to "one
// candidate row of a map we might have to shrink".
type entry struct {
	insideID int
	hostID   int
}

func (e entry) args() []string {
	return []string{strconv.Itoa(e.insideID), strconv.Itoa(e.hostID), "1"}
}

// Mapper drives newuidmap/newgidmap for a stopped tracee.
type Mapper struct {
	// Log receives one line per failed attempt; it must not be nil (New
	// substitutes logrus's standard logger for a nil argument).
	Log *logrus.Entry
}

// New returns a Mapper that logs through log, or through logrus's standard
// logger if log is nil.
func New(log *logrus.Entry) *Mapper {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Mapper{Log: log}
}

// MapCurrentUser builds the candidate uid/gid maps for the invoking user —
// their own uid/gid, root's gid (so the child can perform mount operations
// inside the namespace), and every supplementary group from getgrouplist
// — then writes both maps for pid, shrinking the
// candidate set until the kernel accepts it.
func (m *Mapper) MapCurrentUser(pid int) error {
	u, err := user.Current()
	if err != nil {
		return fmt.Errorf("resolving invoking user: %w", err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return fmt.Errorf("parsing uid %q: %w", u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return fmt.Errorf("parsing gid %q: %w", u.Gid, err)
	}

	groupIDs, err := u.GroupIds()
	if err != nil {
		return fmt.Errorf("listing supplementary groups for %s: %w", u.Username, err)
	}

	uidMap := []entry{{insideID: uid, hostID: uid}}

	gidMap := []entry{
		{insideID: gid, hostID: gid},
		{insideID: 0, hostID: 0},
	}
	for _, g := range groupIDs {
		gv, err := strconv.Atoi(g)
		if err != nil {
			continue
		}
		if gv == gid || gv == 0 {
			continue
		}
		gidMap = append(gidMap, entry{insideID: gv, hostID: gv})
	}

	if err := m.shrinkingRetry(pid, "newuidmap", uidMap, entry{insideID: uid, hostID: uid}); err != nil {
		return fmt.Errorf("mapping uid: %w", err)
	}

	if err := m.shrinkingRetry(pid, "newgidmap", gidMap, entry{insideID: gid, hostID: gid}); err != nil {
		return fmt.Errorf("mapping gid: %w", err)
	}

	return nil
}

// shrinkingRetry tries the helper with the full candidate map; on failure,
// identifies and drops one offending id, and retries; stops when the
// helper succeeds or the map has shrunk to just the primary (required)
// entry. It is written as a pure fold over progressively smaller slices
// rather than an imperative accumulator.
func (m *Mapper) shrinkingRetry(pid int, helper string, candidates []entry, primary entry) error {
	remaining := candidates
	var lastErr error

	for {
		lastErr = m.invokeHelper(pid, helper, remaining)
		if lastErr == nil {
			return nil
		}

		m.Log.WithError(lastErr).WithField("helper", helper).
			WithField("candidates", len(remaining)).
			Debug("id mapping attempt failed, shrinking candidate set")

		if len(remaining) <= 1 {
			break
		}

		shrunk, changed := dropOffendingEntry(remaining, lastErr, primary)
		if !changed {
			// Couldn't identify the offender from the helper's output;
			// drop the last non-primary entry instead of spinning
			// forever on the same input.
			shrunk = shrinkLast(remaining, primary)
		}
		remaining = shrunk
	}

	// Final attempt with just the primary pair.
	if err := m.invokeHelper(pid, helper, []entry{primary}); err != nil {
		return fmt.Errorf("id mapping failed even for the primary id (last helper error: %v): %w", lastErr, err)
	}

	return nil
}

// invokeHelper runs the helper, retrying once on any failure (two attempts
// in all, via Rican7/retry's fixed-limit strategy) so that a transient
// failure such as a helper binary momentarily unavailable under load does
// not count as a rejection. The
// shrinking of the id set itself is handled one layer up in
// shrinkingRetry, since that depends on *which* ids were rejected, not on
// how many times we've tried.
func (m *Mapper) invokeHelper(pid int, helper string, ids []entry) error {
	args := []string{strconv.Itoa(pid)}
	for _, e := range ids {
		args = append(args, e.args()...)
	}

	var stderr bytes.Buffer
	return retry.Retry(func(attempt uint) error {
		stderr.Reset()
		cmd := exec.Command(helper, args...)
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s %s: %w: %s", helper, strings.Join(args, " "), err, stderr.String())
		}
		return nil
	}, strategy.Limit(2))
}

// dropOffendingEntry tries to parse an offending uid/gid out of the
// helper's stderr (newuidmap/newgidmap name the rejected id in their error
// text) and remove it from candidates. It reports changed=false if no
// entry could be identified.
func dropOffendingEntry(candidates []entry, helperErr error, primary entry) ([]entry, bool) {
	msg := helperErr.Error()

	for i, e := range candidates {
		if e == primary {
			continue
		}
		if strings.Contains(msg, strconv.Itoa(e.insideID)) || strings.Contains(msg, strconv.Itoa(e.hostID)) {
			return removeAt(candidates, i), true
		}
	}

	return candidates, false
}

// shrinkLast drops the last non-primary candidate, used when the helper's
// error text doesn't name a specific id.
func shrinkLast(candidates []entry, primary entry) []entry {
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i] != primary {
			return removeAt(candidates, i)
		}
	}
	return candidates
}

func removeAt(s []entry, i int) []entry {
	out := make([]entry, 0, len(s)-1)
	out = append(out, s[:i]...)
	out = append(out, s[i+1:]...)
	return out
}
