package enclosure

import (
	"fmt"
	"os"
	"strings"

	"github.com/queer/boxxy/internal/tracer"
)

// collectReportPaths drains events, keeping only first-seen, deduplicated
// paths that resolve under containerRoot, stripped of that prefix and
// re-anchored at "/". It returns once events is closed, which the Tracer
// does when the primary tracee exits.
func collectReportPaths(events <-chan tracer.Event, containerRoot string) []string {
	seen := map[string]bool{}
	var paths []string

	for ev := range events {
		if !ev.HasPath {
			continue
		}
		if !strings.HasPrefix(ev.Path, containerRoot) {
			continue
		}

		rel := strings.TrimPrefix(ev.Path, containerRoot)
		if rel == "" {
			rel = "/"
		} else if !strings.HasPrefix(rel, "/") {
			rel = "/" + rel
		}

		if seen[rel] {
			continue
		}
		seen[rel] = true
		paths = append(paths, rel)
	}

	return paths
}

// writeReport writes ./boxxy-report.txt: one path per line, followed by a
// "# total: N" trailer.
func writeReport(paths []string) error {
	f, err := os.Create("boxxy-report.txt")
	if err != nil {
		return fmt.Errorf("creating boxxy-report.txt: %w", err)
	}
	defer f.Close()

	for _, p := range paths {
		if _, err := fmt.Fprintln(f, p); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(f, "# total: %d\n", len(paths))
	return err
}
