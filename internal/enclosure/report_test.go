package enclosure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/queer/boxxy/internal/tracer"
)

func TestCollectReportPathsStripsContainerRootAndDedups(t *testing.T) {
	events := make(chan tracer.Event, 8)
	events <- tracer.Event{HasPath: true, Path: "/run/boxxy/name/etc/passwd"}
	events <- tracer.Event{HasPath: true, Path: "/run/boxxy/name/etc/passwd"}
	events <- tracer.Event{HasPath: true, Path: "/run/boxxy/name/home/u/.bashrc"}
	events <- tracer.Event{HasPath: false}
	events <- tracer.Event{HasPath: true, Path: "/some/other/path"}
	close(events)

	paths := collectReportPaths(events, "/run/boxxy/name")

	require.Equal(t, []string{"/etc/passwd", "/home/u/.bashrc"}, paths)
}

func TestCollectReportPathsHandlesRootItself(t *testing.T) {
	events := make(chan tracer.Event, 1)
	events <- tracer.Event{HasPath: true, Path: "/run/boxxy/name"}
	close(events)

	paths := collectReportPaths(events, "/run/boxxy/name")

	require.Equal(t, []string{"/"}, paths)
}
