// Package appimage implements a pre-flight heuristic: refuse to sandbox
// an AppImage that hasn't been extracted, since AppImages mount
// themselves via FUSE, which doesn't work inside an unprivileged user
// namespace.
package appimage

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const (
	markerHelp    = "--appimage-help"
	markerMount   = "--appimage-mount"
	markerExtract = "--appimage-extract"

	// bypassFlag, present in the target command's own argv, means the
	// user already knows it's an AppImage and wants boxxy to let it
	// self-extract.
	bypassFlag = "--appimage-extract-and-run"
)

// ErrUnpacked is returned when path looks like an unextracted AppImage and
// the caller's args don't include the bypass flag.
type ErrUnpacked struct {
	Program string
}

func (e *ErrUnpacked) Error() string {
	return fmt.Sprintf("%q is an AppImage! extract it first with --appimage-extract, or pass --appimage-extract-and-run", e.Program)
}

// Check scans the resolved executable at path for the three AppImage
// marker strings. If all three are present and bypass args don't contain
// bypassFlag, it returns *ErrUnpacked.
func Check(program, path string, args []string) error {
	for _, a := range args {
		if a == bypassFlag {
			return nil
		}
	}

	foundHelp, foundMount, foundExtract, err := scan(path)
	if err != nil {
		return fmt.Errorf("scanning %s for AppImage markers: %w", path, err)
	}

	if foundHelp && foundMount && foundExtract {
		return &ErrUnpacked{Program: program}
	}

	return nil
}

// scan streams the binary looking for the three literal marker strings,
// without loading the whole (potentially large) file into memory at once.
func scan(path string) (help, mount, extract bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, false, false, err
	}
	defer f.Close()

	// A sliding window large enough to hold any marker even if it's split
	// across two read chunks.
	const chunkSize = 64 * 1024
	const overlap = len(markerExtract)

	reader := bufio.NewReaderSize(f, chunkSize)
	var tail []byte

	buf := make([]byte, chunkSize)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			window := append(tail, buf[:n]...)
			s := string(window)

			if !help && containsMarker(s, markerHelp) {
				help = true
			}
			if !mount && containsMarker(s, markerMount) {
				mount = true
			}
			if !extract && containsMarker(s, markerExtract) {
				extract = true
			}

			if help && mount && extract {
				return true, true, true, nil
			}

			if len(window) > overlap {
				tail = append([]byte(nil), window[len(window)-overlap:]...)
			} else {
				tail = window
			}
		}

		if readErr != nil {
			break
		}
	}

	return help, mount, extract, nil
}

func containsMarker(haystack, marker string) bool {
	return strings.Contains(haystack, marker)
}
