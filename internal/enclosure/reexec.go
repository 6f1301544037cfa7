package enclosure

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// childArg is argv[1] the re-exec'd process recognises as "I am the
// enclosure child, not a fresh CLI invocation", the same role childSub
// plays for ccrun's self-reexec.
const childArg = "__boxxy_child__"

// stateFD is the inherited pipe file descriptor the parent passes the
// child's JSON-encoded childState over. fd 0-2 are stdio; ExtraFiles[0]
// lands at fd 3.
const stateFD = 3

// IsChild reports whether this process invocation is the re-exec'd
// enclosure child rather than a fresh `boxxy` CLI invocation. main.go must
// check this before cobra parses os.Args, since the child's argv doesn't
// look anything like a normal command line.
func IsChild() bool {
	return len(os.Args) > 1 && os.Args[1] == childArg
}

// RunChild is the entire body of the re-exec'd child process. It never
// returns: it calls os.Exit with the target command's exit status. main.go
// calls this immediately after IsChild reports true.
func RunChild() {
	f := os.NewFile(uintptr(stateFD), "boxxy-child-state")
	data, err := io.ReadAll(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boxxy: child: reading state: %v\n", err)
		os.Exit(1)
	}

	var state childState
	if err := json.Unmarshal(data, &state); err != nil {
		fmt.Fprintf(os.Stderr, "boxxy: child: decoding state: %v\n", err)
		os.Exit(1)
	}

	os.Exit(runChild(&state))
}
