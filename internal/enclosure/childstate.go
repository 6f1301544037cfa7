package enclosure

import "github.com/queer/boxxy/internal/rule"

// childState is everything the re-exec'd child process needs to assemble
// its own mount view and launch the target command. It crosses the
// parent/child boundary as JSON over an inherited pipe (see reexec.go)
// rather than as flags, since it carries an arbitrary number of rules and
// env entries that don't fit comfortably on a command line.
type childState struct {
	Name          string      `json:"name"`
	ContainerRoot string      `json:"container_root"`
	Rules         []rule.Rule `json:"rules"`
	ImmutableRoot bool        `json:"immutable_root"`
	Trace         bool        `json:"trace"`

	Program string   `json:"program"`
	Args    []string `json:"args"`
	Env     []string `json:"env"`
	Cwd     string   `json:"cwd"`
}
