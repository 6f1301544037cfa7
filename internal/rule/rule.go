// Package rule defines the redirect rules an Enclosure applies, and the
// RuleSource contract the core consumes without caring how rules were
// parsed or selected.
package rule

import (
	"fmt"
	"path/filepath"
)

// Mode says whether a rule's endpoints are a single file or a directory
// tree.
type Mode int

const (
	// File rules bind-mount a single file onto another.
	File Mode = iota
	// Directory rules bind-mount a directory tree onto another.
	Directory
)

// String renders a Mode the way it would appear in a rules file.
func (m Mode) String() string {
	switch m {
	case File:
		return "file"
	case Directory:
		return "directory"
	default:
		return "unknown"
	}
}

// Rule is a single redirect: reads/writes under Target are transparently
// served from Rewrite once the enclosure's mount view is assembled.
type Rule struct {
	// Name identifies the rule in logs and in the rules table.
	Name string `yaml:"name"`
	// Target is the path the sandboxed program believes it is using.
	Target string `yaml:"target"`
	// Rewrite is the real storage location bind-mounted onto Target.
	Rewrite string `yaml:"rewrite"`
	// Mode says whether Target/Rewrite are files or directories.
	Mode Mode `yaml:"mode"`
	// Programs lists glob patterns matched against the invoked program's
	// base name (e.g. "steam", "*.AppImage"). Empty matches every program.
	Programs []string `yaml:"programs"`
	// Env is merged into the child's environment whenever this rule
	// applies, after inherited and dotenv-sourced variables.
	Env map[string]string `yaml:"env"`
	// OnlyIf, when set, is an additional activation predicate evaluated
	// once at rule-selection time: a rule whose program pattern matches
	// is still skipped if OnlyIf returns false. A nil OnlyIf always
	// activates. It has no YAML encoding — a func value can't be parsed
	// out of a rules file — so rules loaded from a file are always
	// unconditionally eligible; callers building rules in code (a Static
	// entry) are the only ones positioned to supply one.
	OnlyIf func() bool `yaml:"-"`
}

// activates reports whether the rule's OnlyIf predicate, if any, holds.
func (r Rule) activates() bool {
	return r.OnlyIf == nil || r.OnlyIf()
}

// AppliesToProgram reports whether the rule is active for the given
// invoked program path, matching Programs glob patterns against its base
// name. A rule with no Programs entries applies universally.
func (r Rule) AppliesToProgram(program string) bool {
	if len(r.Programs) == 0 {
		return true
	}

	base := filepath.Base(program)
	for _, pattern := range r.Programs {
		ok, err := filepath.Match(pattern, base)
		if err == nil && ok {
			return true
		}
	}

	return false
}

// Validate checks the invariants a rule must satisfy once its paths have
// been expanded: both paths present, and an unambiguous mode.
func (r Rule) Validate() error {
	if r.Target == "" || r.Rewrite == "" {
		return fmt.Errorf("rule %q: target and rewrite must both be set", r.Name)
	}

	if r.Mode != File && r.Mode != Directory {
		return fmt.Errorf("rule %q: mode must be file or directory", r.Name)
	}

	return nil
}

// UnmarshalYAML lets rule files spell out mode as the bareword "file" or
// "directory" instead of an integer.
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	switch s {
	case "file", "File":
		*m = File
	case "directory", "Directory", "dir":
		*m = Directory
	default:
		return fmt.Errorf("unknown rule mode %q", s)
	}

	return nil
}

// MarshalYAML renders a Mode back to its bareword spelling.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}
