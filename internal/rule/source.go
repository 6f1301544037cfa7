package rule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// FsChecker is the subset of fsdriver.Driver that rule selection needs:
// resolving `~`/env-var paths in the Target of a rule whose program match
// has already succeeded. Declared locally so this package never imports
// internal/fsdriver, following the common pattern of small leaf interfaces
// (e.g. shared/subprocess's narrow process interfaces) over a shared
// do-everything type.
type FsChecker interface {
	FullyExpandPath(p string) (string, error)
}

// Source yields the rules applicable to a given invocation: given the
// program being run and a path checker, it returns the rules that apply.
// The enclosure core depends only on this interface; it never reads rule
// files itself.
type Source interface {
	GetAllApplicableRules(program string, fs FsChecker) ([]Rule, error)
}

// Static is a Source backed by an in-memory rule list, useful for tests
// and for callers that build rules programmatically instead of from a
// file.
type Static []Rule

// GetAllApplicableRules implements Source.
func (s Static) GetAllApplicableRules(program string, _ FsChecker) ([]Rule, error) {
	var out []Rule
	for _, r := range s {
		if r.AppliesToProgram(program) && r.activates() {
			out = append(out, r)
		}
	}
	return out, nil
}

// fileDocument is the on-disk shape of a rules YAML file.
type fileDocument struct {
	Rules []Rule `yaml:"rules"`
}

// FileSource loads rules from a YAML file on construction and filters them
// by program match on every call, the same way config loaders like
// lxd/cluster's stored config parse once and serve many times.
type FileSource struct {
	rules []Rule
}

// LoadFile parses a rules YAML file of the form:
//
//	rules:
//	  - name: steam-config
//	    target: ~/.config/steam
//	    rewrite: /mnt/games/steam-config
//	    mode: directory
//	    programs: ["steam"]
//	    env:
//	      STEAM_FOO: bar
func LoadFile(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	for i, r := range doc.Rules {
		if r.Name == "" {
			doc.Rules[i].Name = fmt.Sprintf("rule-%d", i)
		}
		if err := doc.Rules[i].Validate(); err != nil {
			return nil, err
		}
	}

	return &FileSource{rules: doc.Rules}, nil
}

// GetAllApplicableRules implements Source. Program matching is plain glob
// matching on the program name; when fs is non-nil, each matching rule's
// Target is also expanded through it, and an expansion failure is returned
// as an error. Rules loaded from a file have no OnlyIf (YAML
// can't encode a predicate function), so activates() here is always true
// — a filesystem-dependent OnlyIf can only be attached to a Static entry
// built by the caller.
func (f *FileSource) GetAllApplicableRules(program string, fs FsChecker) ([]Rule, error) {
	var out []Rule
	for _, r := range f.rules {
		if !r.AppliesToProgram(program) || !r.activates() {
			continue
		}

		if fs != nil {
			if _, err := fs.FullyExpandPath(r.Target); err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
		}

		out = append(out, r)
	}

	return out, nil
}

// All returns every rule in the file regardless of program match, for the
// `boxxy rules` listing command.
func (f *FileSource) All() []Rule {
	return f.rules
}
