// Package config holds the validated input the enclosure core consumes:
// the command to run and the policy flags. Parsing these from flags/files
// is this package's job; the core never touches a flag set or a config
// file directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/subosito/gotenv"

	"github.com/queer/boxxy/internal/rule"
)

// Command is the program boxxy launches inside the enclosure.
type Command struct {
	Program string
	Args    []string
	Env     map[string]string
}

// ParseCommandLine splits a single shell-style command string into a
// Command, the way a rules file might specify a default command to run
// for a given program match. Uses the same splitter lxd/cluster/config.go
// uses for stored command strings.
func ParseCommandLine(line string) (Command, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("splitting command line %q: %w", line, err)
	}
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command line")
	}

	return Command{Program: fields[0], Args: fields[1:]}, nil
}

// Config is the fully validated input to an Enclosure run.
type Config struct {
	Command Command
	Rules   rule.Source

	Trace         bool
	ImmutableRoot bool
	Daemon        bool
	Dotenv        bool
}

// ResolveEnv builds the full environment the child process should run
// with: the inherited environment, then (if Dotenv is set) the nearest
// .env file in the current directory, then every applicable rule's Env,
// each layer overriding the last: rule env overrides dotenv overrides
// inherited env.
func (c *Config) ResolveEnv(applicable []rule.Rule) ([]string, error) {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := splitEnv(kv)
		if ok {
			env[k] = v
		}
	}

	if c.Dotenv {
		dotenvVars, err := loadNearestDotenv()
		if err != nil {
			return nil, err
		}
		for k, v := range dotenvVars {
			env[k] = v
		}
	}

	for k, v := range c.Command.Env {
		env[k] = v
	}

	for _, r := range applicable {
		for k, v := range r.Env {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out, nil
}

func splitEnv(kv string) (key, value string, ok bool) {
	k, v, found := strings.Cut(kv, "=")
	return k, v, found
}

// loadNearestDotenv looks for a .env file starting at the current
// directory, the way the original Rust implementation used dotenvy::dotenv
// (which walks up from cwd). gotenv.Read returns a parsed map without
// mutating process environment, since that merge is ResolveEnv's job.
func loadNearestDotenv() (map[string]string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving cwd for dotenv lookup: %w", err)
	}

	for {
		path := filepath.Join(dir, ".env")
		if _, statErr := os.Stat(path); statErr == nil {
			vars, err := gotenv.Read(path)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			return vars, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}
