// Package enclosure is the orchestrator: it owns the full NEW ->
// RULES_PREPARED -> CHILD_CLONED -> CHILD_STOPPED -> IDS_MAPPED ->
// {TRACING | DETACHED} -> CHILD_EXITED -> CLEANED state machine. Every
// other package in this module exists to support one step of it.
package enclosure

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/queer/boxxy/internal/appimage"
	"github.com/queer/boxxy/internal/config"
	"github.com/queer/boxxy/internal/fsdriver"
)

// Enclosure holds all state for a single sandboxed run. It is constructed
// fresh for each invocation and discarded afterward — unlike a long-lived
// service object, there is nothing to reuse between runs.
type Enclosure struct {
	cfg *config.Config
	fs  fsdriver.Driver
	log *logrus.Entry

	name               string
	createdFiles       []string
	createdDirectories []string
	childExitStatus    int
}

// New constructs an Enclosure for a single run of cfg.
func New(cfg *config.Config, fs fsdriver.Driver, log *logrus.Entry) *Enclosure {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Enclosure{
		cfg:             cfg,
		fs:              fs,
		log:             log,
		childExitStatus: -1,
	}
}

// Result is what Run reports back to the CLI layer.
type Result struct {
	ExitStatus  int
	ReportPaths []string
	// Daemonized is true when Run's only action was re-exec'ing a
	// detached copy of the process per cfg.Daemon; the caller should
	// treat this as "launched, not completed" rather than inspect
	// ExitStatus/ReportPaths.
	Daemonized bool
}

// daemonizeFunc is Daemonize, indirected so tests can observe the gating
// in Run without actually spawning a detached process.
var daemonizeFunc = Daemonize

// Run drives the entire state machine to completion and returns the
// target command's reported exit status. If cfg.Daemon is set and this
// process isn't already the detached copy of a prior Daemonize call, Run
// re-execs a detached copy of itself and returns immediately instead of
// sandboxing anything itself — the detached copy performs the actual run.
func (e *Enclosure) Run() (*Result, error) {
	if e.cfg.Daemon && !AlreadyDaemonized() {
		if err := daemonizeFunc(); err != nil {
			return nil, fmt.Errorf("daemonizing: %w", err)
		}
		return &Result{Daemonized: true}, nil
	}

	resolvedPath, err := exec.LookPath(e.cfg.Command.Program)
	if err != nil {
		if _, statErr := os.Stat(e.cfg.Command.Program); statErr == nil {
			resolvedPath = e.cfg.Command.Program
		} else {
			return nil, &ErrBinaryNotFound{Program: e.cfg.Command.Program}
		}
	}

	if err := appimage.Check(e.cfg.Command.Program, resolvedPath, e.cfg.Command.Args); err != nil {
		return nil, err
	}

	applicable, err := e.cfg.Rules.GetAllApplicableRules(e.cfg.Command.Program, e.fs)
	if err != nil {
		return nil, fmt.Errorf("selecting applicable rules: %w", err)
	}

	prepared, err := prepareRules(e.fs, applicable)
	if prepared != nil {
		e.createdFiles = prepared.createdFiles
		e.createdDirectories = prepared.createdDirectories
	}
	if err != nil {
		cleanup(e.fs, e.log, e.name, e.createdFiles, e.createdDirectories)
		return nil, err
	}

	e.name = generateName()

	env, err := e.cfg.ResolveEnv(prepared.rules)
	if err != nil {
		cleanup(e.fs, e.log, e.name, e.createdFiles, e.createdDirectories)
		return nil, fmt.Errorf("resolving environment: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	state := &childState{
		Name:          e.name,
		ContainerRoot: e.fs.ContainerRoot(e.name),
		Rules:         prepared.rules,
		ImmutableRoot: e.cfg.ImmutableRoot,
		Trace:         e.cfg.Trace,
		Program:       resolvedPath,
		Args:          e.cfg.Command.Args,
		Env:           env,
		Cwd:           cwd,
	}

	handler := installSigintHandler(e.name, e.fs, e.log, e.createdFiles, e.createdDirectories)

	exitStatus, reportPaths, err := e.spawnAndRun(state, handler)
	handler.stop()

	e.childExitStatus = exitStatus
	cleanup(e.fs, e.log, e.name, e.createdFiles, e.createdDirectories)

	if err != nil {
		return nil, err
	}

	if e.cfg.Trace {
		if werr := writeReport(reportPaths); werr != nil {
			e.log.WithError(werr).Warn("failed to write trace report")
		}
	}

	return &Result{ExitStatus: exitStatus, ReportPaths: reportPaths}, nil
}
