package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/queer/boxxy/internal/config"
	"github.com/queer/boxxy/internal/enclosure"
	"github.com/queer/boxxy/internal/fsdriver"
	"github.com/queer/boxxy/internal/rule"
)

type cmdRun struct {
	global *cmdGlobal

	flagTrace         bool
	flagImmutableRoot bool
	flagDaemon        bool
	flagDotenv        bool
	flagRules         string
}

func (c *cmdRun) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "run [flags] -- <program> [args...]"
	cmd.Short = "Run a command inside a sandboxed filesystem view"
	cmd.Long = `Description:
  Launches <program> inside a private mount and user namespace, with every
  rule from the rules file that matches <program> applied as a bind mount.`
	cmd.Args = cobra.MinimumNArgs(1)
	cmd.RunE = c.run

	cmd.Flags().BoolVar(&c.flagTrace, "trace", false, "trace the child's path-touching syscalls and write ./boxxy-report.txt")
	cmd.Flags().BoolVar(&c.flagImmutableRoot, "immutable-root", false, "remount the enclosure's root read-only after mounting rules")
	cmd.Flags().BoolVar(&c.flagDaemon, "daemon", false, "detach and redirect stdio to /tmp/boxxy-<epoch>.{stdout,stderr}")
	cmd.Flags().BoolVar(&c.flagDotenv, "dotenv", false, "merge the nearest .env file into the child's environment")
	cmd.Flags().StringVar(&c.flagRules, "rules", "~/.config/boxxy/rules.yaml", "path to a rules YAML file")

	return cmd
}

func (c *cmdRun) run(_ *cobra.Command, args []string) error {
	log, err := c.global.logger()
	if err != nil {
		return err
	}

	fs := fsdriver.New()

	rulesPath, err := fs.FullyExpandPath(c.flagRules)
	if err != nil {
		return fmt.Errorf("expanding --rules: %w", err)
	}

	var source rule.Source
	if _, statErr := os.Stat(rulesPath); statErr == nil {
		fileSource, err := rule.LoadFile(rulesPath)
		if err != nil {
			return err
		}
		source = fileSource
	} else {
		log.WithField("path", rulesPath).Debug("no rules file found, running with no rules")
		source = rule.Static{}
	}

	cfg := &config.Config{
		Command: config.Command{
			Program: args[0],
			Args:    args[1:],
		},
		Rules:         source,
		Trace:         c.flagTrace,
		ImmutableRoot: c.flagImmutableRoot,
		Daemon:        c.flagDaemon,
		Dotenv:        c.flagDotenv,
	}

	enc := enclosure.New(cfg, fs, log)
	result, err := enc.Run()
	if err != nil {
		return err
	}

	if result.Daemonized {
		return nil
	}

	if result.ExitStatus == 0 {
		stdout := colorable.NewColorableStdout()
		fmt.Fprintf(stdout, "\x1b[32mboxed %s ♥\x1b[0m\n", cfg.Command.Program)
	}

	if c.flagTrace {
		log.WithField("paths", len(result.ReportPaths)).Info("wrote boxxy-report.txt")
	}

	os.Exit(result.ExitStatus)
	return nil
}
