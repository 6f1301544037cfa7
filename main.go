package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/queer/boxxy/internal/boxxylog"
	"github.com/queer/boxxy/internal/enclosure"
)

// cmdGlobal holds flags shared by every subcommand, the way lxd-migrate's
// cmdGlobal does for its single binary.
type cmdGlobal struct {
	flagLogLevel string
}

func main() {
	// The re-exec'd enclosure child is not a normal CLI invocation: its
	// argv is a single sentinel value, and its real configuration arrives
	// over an inherited pipe (see internal/enclosure/reexec.go). It must
	// be handled before cobra gets anywhere near os.Args.
	if enclosure.IsChild() {
		enclosure.RunChild()
		return
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "boxxy: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	global := &cmdGlobal{flagLogLevel: "info"}

	root := &cobra.Command{
		Use:   "boxxy",
		Short: "Sandbox a command's filesystem view with mount namespaces",
		Long: `Description:
  boxxy launches a command inside a private mount and user namespace,
  bind-mounting rule-configured paths so the program's reads and writes at
  a given path are transparently redirected elsewhere — without root and
  without modifying the program.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&global.flagLogLevel, "log-level", "l", "info",
		"log level (trace, debug, info, warn, error)")

	root.AddCommand((&cmdRun{global: global}).command())
	root.AddCommand((&cmdRules{global: global}).command())

	return root
}

func (g *cmdGlobal) logger() (*logrus.Entry, error) {
	return boxxylog.Setup(g.flagLogLevel)
}
