package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/queer/boxxy/internal/cliutil"
	"github.com/queer/boxxy/internal/fsdriver"
	"github.com/queer/boxxy/internal/rule"
)

type cmdRules struct {
	global *cmdGlobal

	flagRules  string
	flagFor    string
	flagFormat string
}

func (c *cmdRules) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "rules"
	cmd.Short = "List the rules a rules file defines"
	cmd.Args = cobra.NoArgs
	cmd.RunE = c.run

	cmd.Flags().StringVar(&c.flagRules, "rules", "~/.config/boxxy/rules.yaml", "path to a rules YAML file")
	cmd.Flags().StringVar(&c.flagFor, "for", "", "only list rules applicable to this program")
	cmd.Flags().StringVar(&c.flagFormat, "format", cliutil.FormatTable, "output format: table, csv, json, yaml")

	return cmd
}

func (c *cmdRules) run(_ *cobra.Command, _ []string) error {
	fs := fsdriver.New()

	rulesPath, err := fs.FullyExpandPath(c.flagRules)
	if err != nil {
		return fmt.Errorf("expanding --rules: %w", err)
	}

	source, err := rule.LoadFile(rulesPath)
	if err != nil {
		return err
	}

	rules := source.All()
	if c.flagFor != "" {
		rules, err = source.GetAllApplicableRules(c.flagFor, fs)
		if err != nil {
			return err
		}
	}

	header := []string{"NAME", "TARGET", "REWRITE", "MODE", "PROGRAMS"}
	data := make([][]string, 0, len(rules))
	for _, r := range rules {
		data = append(data, []string{r.Name, r.Target, r.Rewrite, r.Mode.String(), fmt.Sprint(r.Programs)})
	}

	return cliutil.RenderTable(os.Stdout, c.flagFormat, header, data, rules)
}
