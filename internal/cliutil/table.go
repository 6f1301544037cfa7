// Package cliutil holds small presentation helpers shared by boxxy's
// subcommands: rendering the same tabular data as a table, CSV, JSON, or
// YAML depending on a --format flag.
package cliutil

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v2"
)

// Supported --format values.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// renderer writes header/data/raw to w in one output format. raw carries
// the caller's richer structured value, used only by the JSON/YAML
// encodings, where serializing the stringified table cells instead of the
// original value would lose type information (numbers, nested fields).
type renderer func(w io.Writer, header []string, data [][]string, raw interface{}) error

var renderers = map[string]renderer{
	FormatTable: renderAsTable,
	FormatCSV:   renderAsCSV,
	FormatJSON:  renderAsJSON,
	FormatYAML:  renderAsYAML,
}

// RenderTable writes header/data in the requested format to w. An empty
// format means FormatTable.
func RenderTable(w io.Writer, format string, header []string, data [][]string, raw interface{}) error {
	if format == "" {
		format = FormatTable
	}

	render, ok := renderers[format]
	if !ok {
		return fmt.Errorf("invalid format %q (want table, csv, json, or yaml)", format)
	}

	return render(w, header, data, raw)
}

func renderAsTable(w io.Writer, header []string, data [][]string, _ interface{}) error {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetRowLine(true)
	table.SetHeader(header)
	table.AppendBulk(data)
	table.Render()
	return nil
}

func renderAsCSV(w io.Writer, header []string, data [][]string, _ interface{}) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(data); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func renderAsJSON(w io.Writer, _ []string, _ [][]string, raw interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(raw)
}

func renderAsYAML(w io.Writer, _ []string, _ [][]string, raw interface{}) error {
	out, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
