package cliutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct {
	Name string `json:"name" yaml:"name"`
}

func TestRenderTableDefaultsToTableFormat(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, "", []string{"NAME"}, [][]string{{"a"}}, nil)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "NAME")
	require.Contains(t, buf.String(), "a")
}

func TestRenderTableCSVIncludesHeader(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, FormatCSV, []string{"NAME"}, [][]string{{"a"}, {"b"}}, nil)
	require.NoError(t, err)
	require.Equal(t, "NAME\na\nb\n", buf.String())
}

func TestRenderTableJSONUsesRawValue(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, FormatJSON, nil, nil, []row{{Name: "a"}})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"name": "a"`)
}

func TestRenderTableYAMLUsesRawValue(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, FormatYAML, nil, nil, []row{{Name: "a"}})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "name: a")
}

func TestRenderTableRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTable(&buf, "xml", nil, nil, nil)
	require.Error(t, err)
}
