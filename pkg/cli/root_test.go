package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "query", "server", "version", "commands"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "sqltest dev")
}

func TestCommandsCmd_JSON(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"commands"})
	require.NoError(t, root.Execute())

	var entries []CommandEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.NotEmpty(t, entries)

	byPath := map[string]CommandEntry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}
	run, ok := byPath["sqltest run"]
	require.True(t, ok, "run command listed")

	flagNames := map[string]string{}
	for _, f := range run.Flags {
		flagNames[f.Name] = f.Default
	}
	assert.Contains(t, flagNames, "backend")
	assert.Contains(t, flagNames, "manifest")
	assert.Equal(t, "native", flagNames["backend"])

	// Hidden commands stay out of the listing.
	_, ok = byPath["sqltest commands"]
	assert.False(t, ok)
}
