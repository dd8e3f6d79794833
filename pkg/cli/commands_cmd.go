package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CommandEntry describes one CLI command for introspection output.
type CommandEntry struct {
	Path  string      `json:"path"`
	Short string      `json:"short"`
	Flags []FlagEntry `json:"flags,omitempty"`
}

// FlagEntry describes one flag of a command.
type FlagEntry struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
	Usage   string `json:"usage"`
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "commands",
		Short:  "List every command and flag as JSON",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var entries []CommandEntry
			collectCommands(cmd.Root(), "", &entries)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}
}

func collectCommands(cmd *cobra.Command, prefix string, entries *[]CommandEntry) {
	path := strings.TrimSpace(prefix + " " + cmd.Name())
	if cmd.Runnable() && !cmd.Hidden {
		*entries = append(*entries, CommandEntry{
			Path:  path,
			Short: cmd.Short,
			Flags: collectFlags(cmd),
		})
	}
	for _, sub := range cmd.Commands() {
		collectCommands(sub, path, entries)
	}
}

func collectFlags(cmd *cobra.Command) []FlagEntry {
	var flags []FlagEntry
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		flags = append(flags, FlagEntry{
			Name:    f.Name,
			Type:    f.Value.Type(),
			Default: f.DefValue,
			Usage:   f.Usage,
		})
	})
	return flags
}
