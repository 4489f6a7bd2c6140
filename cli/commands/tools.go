package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/zai-go/tools"
)

func (a *App) newToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect function-spec tool definitions",
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Print the tool declarations loaded from a directory",
		Long: `Load every *.json function spec in --dir and print the declarations
that would be sent to the model, as a JSON array.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runToolsExport()
		},
	}
	export.Flags().StringVar(&a.toolsDir, "dir", "", "Directory of JSON function specs (default: tools_dir from config)")

	cmd.AddCommand(export)
	return cmd
}

func (a *App) runToolsExport() error {
	if a.toolsDir == "" {
		return exitWithCode(ExitValidation, fmt.Errorf("tool directory required: use --dir or set tools_dir in config"))
	}

	reg := tools.NewRegistry()
	names, err := reg.LoadDir(a.toolsDir, nil, false)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	if !a.jsonOutput && len(names) == 0 {
		fmt.Fprintf(a.stderr, "no function specs found in %s\n", a.toolsDir)
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reg.Declarations())
}
