package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lite-lake/zonesync/internal/application/orchestrator"
	"github.com/lite-lake/zonesync/internal/domain/entity"
)

func newVarsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vars <vars>",
		Short: "Print the variable store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := orchestrator.NewWorkflow(args[0]).LoadVariables(cmd.Context())
			if err != nil {
				return err
			}
			renderVariables(cmd.OutOrStdout(), vars)
			return nil
		},
	}
}

func renderVariables(w io.Writer, vars entity.Variables) {
	if len(vars) == 0 {
		fmt.Fprintln(w, HelpStyle.Render("No variables."))
		return
	}
	for _, k := range vars.Keys() {
		fmt.Fprintf(w, "%s=%s\n", KeyStyle.Render(k), vars[k])
	}
}
