package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lite-lake/zonesync/internal/application/orchestrator"
	"github.com/lite-lake/zonesync/internal/domain/entity"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
)

func newRecordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "records <conf>",
		Short: "List the zone's current records at the provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithRun(cmd.Context())
			zone, records, err := orchestrator.NewWorkflow("").Records(ctx, args[0])
			if err != nil {
				return err
			}
			renderRecords(cmd.OutOrStdout(), zone, records)
			return nil
		},
	}
}

func renderRecords(w io.Writer, zone entity.ZoneNode, records []entity.RecordNode) {
	fmt.Fprintf(w, "%s %s\n", ZoneStyle.Render(zone.Name), HelpStyle.Render(zone.Value.String()))
	if len(records) == 0 {
		fmt.Fprintln(w, HelpStyle.Render("No records."))
		return
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s %s\n", HelpStyle.Render("["+r.ID+"]"), r.Record.String())
	}
}
