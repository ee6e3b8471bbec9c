package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lite-lake/zonesync/internal/application/orchestrator"
	"github.com/lite-lake/zonesync/internal/domain/valueobject"
	"github.com/lite-lake/zonesync/internal/infrastructure/logger"
)

func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <conf> <vars>",
		Short: "Show the operations a sync would run now",
		Long:  "Fetch the zone once, diff it against the resolved records and print the plan. Nothing is changed, the variable store included.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logger.WithRun(cmd.Context())
			p, cfg, err := orchestrator.NewWorkflow(args[1]).Plan(ctx, args[0])
			if err != nil {
				return err
			}
			renderPlan(cmd.OutOrStdout(), cfg.Domain, p)
			return nil
		},
	}
}

var planOrder = []valueobject.OperationKind{
	valueobject.OperationZoneUpdate,
	valueobject.OperationPatch,
	valueobject.OperationCreate,
	valueobject.OperationDelete,
}

func renderPlan(w io.Writer, zone string, p *valueobject.Plan) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Execution Plan"), ZoneStyle.Render(zone))

	if !p.HasChanges() {
		fmt.Fprintln(w, SuccessStyle.Render("No changes detected."))
		return
	}

	for _, kind := range planOrder {
		for _, op := range p.FilterByKind(kind) {
			prefix, style := FormatOperationKind(kind)
			fmt.Fprintln(w, style.Render(prefix+" "+op.String()))
		}
	}

	counts := p.CountByKind()
	fmt.Fprintln(w, HelpStyle.Render(fmt.Sprintf("%d to create, %d to patch, %d to delete, %d zone update",
		counts[valueobject.OperationCreate],
		counts[valueobject.OperationPatch],
		counts[valueobject.OperationDelete],
		counts[valueobject.OperationZoneUpdate],
	)))
}
