// Package build provides the build command, which prints the replacement
// payload a proposal produces for a resource.
package build

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/cmd/application"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/pkg/batch"
	"github.com/agentstation/curator/pkg/payload"
	"github.com/agentstation/curator/pkg/reconciler"
)

// Result is a built payload.
type Result struct {
	ResourceID  int64            `json:"resource_id" yaml:"resource_id"`
	Changed     bool             `json:"changed" yaml:"changed"`
	Fingerprint string           `json:"fingerprint" yaml:"fingerprint"`
	Stats       reconciler.Stats `json:"stats" yaml:"stats"`
	Payload     *payload.Payload `json:"payload" yaml:"payload"`
}

// NewResult renders a plan.
func NewResult(plan *batch.Plan) *Result {
	return &Result{
		ResourceID:  plan.Resource.ID,
		Changed:     plan.Changed(),
		Fingerprint: plan.Payload.Fingerprint(),
		Stats:       plan.Stats,
		Payload:     plan.Payload,
	}
}

// NewCommand creates the build command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var proposalFile string

	cmd := &cobra.Command{
		Use:     "build <resource-id>",
		GroupID: "core",
		Short:   "Build the payload a proposal produces",
		Args:    cobra.ExactArgs(1),
		Long: `Build reconciles a proposal and prints the complete value list the
resource would have after writing it, including attached media. Values
outside the template are carried over unchanged.

Building twice from the same state yields the same payload and fingerprint.`,
		Example: `  curator build 12
  curator build 12 --proposal review.json -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cmdutil.ParseID(args[0])
			if err != nil {
				return err
			}
			prop, err := cmdutil.OptionalProposal(proposalFile, id)
			if err != nil {
				return err
			}

			runner, err := app.Runner(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := runner.Prepare(cmd.Context(), id, prop)
			if err != nil {
				return err
			}

			// Payloads have no table rendering
			format := app.OutputFormat()
			if f := output.Format(format); f == "" || f == output.FormatTable || f == output.FormatWide {
				format = string(output.FormatJSON)
			}
			return output.Write(cmd.OutOrStdout(), format, NewResult(plan))
		},
	}

	cmd.Flags().StringVarP(&proposalFile, "proposal", "p", "", "proposal JSON file (default: latest stored proposal)")

	return cmd
}
