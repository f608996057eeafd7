// Package apply provides the apply command, which writes a proposal to a
// resource.
package apply

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/cmd/application"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/pkg/batch"
	"github.com/agentstation/curator/pkg/errors"
)

// NewCommand creates the apply command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		proposalFile string
		validateOnly bool
	)

	cmd := &cobra.Command{
		Use:     "apply <resource-id>",
		GroupID: "core",
		Short:   "Write a proposal to a resource",
		Args:    cobra.ExactArgs(1),
		Long: `Apply reconciles a proposal, builds the replacement payload and writes it
to the store. With --validate-only the payload is checked against the
template but not written.

Validation failures are listed per field.`,
		Example: `  curator apply 12
  curator apply 12 --proposal review.json --validate-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cmdutil.ParseID(args[0])
			if err != nil {
				return err
			}
			prop, err := cmdutil.OptionalProposal(proposalFile, id)
			if err != nil {
				return err
			}

			runner, err := app.Runner(ctx, batch.WithValidateOnly(validateOnly))
			if err != nil {
				return err
			}
			item, err := runner.Apply(ctx, id, prop)
			if err != nil {
				var verrs *errors.ValidationErrors
				if errors.As(err, &verrs) {
					PrintValidation(cmd.ErrOrStderr(), verrs)
				}
				return err
			}

			app.Logger().Info().
				Int64("resource_id", item.ResourceID).
				Str("status", string(item.Status)).
				Msg("Proposal applied")
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), item)
		},
	}

	cmd.Flags().StringVarP(&proposalFile, "proposal", "p", "", "proposal JSON file (default: latest stored proposal)")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "validate the payload without writing it")

	return cmd
}

// PrintValidation lists validation messages per field.
func PrintValidation(w io.Writer, verrs *errors.ValidationErrors) {
	for _, field := range verrs.Fields() {
		for _, msg := range verrs.Messages(field) {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", field, msg)
		}
	}
}
