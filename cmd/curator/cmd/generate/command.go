// Package generate provides the generate command, which asks a language
// model for a proposal.
package generate

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/cmd/application"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/pkg/errors"
)

// NewCommand creates the generate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		save     bool
		template string
	)

	cmd := &cobra.Command{
		Use:     "generate <resource-id>",
		GroupID: "core",
		Short:   "Generate a proposal with a language model",
		Args:    cobra.ExactArgs(1),
		Long: `Generate sends the governed properties of the resource's template and its
current values to the configured model and turns the reply into a
proposal. Existing values of non-editable properties are never changed.

The proposal is printed, and stored for review with --save.

Requires CURATOR_GEMINI_API_KEY or GEMINI_API_KEY.`,
		Example: `  curator generate 12
  curator generate 12 --save
  curator generate 12 --template Book`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := cmdutil.ParseID(args[0])
			if err != nil {
				return err
			}

			s, err := app.Store()
			if err != nil {
				return err
			}
			res, err := s.Resource(ctx, id)
			if err != nil {
				return err
			}

			ref := template
			if ref == "" {
				if res.TemplateID == 0 {
					return errors.NewPolicyError("", "resource has no template")
				}
				ref = strconv.FormatInt(res.TemplateID, 10)
			}
			tpl, err := s.Template(ctx, ref)
			if err != nil {
				return err
			}

			gen, err := app.Generator(ctx)
			if err != nil {
				return err
			}
			prop, err := gen.Generate(ctx, id, tpl, res.Values)
			if err != nil {
				return err
			}

			if save {
				if err := s.SaveProposal(ctx, prop); err != nil {
					return err
				}
				app.Logger().Info().Str("proposal_id", prop.ID).Int64("resource_id", id).Msg("Proposal saved")
			}

			// Proposals have no table rendering
			format := app.OutputFormat()
			if f := output.Format(format); f == "" || f == output.FormatTable || f == output.FormatWide {
				format = string(output.FormatJSON)
			}
			return output.Write(cmd.OutOrStdout(), format, prop)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store the proposal for review")
	cmd.Flags().StringVar(&template, "template", "", "template id or label (default: the resource's template)")

	return cmd
}
