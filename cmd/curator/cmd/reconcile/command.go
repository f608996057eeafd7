// Package reconcile provides the reconcile command, which classifies a
// proposal against a resource without writing anything.
package reconcile

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/cmd/application"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/pkg/batch"
	"github.com/agentstation/curator/pkg/reconciler"
)

// Result is the reconciliation of one proposal.
type Result struct {
	ResourceID int64            `json:"resource_id" yaml:"resource_id"`
	TemplateID int64            `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	ProposalID string           `json:"proposal_id,omitempty" yaml:"proposal_id,omitempty"`
	Stats      reconciler.Stats `json:"stats" yaml:"stats"`
	Entries    []Row            `json:"entries" yaml:"entries"`
}

// Row is one classified entry.
type Row struct {
	Term      string `json:"term" yaml:"term"`
	Key       int    `json:"key" yaml:"key"`
	Process   string `json:"process" yaml:"process"`
	Original  string `json:"original,omitempty" yaml:"original,omitempty"`
	Proposed  string `json:"proposed,omitempty" yaml:"proposed,omitempty"`
	DataType  string `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	Validated bool   `json:"validated" yaml:"validated"`
	Governed  bool   `json:"governed" yaml:"governed"`
}

// NewResult renders a plan.
func NewResult(plan *batch.Plan) *Result {
	r := &Result{
		ResourceID: plan.Resource.ID,
		TemplateID: plan.Policy.TemplateID(),
		ProposalID: plan.Proposal.ID,
		Stats:      plan.Stats,
		Entries:    make([]Row, 0, len(plan.Entries)),
	}
	for _, e := range plan.Entries {
		r.Entries = append(r.Entries, Row{
			Term:      e.Term,
			Key:       e.Key,
			Process:   e.Process.String(),
			Original:  e.Original.String(),
			Proposed:  e.Proposed.String(),
			DataType:  e.DataType,
			Validated: e.Validated,
			Governed:  e.Governed,
		})
	}
	return r
}

// TableData implements output.Tabular.
func (r *Result) TableData() output.Data {
	data := output.Data{
		Headers: []string{"Term", "Key", "Process", "Original", "Proposed", "Validated", "Governed"},
	}
	for _, row := range r.Entries {
		data.Rows = append(data.Rows, []string{
			row.Term,
			strconv.Itoa(row.Key),
			row.Process,
			row.Original,
			row.Proposed,
			strconv.FormatBool(row.Validated),
			strconv.FormatBool(row.Governed),
		})
	}
	return data
}

// NewCommand creates the reconcile command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var proposalFile string

	cmd := &cobra.Command{
		Use:     "reconcile <resource-id>",
		GroupID: "core",
		Short:   "Classify a proposal against a resource",
		Args:    cobra.ExactArgs(1),
		Long: `Reconcile compares each proposed value with the current values of the
resource and classifies it as keep, update, remove or append. Entries the
resource already reflects are marked validated. Nothing is written.

The proposal is read from --proposal, or the latest stored proposal of the
resource is used.`,
		Example: `  curator reconcile 12
  curator reconcile 12 --proposal review.json -o json`,
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

			result := NewResult(plan)
			format := output.DetectFormat(app.OutputFormat())
			if err := output.Write(cmd.OutOrStdout(), string(format), result); err != nil {
				return err
			}
			if format == output.FormatTable || format == output.FormatWide {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Stats)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&proposalFile, "proposal", "p", "", "proposal JSON file (default: latest stored proposal)")

	return cmd
}
