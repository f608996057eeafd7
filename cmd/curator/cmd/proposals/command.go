// Package proposals provides the proposals command for managing stored
// proposals.
package proposals

import (
	"strconv"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/cmd/application"
	"github.com/agentstation/curator/internal/cmd/cmdutil"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/pkg/proposal"
)

// Row is a stored proposal in a listing.
type Row struct {
	ID         string   `json:"id" yaml:"id"`
	ResourceID int64    `json:"resource_id" yaml:"resource_id"`
	Template   string   `json:"template,omitempty" yaml:"template,omitempty"`
	Terms      int      `json:"terms" yaml:"terms"`
	Media      int      `json:"media" yaml:"media"`
	CreatedAt  utc.Time `json:"created_at" yaml:"created_at"`
}

// Rows is the list subcommand result.
type Rows []Row

// TableData implements output.Tabular.
func (r Rows) TableData() output.Data {
	data := output.Data{Headers: []string{"ID", "Resource", "Template", "Terms", "Media", "Created"}}
	for _, row := range r {
		data.Rows = append(data.Rows, []string{
			row.ID,
			strconv.FormatInt(row.ResourceID, 10),
			row.Template,
			strconv.Itoa(row.Terms),
			strconv.Itoa(row.Media),
			row.CreatedAt.String(),
		})
	}
	return data
}

// NewRows lists proposals.
func NewRows(props []*proposal.Proposal) Rows {
	rows := make(Rows, 0, len(props))
	for _, p := range props {
		rows = append(rows, Row{
			ID:         p.ID,
			ResourceID: p.ResourceID,
			Template:   p.Template,
			Terms:      len(p.Terms),
			Media:      len(p.Media),
			CreatedAt:  p.CreatedAt,
		})
	}
	return rows
}

// NewCommand creates the proposals command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposals",
		GroupID: "management",
		Short:   "Manage stored proposals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newImportCommand(app))
	cmd.AddCommand(newDeleteCommand(app))

	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored proposals, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Store()
			if err != nil {
				return err
			}
			props, err := s.Proposals(cmd.Context())
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), NewRows(props))
		},
	}
}

func newImportCommand(app application.Application) *cobra.Command {
	var resourceID int64

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a proposal from a JSON file",
		Args:  cobra.ExactArgs(1),
		Example: `  curator proposals import review.json
  curator proposals import review.json --resource 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Store()
			if err != nil {
				return err
			}
			prop, err := cmdutil.ReadProposal(afero.NewOsFs(), args[0], resourceID)
			if err != nil {
				return err
			}
			if resourceID != 0 {
				prop.ResourceID = resourceID
			}
			if prop.ID == "" {
				prop.ID = uuid.New().String()
			}
			if prop.CreatedAt.IsZero() {
				prop.CreatedAt = utc.Now()
			}
			if err := s.SaveProposal(cmd.Context(), prop); err != nil {
				return err
			}
			app.Logger().Info().Str("proposal_id", prop.ID).Int64("resource_id", prop.ResourceID).Msg("Proposal imported")
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), NewRows([]*proposal.Proposal{prop}))
		},
	}

	cmd.Flags().Int64Var(&resourceID, "resource", 0, "resource id the proposal targets")

	return cmd
}

func newDeleteCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <proposal-id>",
		Short: "Delete a stored proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Store()
			if err != nil {
				return err
			}
			if err := s.DeleteProposal(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.Logger().Info().Str("proposal_id", args[0]).Msg("Proposal deleted")
			return nil
		},
	}
}
