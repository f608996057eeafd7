// Package match provides the match command, which finds stored proposals
// whose resulting payload satisfies a search query.
package match

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/cmd/application"
	"github.com/agentstation/curator/internal/cmd/output"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/query"
)

// Match is a proposal whose payload satisfies the query.
type Match struct {
	ResourceID int64  `json:"resource_id" yaml:"resource_id"`
	ProposalID string `json:"proposal_id" yaml:"proposal_id"`
	Template   string `json:"template,omitempty" yaml:"template,omitempty"`
}

// Matches is the match command result.
type Matches []Match

// TableData implements output.Tabular.
func (m Matches) TableData() output.Data {
	data := output.Data{Headers: []string{"Resource", "Proposal", "Template"}}
	for _, match := range m {
		data.Rows = append(data.Rows, []string{
			strconv.FormatInt(match.ResourceID, 10),
			match.ProposalID,
			match.Template,
		})
	}
	return data
}

// NewCommand creates the match command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "match <query>",
		GroupID: "management",
		Short:   "Find proposals matching a search query",
		Args:    cobra.ExactArgs(1),
		Long: `Match builds the payload of every stored proposal and keeps those whose
payload satisfies the query. The query uses the search form encoding:

  resource_template_id[]=3        template ids
  resource_class_id[]=7           class ids
  property[0][property]=dcterms:title&property[0][text]=Moby
                                  a term holding a value with that text

Clauses are combined with AND.`,
		Example: `  curator match 'resource_template_id[]=3'
  curator match 'property[0][property]=dcterms:subject&property[0][text]=whales'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, err := query.ParseString(args[0])
			if err != nil {
				return err
			}

			s, err := app.Store()
			if err != nil {
				return err
			}
			runner, err := app.Runner(ctx)
			if err != nil {
				return err
			}
			props, err := s.Proposals(ctx)
			if err != nil {
				return err
			}

			logger := app.Logger()
			matches := Matches{}
			for _, prop := range props {
				plan, err := runner.Prepare(ctx, prop.ResourceID, prop)
				switch {
				case errors.IsNotGenerative(err), errors.IsNotFound(err):
					logger.Debug().Err(err).Str("proposal_id", prop.ID).Msg("Proposal not matchable")
					continue
				case err != nil:
					return err
				}
				if query.Matches(plan.Payload, q) {
					matches = append(matches, Match{
						ResourceID: prop.ResourceID,
						ProposalID: prop.ID,
						Template:   prop.Template,
					})
				}
			}

			logger.Debug().Int("matches", len(matches)).Msg("Match finished")
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), matches)
		},
	}

	return cmd
}
