// Package cmdutil provides shared flags and argument helpers for curator commands.
package cmdutil

import (
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/resource"
)

// SelectorFlags holds the flags that pick the resources of a batch.
type SelectorFlags struct {
	IDs         []int64
	TemplateIDs []int64
	ClassIDs    []int64
}

// AddSelectorFlags adds resource selection flags to a command.
func AddSelectorFlags(cmd *cobra.Command) *SelectorFlags {
	flags := &SelectorFlags{}

	cmd.Flags().Int64SliceVar(&flags.IDs, "ids", nil,
		"Only these resource ids")
	cmd.Flags().Int64SliceVar(&flags.TemplateIDs, "template", nil,
		"Only resources using these template ids")
	cmd.Flags().Int64SliceVar(&flags.ClassIDs, "class", nil,
		"Only resources of these class ids")

	return flags
}

// Selector converts the flags to a resource selector.
func (f *SelectorFlags) Selector() resource.Selector {
	return resource.Selector{
		IDs:         f.IDs,
		TemplateIDs: f.TemplateIDs,
		ClassIDs:    f.ClassIDs,
	}
}

// ParseID parses a positive resource id argument.
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, &errors.ValidationError{
			Field:   "id",
			Value:   arg,
			Message: "must be a positive integer",
		}
	}
	return id, nil
}

// ReadProposal reads a proposal tree from a JSON file. The resource id
// falls back to id when the file does not carry one.
func ReadProposal(fs afero.Fs, path string, id int64) (*proposal.Proposal, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	p, err := proposal.Parse(data)
	if err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	if p.ResourceID == 0 {
		p.ResourceID = id
	}
	return p, nil
}

// OptionalProposal reads the proposal file at path from the OS filesystem,
// or returns nil when path is empty so the stored proposal is used.
func OptionalProposal(path string, id int64) (*proposal.Proposal, error) {
	if path == "" {
		return nil, nil
	}
	return ReadProposal(afero.NewOsFs(), path, id)
}
