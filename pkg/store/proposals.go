package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/spf13/afero"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/proposal"
)

// SaveProposal stores p under its id.
func (s *Store) SaveProposal(_ context.Context, p *proposal.Proposal) error {
	if p == nil || p.ID == "" {
		return &errors.ValidationError{Field: "id", Message: "cannot be empty"}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.WrapParse("json", p.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFile(s.path(proposalsDir, p.ID, jsonExtension), data)
}

// Proposal loads the proposal with id.
func (s *Store) Proposal(_ context.Context, id string) (*proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadProposal(id)
}

// Proposals returns every stored proposal, oldest first.
func (s *Store) Proposals(ctx context.Context) ([]*proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names, err := s.list(proposalsDir, jsonExtension)
	if err != nil {
		return nil, err
	}
	out := make([]*proposal.Proposal, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.loadProposal(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ProposalFor returns the most recent proposal targeting resourceID.
func (s *Store) ProposalFor(ctx context.Context, resourceID int64) (*proposal.Proposal, error) {
	all, err := s.Proposals(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ResourceID == resourceID {
			return all[i], nil
		}
	}
	return nil, errors.NewNotFoundError("proposal for resource", idName(resourceID))
}

// DeleteProposal removes a stored proposal.
func (s *Store) DeleteProposal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path(proposalsDir, id, jsonExtension)
	if err := s.fs.Remove(path); err != nil {
		if notExist(err) {
			return errors.NewNotFoundError("proposal", id)
		}
		return errors.WrapIO("delete", path, err)
	}
	return nil
}

func (s *Store) loadProposal(id string) (*proposal.Proposal, error) {
	path := s.path(proposalsDir, id, jsonExtension)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if notExist(err) {
			return nil, errors.NewNotFoundError("proposal", id)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	p, err := proposal.Parse(data)
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}
