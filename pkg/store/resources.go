package store

import (
	"context"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/resource"
)

var (
	_ resource.Reader = (*Store)(nil)
	_ resource.Loader = (*Store)(nil)
	_ resource.Lister = (*Store)(nil)
)

// Resource implements resource.Loader.
func (s *Store) Resource(_ context.Context, id int64) (*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadResource(id)
}

// Values implements resource.Reader.
func (s *Store) Values(ctx context.Context, id int64) ([]resource.Value, error) {
	r, err := s.Resource(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Values, nil
}

// SaveResource stores r as is, replacing any resource with its id.
func (s *Store) SaveResource(_ context.Context, r *resource.Resource) error {
	if r == nil || r.ID <= 0 {
		return &errors.ValidationError{Field: "id", Message: "must be positive"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveResource(r)
}

// Select implements resource.Lister.
func (s *Store) Select(ctx context.Context, sel resource.Selector) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, err := s.listIDs(resourcesDir, yamlExtension)
	if err != nil {
		return nil, err
	}
	var out []int64
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.loadResource(id)
		if err != nil {
			return nil, err
		}
		if sel.Matches(r) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Store) loadResource(id int64) (*resource.Resource, error) {
	var r resource.Resource
	if err := s.readYAML(s.path(resourcesDir, idName(id), yamlExtension), &r); err != nil {
		if notExist(err) {
			return nil, errors.NewNotFoundError("resource", idName(id))
		}
		return nil, errors.WrapResource("read", "resource", idName(id), err)
	}
	r.ID = id
	r.Values = resource.Normalize(r.Values)
	for _, m := range r.Media {
		m.Values = resource.Normalize(m.Values)
	}
	return &r, nil
}

func (s *Store) saveResource(r *resource.Resource) error {
	if err := s.writeYAML(s.path(resourcesDir, idName(r.ID), yamlExtension), r); err != nil {
		return errors.WrapResource("write", "resource", idName(r.ID), err)
	}
	return nil
}

// nextID returns one past the highest resource or media id in the store.
func (s *Store) nextID() (int64, error) {
	ids, err := s.listIDs(resourcesDir, yamlExtension)
	if err != nil {
		return 0, err
	}
	var highest int64
	for _, id := range ids {
		highest = max(highest, id)
		r, err := s.loadResource(id)
		if err != nil {
			return 0, err
		}
		for _, m := range r.Media {
			highest = max(highest, m.ID)
		}
	}
	return highest + 1, nil
}
