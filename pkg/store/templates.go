package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/template"
)

var _ template.Lookup = (*Store)(nil)

// Template implements template.Lookup. Numeric refs are read directly;
// labels are searched across every stored template.
func (s *Store) Template(ctx context.Context, ref string) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.loadTemplate(id)
	}

	templates, err := s.templates(ctx)
	if err != nil {
		return nil, err
	}
	return template.Find(templates, ref)
}

// Templates returns every stored template ordered by id.
func (s *Store) Templates(ctx context.Context) ([]*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates(ctx)
}

// SaveTemplate validates and stores t.
func (s *Store) SaveTemplate(_ context.Context, t *template.Template) error {
	if t == nil || t.ID <= 0 {
		return &errors.ValidationError{Field: "id", Message: "must be positive"}
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeYAML(s.path(templatesDir, idName(t.ID), yamlExtension), t); err != nil {
		return errors.WrapResource("write", "template", idName(t.ID), err)
	}
	return nil
}

func (s *Store) templates(ctx context.Context) ([]*template.Template, error) {
	ids, err := s.listIDs(templatesDir, yamlExtension)
	if err != nil {
		return nil, err
	}
	out := make([]*template.Template, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := s.loadTemplate(id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) loadTemplate(id int64) (*template.Template, error) {
	var t template.Template
	if err := s.readYAML(s.path(templatesDir, idName(id), yamlExtension), &t); err != nil {
		if notExist(err) {
			return nil, errors.NewNotFoundError("template", idName(id))
		}
		return nil, errors.WrapResource("read", "template", idName(id), err)
	}
	t.ID = id
	return &t, nil
}
