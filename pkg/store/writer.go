package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/payload"
	"github.com/agentstation/curator/pkg/resource"
	"github.com/agentstation/curator/pkg/template"
)

var _ payload.Writer = (*Store)(nil)

// Write implements payload.Writer. The payload replaces the values of the
// resource; media in the payload replace the values of the media with the
// same id, and media without id are created. Other media are untouched.
//
// The payload is validated against its template: required properties,
// value counts and data types. Violations are returned as
// *errors.ValidationErrors and nothing is written.
func (s *Store) Write(ctx context.Context, id int64, p *payload.Payload, opts payload.WriteOptions) (int64, error) {
	if p == nil {
		return 0, &errors.ValidationError{Field: "payload", Message: "cannot be nil"}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current *resource.Resource
	if id != 0 {
		var err error
		if current, err = s.loadResource(id); err != nil {
			return 0, err
		}
	}

	verrs := errors.NewValidationErrors()
	s.validate("", p, verrs)
	for i, m := range p.Media {
		prefix := fmt.Sprintf("o:media[%d].", i)
		if m.ID != 0 && current.MediaByID(m.ID) == nil {
			verrs.Add(prefix+"o:id", fmt.Sprintf("media %d does not belong to resource %d", m.ID, id))
		}
		s.validate(prefix, m, verrs)
	}
	if verrs.Len() > 0 {
		return 0, verrs
	}
	if opts.ValidateOnly {
		return id, errors.ErrValidateOnly
	}

	next, err := s.nextID()
	if err != nil {
		return 0, err
	}
	alloc := func() int64 {
		id := next
		next++
		return id
	}

	r := apply(current, p)
	if r.ID == 0 {
		r.ID = alloc()
	}
	for _, m := range p.Media {
		existing := r.MediaByID(m.ID)
		if existing == nil {
			child := apply(nil, m)
			child.ID = alloc()
			r.Media = append(r.Media, child)
			continue
		}
		*existing = *apply(existing, m)
	}

	if err := s.saveResource(r); err != nil {
		return 0, err
	}
	s.logger.Debug().Int64("resource_id", r.ID).Int("media", len(p.Media)).Msg("Wrote resource")
	return r.ID, nil
}

// apply returns current with its values replaced by the payload's.
func apply(current *resource.Resource, p *payload.Payload) *resource.Resource {
	r := &resource.Resource{}
	if current != nil {
		copied := *current
		copied.Media = append([]*resource.Resource(nil), current.Media...)
		r = &copied
	}
	if p.TemplateID != 0 {
		r.TemplateID = p.TemplateID
	}
	if p.ClassID != 0 {
		r.ClassID = p.ClassID
	}

	r.Values = nil
	for _, term := range p.Terms {
		for _, rec := range term.Values {
			r.Values = append(r.Values, resource.Value{
				Term:     term.Term,
				Value:    rec.AsValue(),
				DataType: rec.Type,
			})
		}
	}
	r.Values = resource.Normalize(r.Values)

	if p.File != nil && r.File == nil {
		r.File = &resource.File{Name: p.File.Name, Path: p.File.Store}
	}
	return r
}

// validate adds the template violations of p under prefix.
func (s *Store) validate(prefix string, p *payload.Payload, verrs *errors.ValidationErrors) {
	if p.TemplateID == 0 {
		return
	}
	tpl, err := s.loadTemplate(p.TemplateID)
	if err != nil {
		verrs.Add(prefix+"o:resource_template", fmt.Sprintf("unknown template %d", p.TemplateID))
		return
	}
	validateAgainst(tpl, prefix, p, verrs)
}

func validateAgainst(tpl *template.Template, prefix string, p *payload.Payload, verrs *errors.ValidationErrors) {
	for _, prop := range tpl.Properties {
		records := p.Values(prop.Term)
		count := len(records)
		field := prefix + prop.Term

		if prop.Required && count == 0 {
			verrs.Add(field, "a value is required")
		}
		if prop.MinValues > 0 && count > 0 && count < prop.MinValues {
			verrs.Add(field, fmt.Sprintf("at least %d values required, got %d", prop.MinValues, count))
		}
		if prop.MaxValues > 0 && count > prop.MaxValues {
			verrs.Add(field, fmt.Sprintf("at most %d values allowed, got %d", prop.MaxValues, count))
		}

		allowed := prop.DataTypes
		if len(allowed) == 0 {
			allowed = constants.DefaultDataTypes()
		}
		for _, rec := range records {
			if !slices.Contains(allowed, rec.Type) {
				verrs.Add(field, fmt.Sprintf("data type %q not allowed", rec.Type))
			}
		}
	}
}
