package policy

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/template"
)

// Resolver resolves and memoizes policies through a template lookup. A
// resolver returns the same *Policy for the same template every time.
type Resolver struct {
	lookup template.Lookup
	logger *zerolog.Logger

	mu    sync.Mutex
	cache map[int64]*Policy
}

// NewResolver creates a resolver over lookup.
func NewResolver(lookup template.Lookup, opts ...Option) (*Resolver, error) {
	if lookup == nil {
		return nil, &errors.ValidationError{Field: "lookup", Message: "cannot be nil"}
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		lookup: lookup,
		logger: options.logger,
		cache:  make(map[int64]*Policy),
	}, nil
}

// Resolve returns the policy of the template ref names. When there is no
// template, or the template governs nothing, it returns the non-generative
// policy together with a *errors.PolicyError.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Policy, error) {
	if ref == "" {
		return &Policy{}, errors.NewPolicyError("", "no template")
	}

	tpl, err := r.lookup.Template(ctx, ref)
	if errors.IsNotFound(err) {
		return &Policy{}, errors.NewPolicyError(ref, "template not found")
	}
	if err != nil {
		return nil, errors.WrapResource("resolve", "template", ref, err)
	}

	r.mu.Lock()
	cached, ok := r.cache[tpl.ID]
	r.mu.Unlock()
	if ok {
		return cached, notGenerative(cached)
	}

	children := r.children(ctx, tpl)
	p, err := FromTemplate(tpl, children...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.cache[tpl.ID]; ok {
		p = cached
	} else {
		r.cache[tpl.ID] = p
	}
	r.mu.Unlock()

	r.logger.Debug().
		Int64("template_id", tpl.ID).
		Int("governed_terms", len(p.Terms)).
		Int("children", len(p.Children)).
		Msg("Resolved policy")

	return p, notGenerative(p)
}

func (r *Resolver) children(ctx context.Context, tpl *template.Template) []*template.Template {
	var out []*template.Template
	for _, ref := range tpl.Settings.MediaTemplates {
		child, err := r.lookup.Template(ctx, ref)
		if err != nil {
			r.logger.Warn().Err(err).
				Int64("template_id", tpl.ID).
				Str("media_template", ref).
				Msg("Skipping media template")
			continue
		}
		out = append(out, child)
	}
	return out
}

func notGenerative(p *Policy) error {
	if p.Generative() {
		return nil
	}
	return errors.NewPolicyError(strconv.FormatInt(p.TemplateID(), 10), "no governed properties")
}

type options struct {
	logger *zerolog.Logger
}

// Option configures a Resolver.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	o := &options{logger: logging.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithLogger sets the resolver logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}
