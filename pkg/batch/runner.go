// Package batch applies stored proposals to many resources at once.
//
// Each selected resource goes through read, load proposal, resolve policy,
// reconcile, build and write, with at most one write per resource. Items
// run on a bounded pool; a failing item never stops the batch.
package batch

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/payload"
	"github.com/agentstation/curator/pkg/policy"
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/reconciler"
	"github.com/agentstation/curator/pkg/resource"
	"github.com/agentstation/curator/pkg/template"
	"github.com/agentstation/curator/pkg/value"
	"github.com/agentstation/curator/pkg/vocab"
)

// ProposalSource returns the proposal pending for a resource.
type ProposalSource interface {
	ProposalFor(ctx context.Context, resourceID int64) (*proposal.Proposal, error)
}

// Sources are the collaborators a runner reads from and writes to.
type Sources struct {
	Resources resource.Loader
	Lister    resource.Lister
	Proposals ProposalSource
	Templates template.Lookup
	Writer    payload.Writer
}

func (s Sources) validate() error {
	switch {
	case s.Resources == nil:
		return &errors.ValidationError{Field: "resources", Message: "cannot be nil"}
	case s.Lister == nil:
		return &errors.ValidationError{Field: "lister", Message: "cannot be nil"}
	case s.Proposals == nil:
		return &errors.ValidationError{Field: "proposals", Message: "cannot be nil"}
	case s.Templates == nil:
		return &errors.ValidationError{Field: "templates", Message: "cannot be nil"}
	case s.Writer == nil:
		return &errors.ValidationError{Field: "writer", Message: "cannot be nil"}
	}
	return nil
}

// Runner processes resources. It is safe for concurrent use.
type Runner struct {
	src      Sources
	resolver *policy.Resolver
	engine   *reconciler.Engine
	builder  *payload.Builder
	vocabs   *vocab.Cache
	metrics  *Metrics
	options  *options
	logger   *zerolog.Logger
}

// New creates a runner over src.
func New(src Sources, opts ...Option) (*Runner, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	resolver, err := policy.NewResolver(src.Templates, policy.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	cache := vocab.NewCache()
	engine, err := reconciler.New(
		reconciler.WithCodec(value.NewCodec(cache)),
		reconciler.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}
	builderOpts := []payload.Option{payload.WithLogger(o.logger)}
	if o.temp != nil {
		builderOpts = append(builderOpts, payload.WithTempStore(o.temp))
	}
	builder, err := payload.NewBuilder(engine, builderOpts...)
	if err != nil {
		return nil, err
	}

	return &Runner{
		src:      src,
		resolver: resolver,
		engine:   engine,
		builder:  builder,
		vocabs:   cache,
		metrics:  NewMetrics(o.registerer),
		options:  o,
		logger:   o.logger,
	}, nil
}

// Plan is a reconciled proposal ready to write.
type Plan struct {
	Resource *resource.Resource
	Proposal *proposal.Proposal
	Policy   *policy.Policy
	Entries  []reconciler.Entry
	Stats    reconciler.Stats
	Payload  *payload.Payload
}

// Changed reports whether writing the plan would change the resource.
func (p *Plan) Changed() bool {
	return p.Payload != nil && (p.Stats.HasChanges() || len(p.Payload.Media) > 0)
}

// Prepare reconciles prop against resource id and builds its payload. A nil
// prop loads the pending proposal of the resource. Nothing is written.
//
// It returns an error matching errors.ErrNotGenerative when no generative
// template applies.
func (r *Runner) Prepare(ctx context.Context, id int64, prop *proposal.Proposal) (*Plan, error) {
	res, err := r.src.Resources.Resource(ctx, id)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		if prop, err = r.src.Proposals.ProposalFor(ctx, id); err != nil {
			return nil, err
		}
	}

	ref := prop.Template
	if ref == "" && res.TemplateID != 0 {
		ref = strconv.FormatInt(res.TemplateID, 10)
	}
	pol, err := r.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := r.prime(ctx, pol); err != nil {
		return nil, err
	}

	entries := r.engine.Reconcile(res.Values, prop.Entries(), pol)
	media := make([]payload.Media, 0, len(prop.Media))
	for _, child := range prop.Media {
		media = append(media, payload.Media{Proposal: child, Existing: res.MediaByID(child.ResourceID)})
	}

	return &Plan{
		Resource: res,
		Proposal: prop,
		Policy:   pol,
		Entries:  entries,
		Stats:    reconciler.Summarize(entries),
		Payload:  r.builder.Build(res.Values, entries, pol, media...),
	}, nil
}

// prime loads the custom vocabularies referenced by pol into the cache.
func (r *Runner) prime(ctx context.Context, pol *policy.Policy) error {
	if r.options.vocabs == nil {
		return nil
	}
	var types []string
	for _, p := range append([]*policy.Policy{pol}, pol.Children...) {
		for _, dts := range p.DataTypes {
			types = append(types, dts...)
		}
	}
	return r.vocabs.Prime(ctx, r.options.vocabs, vocab.Referenced(types...)...)
}

// Process prepares and writes the proposal pending for resource id.
func (r *Runner) Process(ctx context.Context, id int64) (ItemResult, error) {
	return r.process(ctx, id, nil)
}

// Apply prepares and writes prop against resource id.
func (r *Runner) Apply(ctx context.Context, id int64, prop *proposal.Proposal) (ItemResult, error) {
	return r.process(ctx, id, prop)
}

func (r *Runner) process(ctx context.Context, id int64, prop *proposal.Proposal) (ItemResult, error) {
	item := ItemResult{ResourceID: id, Status: StatusFailed}
	if err := ctx.Err(); err != nil {
		return item, errors.ErrCanceled
	}

	plan, err := r.Prepare(ctx, id, prop)
	if plan != nil {
		ctx = logging.WithTemplate(ctx, plan.Policy.TemplateID())
	}
	switch {
	case errors.IsNotGenerative(err):
		item.Status, item.Reason = StatusSkipped, err.Error()
		return item, nil
	case errors.IsNotFound(err) && prop == nil && r.isMissingProposal(ctx, id):
		item.Status, item.Reason = StatusSkipped, "no proposal"
		return item, nil
	case err != nil:
		return item, err
	}

	item.Stats = plan.Stats
	item.Fingerprint = plan.Payload.Fingerprint()
	if !plan.Changed() {
		logging.FromContext(ctx).Debug().Msg("Resource already reflects proposal")
		item.Status = StatusUnchanged
		return item, nil
	}

	_, err = r.src.Writer.Write(ctx, id, plan.Payload, payload.WriteOptions{ValidateOnly: r.options.validateOnly})
	switch {
	case errors.IsValidateOnly(err):
		item.Status = StatusValidated
	case err != nil:
		return item, err
	default:
		item.Status = StatusWritten
	}
	return item, nil
}

// isMissingProposal tells a missing proposal apart from a missing resource.
func (r *Runner) isMissingProposal(ctx context.Context, id int64) bool {
	_, err := r.src.Resources.Resource(ctx, id)
	return err == nil
}

// Run processes every resource sel picks. Item failures are recorded in the
// summary; Run itself fails only when selection fails or ctx is canceled.
func (r *Runner) Run(ctx context.Context, sel resource.Selector) (*Summary, error) {
	ids, err := r.src.Lister.Select(ctx, sel)
	if err != nil {
		return nil, errors.WrapResource("select", "resources", "", err)
	}

	ctx = logging.WithOperation(logging.WithLogger(ctx, r.logger), "batch")
	summary := newSummary(len(ids))
	p := pool.New().WithMaxGoroutines(r.options.concurrency)
	for i, id := range ids {
		p.Go(func() {
			itemCtx, cancel := context.WithTimeout(logging.WithResource(ctx, id), r.options.itemTimeout)
			defer cancel()
			start := time.Now()
			r.metrics.InFlight.Inc()

			item, err := r.process(itemCtx, id, nil)
			if err != nil {
				item.Status, item.Reason = StatusFailed, err.Error()
				summary.Errors.Add(strconv.FormatInt(id, 10), err)
				logging.FromContext(itemCtx).Warn().Err(err).Msg("Batch item failed")
			}

			r.metrics.InFlight.Dec()
			r.metrics.ItemDuration.Observe(time.Since(start).Seconds())
			r.metrics.ItemsTotal.WithLabelValues(string(item.Status)).Inc()
			summary.Items[i] = item
		})
	}
	p.Wait()
	summary.finalize()

	r.logger.Info().
		Int("processed", summary.Processed).
		Int("written", summary.Written).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Bool("validate_only", r.options.validateOnly).
		Msg("Batch finished")

	if err := ctx.Err(); err != nil {
		return summary, errors.ErrCanceled
	}
	return summary, nil
}

// Metrics returns the runner metrics.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}
