// Package generator drafts proposals with a language model. The model sees
// the governed properties of a template and the current values of a
// resource; its suggestions are paired with the existing values into a
// proposal that goes through normal review and reconciliation.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/policy"
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/resource"
	"github.com/agentstation/curator/pkg/template"
	"github.com/agentstation/curator/pkg/value"
)

// Generator drafts proposals through a Client.
type Generator struct {
	client     Client
	logger     *zerolog.Logger
	retries    int
	retryDelay time.Duration
}

// Option configures a Generator.
type Option func(*Generator) error

// WithLogger sets the generator logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		g.logger = logger
		return nil
	}
}

// WithRateLimitRetry sets how often a rate-limited completion is retried and
// the base delay between attempts. The delay grows linearly per attempt.
func WithRateLimitRetry(retries int, delay time.Duration) Option {
	return func(g *Generator) error {
		if retries < 0 {
			return &errors.ValidationError{Field: "retries", Value: retries, Message: "cannot be negative"}
		}
		if delay < 0 {
			return &errors.ValidationError{Field: "delay", Value: delay, Message: "cannot be negative"}
		}
		g.retries, g.retryDelay = retries, delay
		return nil
	}
}

// New creates a Generator.
func New(client Client, opts ...Option) (*Generator, error) {
	if client == nil {
		return nil, &errors.ValidationError{Field: "client", Message: "cannot be nil"}
	}
	g := &Generator{
		client:     client,
		logger:     logging.Default(),
		retries:    constants.MaxRateLimitRetries,
		retryDelay: constants.RateLimitRetryDelay,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Generate drafts a proposal for resource id under tpl.
func (g *Generator) Generate(ctx context.Context, id int64, tpl *template.Template, existing []resource.Value) (*proposal.Proposal, error) {
	pol, err := policy.FromTemplate(tpl)
	if err != nil {
		return nil, err
	}
	if !pol.Generative() {
		ref := ""
		if tpl != nil {
			ref = tpl.Label
		}
		return nil, errors.NewPolicyError(ref, "no governed properties")
	}

	reply, err := g.complete(ctx, BuildPrompt(pol, existing))
	if err != nil {
		return nil, err
	}
	suggested, err := parseReply(reply)
	if err != nil {
		return nil, err
	}

	prop := proposal.New(id, tpl.Ref())
	current := resource.ByTerm(existing)
	for term := range suggested {
		if !pol.Governs(term) {
			g.logger.Debug().Str("term", term).Msg("Ignoring suggestion for ungoverned term")
		}
	}
	for _, term := range pol.Terms {
		values, ok := suggested[term]
		if !ok {
			continue
		}
		for _, pair := range Pair(current[term], values, pol.MaxValues(term)) {
			prop.Add(term, pair.Original, pair.Proposed)
		}
	}

	g.logger.Debug().
		Int64("resource_id", id).
		Int("terms", len(prop.Terms)).
		Msg("Generated proposal")
	return prop, nil
}

// complete calls the client, retrying while it reports a rate limit.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	for attempt := 0; ; attempt++ {
		reply, err := g.client.Complete(ctx, prompt)
		if err == nil || !errors.IsRateLimited(err) || attempt >= g.retries {
			return reply, err
		}

		wait := g.retryDelay * time.Duration(attempt+1)
		g.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("Rate limited, retrying completion")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", errors.WrapResource("generate", "proposal", "", ctx.Err())
		case <-timer.C:
		}
	}
}

// Pair matches suggested values against the existing values of one term.
// A suggestion equal to an existing value keeps it; on a single-valued term
// (maxValues 1) a different suggestion replaces the existing value;
// anything else is appended. Duplicate suggestions are ignored.
func Pair(existing []resource.Value, suggested []*value.Value, maxValues int) []proposal.Pair {
	used := make([]bool, len(existing))
	var pairs []proposal.Pair
	var seen []*value.Value

	for _, v := range suggested {
		if value.IsEmpty(v) || containsValue(seen, v) {
			continue
		}
		seen = append(seen, v)

		matched := -1
		for i, ev := range existing {
			if !used[i] && value.Equal(ev.Value, v) {
				matched = i
				break
			}
		}
		if matched >= 0 {
			used[matched] = true
			pairs = append(pairs, proposal.Pair{Original: existing[matched].Value, Proposed: existing[matched].Value})
			continue
		}

		if maxValues == 1 {
			replaced := false
			for i, ev := range existing {
				if !used[i] {
					used[i] = true
					pairs = append(pairs, proposal.Pair{Original: ev.Value, Proposed: v})
					replaced = true
					break
				}
			}
			if replaced {
				continue
			}
		}
		pairs = append(pairs, proposal.Pair{Proposed: v})
	}
	return pairs
}

func containsValue(values []*value.Value, v *value.Value) bool {
	for _, other := range values {
		if value.Equal(other, v) {
			return true
		}
	}
	return false
}

// parseReply decodes the term -> values object of a model reply. A term may
// map to one value or a list; values are strings or boundary maps.
func parseReply(reply string) (map[string][]*value.Value, error) {
	data := ExtractJSON(reply)
	if data == nil {
		return nil, errors.NewParseError("json", "", "no JSON object in model reply", nil)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}

	out := make(map[string][]*value.Value, len(raw))
	for term, msg := range raw {
		var items []json.RawMessage
		if bytes.HasPrefix(bytes.TrimSpace(msg), []byte("[")) {
			if err := json.Unmarshal(msg, &items); err != nil {
				return nil, errors.WrapParse("json", term, err)
			}
		} else {
			items = []json.RawMessage{msg}
		}
		for _, item := range items {
			v, err := decodeValue(item)
			if err != nil {
				return nil, errors.WrapParse("json", term, err)
			}
			if v != nil {
				out[term] = append(out[term], v)
			}
		}
	}
	return out, nil
}

func decodeValue(item json.RawMessage) (*value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case string:
		return value.Literal(t), nil
	case json.Number:
		return value.Literal(t.String()), nil
	case map[string]any:
		return value.Decode(t), nil
	default:
		return nil, nil
	}
}
