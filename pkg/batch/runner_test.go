package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/batch"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/payload"
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/resource"
	"github.com/agentstation/curator/pkg/store"
	"github.com/agentstation/curator/pkg/template"
	"github.com/agentstation/curator/pkg/value"
)

// failingWriter rejects writes to one resource.
type failingWriter struct {
	payload.Writer
	fail int64
}

func (w failingWriter) Write(ctx context.Context, id int64, p *payload.Payload, opts payload.WriteOptions) (int64, error) {
	if id == w.fail {
		verrs := errors.NewValidationErrors()
		verrs.Add("dcterms:title", "rejected")
		return 0, verrs
	}
	return w.Writer.Write(ctx, id, p, opts)
}

// blockingWriter waits until the write is canceled.
type blockingWriter struct {
	payload.Writer
}

func (blockingWriter) Write(ctx context.Context, _ int64, _ *payload.Payload, _ payload.WriteOptions) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)

	require.NoError(t, s.SaveTemplate(ctx, &template.Template{
		ID:         1,
		Label:      "Book",
		Properties: []template.Property{{Term: "dcterms:title"}, {Term: "dcterms:subject", DataTypes: []string{"customvocab:5"}}},
	}))
	require.NoError(t, s.SaveTemplate(ctx, &template.Template{ID: 2, Label: "Empty"}))
	require.NoError(t, s.SaveVocab(ctx, "5", value.ShapeURI, map[string]string{"http://example.org/cats": "Cats"}))

	for id := int64(1); id <= 6; id++ {
		tpl := int64(1)
		if id == 5 {
			tpl = 2
		}
		require.NoError(t, s.SaveResource(ctx, &resource.Resource{
			ID:         id,
			TemplateID: tpl,
			Values: resource.NewBuilder().
				Literal("dcterms:title", "Cat").
				Add("dcterms:subject", "customvocab:5", value.URI("http://example.org/cats", "old label")).
				Values(),
		}))
	}

	save := func(p *proposal.Proposal) {
		require.NoError(t, s.SaveProposal(ctx, p))
	}
	// 1-3 and 6 change their title, 4 is already up to date, 5 has a
	// non-generative template.
	for _, id := range []int64{1, 2, 3, 6} {
		save(proposal.New(id, "").Add("dcterms:title", value.Literal("Cat"), value.Literal("Dog")))
	}
	save(proposal.New(4, "").Add("dcterms:subject",
		value.URI("http://example.org/cats", "old label"),
		value.URI("http://example.org/cats", "Cats")))
	save(proposal.New(5, "").Add("dcterms:title", value.Literal("Cat"), value.Literal("Dog")))
	return s
}

func sources(s *store.Store) batch.Sources {
	return batch.Sources{Resources: s, Lister: s, Proposals: s, Templates: s, Writer: s}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	src := sources(s)
	src.Writer = failingWriter{Writer: s, fail: 3}
	reg := prometheus.NewRegistry()
	logger := logging.NewTestLogger(t)

	runner, err := batch.New(src,
		batch.WithConcurrency(3),
		batch.WithRegisterer(reg),
		batch.WithVocabularies(s),
		batch.WithLogger(logger.Logger),
	)
	require.NoError(t, err)

	summary, err := runner.Run(ctx, resource.Selector{TemplateIDs: []int64{1, 2}})
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Processed)
	assert.Equal(t, 3, summary.Written)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.HasFailures())

	statuses := make(map[int64]batch.Status)
	for _, item := range summary.Items {
		statuses[item.ResourceID] = item.Status
	}
	assert.Equal(t, map[int64]batch.Status{
		1: batch.StatusWritten,
		2: batch.StatusWritten,
		3: batch.StatusFailed,
		4: batch.StatusUnchanged,
		5: batch.StatusSkipped,
		6: batch.StatusWritten,
	}, statuses)

	assert.Equal(t, []string{"3"}, summary.Errors.Keys())
	assert.Equal(t, []string{"rejected"}, summary.Errors.Validation("3").Messages("dcterms:title"))

	values, err := s.Values(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dog", values[0].Value.Text)
	values, err = s.Values(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cat", values[0].Value.Text)

	assert.Equal(t, float64(3), testutil.ToFloat64(runner.Metrics().ItemsTotal.WithLabelValues("written")))
	assert.Equal(t, float64(1), testutil.ToFloat64(runner.Metrics().ItemsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(runner.Metrics().ItemDuration))
	assert.True(t, logger.Contains("Batch item failed"))
	assert.True(t, logger.Contains("Batch finished"))

	t.Run("second run is a no-op", func(t *testing.T) {
		runner, err := batch.New(sources(s), batch.WithVocabularies(s))
		require.NoError(t, err)
		summary, err := runner.Run(ctx, resource.Selector{IDs: []int64{1, 2, 6}})
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Written)
		assert.Equal(t, 3, summary.Skipped)
	})
}

func TestRunValidateOnly(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	runner, err := batch.New(sources(s), batch.WithValidateOnly(true))
	require.NoError(t, err)

	summary, err := runner.Run(ctx, resource.Selector{IDs: []int64{1}})
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, batch.StatusValidated, summary.Items[0].Status)
	assert.Equal(t, 1, summary.Written)

	values, err := s.Values(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cat", values[0].Value.Text)
}

func TestPrepare(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	runner, err := batch.New(sources(s))
	require.NoError(t, err)

	plan, err := runner.Prepare(ctx, 1, nil)
	require.NoError(t, err)
	assert.True(t, plan.Changed())
	assert.Equal(t, 1, plan.Stats.Update)
	assert.Equal(t, "Dog", plan.Payload.Values("dcterms:title")[0].Value)

	override := proposal.New(1, "Book").Add("dcterms:title", value.Literal("Cat"), value.Literal("Cat"))
	plan, err = runner.Prepare(ctx, 1, override)
	require.NoError(t, err)
	assert.False(t, plan.Changed())

	_, err = runner.Prepare(ctx, 5, nil)
	assert.True(t, errors.IsNotGenerative(err))

	_, err = runner.Prepare(ctx, 99, nil)
	assert.True(t, errors.IsNotFound(err))
}

func TestProcessWithoutProposal(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	require.NoError(t, s.SaveResource(ctx, &resource.Resource{ID: 7, TemplateID: 1}))
	runner, err := batch.New(sources(s))
	require.NoError(t, err)

	item, err := runner.Process(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, batch.StatusSkipped, item.Status)

	_, err = runner.Process(ctx, 99)
	assert.True(t, errors.IsNotFound(err))
}

func TestRunCanceled(t *testing.T) {
	s := seedStore(t)
	runner, err := batch.New(sources(s))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Run(ctx, resource.Selector{})
	assert.Error(t, err)
}

func TestRunItemTimeout(t *testing.T) {
	s := seedStore(t)
	src := sources(s)
	src.Writer = blockingWriter{Writer: s}

	runner, err := batch.New(src, batch.WithVocabularies(s), batch.WithItemTimeout(20*time.Millisecond))
	require.NoError(t, err)

	summary, err := runner.Run(context.Background(), resource.Selector{IDs: []int64{1}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors.Errors("1"), 1)
	assert.ErrorIs(t, summary.Errors.Errors("1")[0], context.DeadlineExceeded)
}

func TestNewValidation(t *testing.T) {
	s := seedStore(t)

	_, err := batch.New(batch.Sources{})
	assert.True(t, errors.IsValidationError(err))

	_, err = batch.New(sources(s), batch.WithConcurrency(0))
	assert.True(t, errors.IsValidationError(err))
	_, err = batch.New(sources(s), batch.WithRegisterer(nil))
	assert.Error(t, err)
	_, err = batch.New(sources(s), batch.WithVocabularies(nil))
	assert.Error(t, err)
	_, err = batch.New(sources(s), batch.WithItemTimeout(0))
	assert.True(t, errors.IsValidationError(err))
}
