package payload_test

import (
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/payload"
	"github.com/agentstation/curator/pkg/policy"
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/reconciler"
	"github.com/agentstation/curator/pkg/resource"
	"github.com/agentstation/curator/pkg/template"
	"github.com/agentstation/curator/pkg/value"
)

func itemTemplate() *template.Template {
	return &template.Template{
		ID:      1,
		Label:   "Item",
		ClassID: 7,
		Properties: []template.Property{
			{Term: "dcterms:title"},
			{Term: "dcterms:subject"},
			{Term: "dcterms:creator", DataTypes: []string{"resource"}},
		},
		Settings: template.Settings{MediaTemplates: []string{"Scan"}},
	}
}

func scanTemplate() *template.Template {
	return &template.Template{
		ID:         2,
		Label:      "Scan",
		Properties: []template.Property{{Term: "dcterms:description"}},
	}
}

type fixture struct {
	engine  *reconciler.Engine
	builder *payload.Builder
	pol     *policy.Policy
	fs      afero.Fs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine, err := reconciler.New()
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/uploads/abc123", []byte("scan"), 0o644))

	builder, err := payload.NewBuilder(engine, payload.WithTempStore(payload.NewFSTempStore(fs, "/tmp/uploads")))
	require.NoError(t, err)

	pol, err := policy.FromTemplate(itemTemplate(), scanTemplate())
	require.NoError(t, err)
	return &fixture{engine: engine, builder: builder, pol: pol, fs: fs}
}

func (f *fixture) build(existing []resource.Value, prop *proposal.Proposal, media ...payload.Media) *payload.Payload {
	entries := f.engine.Reconcile(existing, prop.Entries(), f.pol)
	return f.builder.Build(existing, entries, f.pol, media...)
}

func texts(records []payload.Record) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Texts()...)
	}
	return out
}

func TestBuild(t *testing.T) {
	f := newFixture(t)

	t.Run("update overwrites in place", func(t *testing.T) {
		existing := resource.NewBuilder().
			Literal("dcterms:title", "Cat").
			Literal("dcterms:title", "Felis").
			Values()
		prop := proposal.New(1, "Item").Add("dcterms:title", value.Literal("Cat"), value.Literal("Dog"))

		p := f.build(existing, prop)
		require.NotNil(t, p)
		assert.Equal(t, int64(1), p.TemplateID)
		assert.Equal(t, int64(7), p.ClassID)
		assert.Equal(t, []string{"Dog", "Felis"}, texts(p.Values("dcterms:title")))
	})

	t.Run("remove deletes the matched value", func(t *testing.T) {
		existing := resource.NewBuilder().
			Literal("dcterms:subject", "cats").
			Literal("dcterms:subject", "dogs").
			Values()
		prop := proposal.New(1, "Item").Add("dcterms:subject", value.Literal("dogs"), nil)

		p := f.build(existing, prop)
		assert.Equal(t, []string{"cats"}, texts(p.Values("dcterms:subject")))
	})

	t.Run("append adds after existing values", func(t *testing.T) {
		existing := resource.NewBuilder().Literal("dcterms:subject", "cats").Values()
		prop := proposal.New(1, "Item").
			Add("dcterms:subject", nil, value.Literal("dogs")).
			Add("dcterms:subject", nil, value.Literal("dogs"))

		p := f.build(existing, prop)
		assert.Equal(t, []string{"cats", "dogs"}, texts(p.Values("dcterms:subject")))
	})

	t.Run("removing the last value drops the term", func(t *testing.T) {
		existing := resource.NewBuilder().
			Literal("dcterms:title", "Cat").
			Literal("dcterms:subject", "cats").
			Values()
		prop := proposal.New(1, "Item").Add("dcterms:subject", value.Literal("cats"), nil)

		p := f.build(existing, prop)
		assert.Nil(t, p.Values("dcterms:subject"))
		for _, term := range p.Terms {
			assert.NotEqual(t, "dcterms:subject", term.Term)
		}
	})

	t.Run("ungoverned values are carried over", func(t *testing.T) {
		existing := resource.NewBuilder().
			Literal("bibo:note", "internal").
			Literal("dcterms:title", "Cat").
			Values()
		prop := proposal.New(1, "Item").Add("bibo:note", value.Literal("internal"), value.Literal("public"))

		p := f.build(existing, prop)
		assert.Equal(t, []string{"internal"}, texts(p.Values("bibo:note")))
		require.Len(t, p.Terms, 2)
		assert.Equal(t, "dcterms:title", p.Terms[0].Term)
		assert.Equal(t, "bibo:note", p.Terms[1].Term)
	})

	t.Run("resource values keep their type", func(t *testing.T) {
		existing := resource.NewBuilder().Resource("dcterms:creator", 42).Values()
		prop := proposal.New(1, "Item").Add("dcterms:creator", value.Resource(42), value.Resource(43))

		p := f.build(existing, prop)
		records := p.Values("dcterms:creator")
		require.Len(t, records, 1)
		assert.Equal(t, payload.Record{Type: "resource", ResourceID: 43}, records[0])
	})

	t.Run("non-generative policy builds nothing", func(t *testing.T) {
		assert.Nil(t, f.builder.Build(nil, nil, &policy.Policy{}))
		assert.Nil(t, f.builder.Build(nil, nil, nil))
	})
}

func TestBuildIsIdempotent(t *testing.T) {
	f := newFixture(t)

	existing := resource.NewBuilder().
		Literal("dcterms:title", "Cat").
		Literal("dcterms:subject", "cats").
		Values()
	prop := proposal.New(1, "Item").
		Add("dcterms:title", value.Literal("Cat"), value.Literal("Dog")).
		Add("dcterms:subject", nil, value.Literal("dogs"))

	first := f.build(existing, prop)

	// Apply the first payload, then rebuild from the new state.
	var applied []resource.Value
	for _, term := range first.Terms {
		for _, r := range term.Values {
			applied = append(applied, resource.Value{Term: term.Term, Value: r.AsValue(), DataType: r.Type})
		}
	}
	applied = resource.Normalize(applied)

	second := f.build(applied, prop)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())

	entries := f.engine.Reconcile(applied, prop.Entries(), f.pol)
	for _, e := range entries {
		assert.False(t, e.Pending(), "entry %s/%d still pending", e.Term, e.Key)
	}
}

func TestBuildKeepsPositions(t *testing.T) {
	f := newFixture(t)
	existing := resource.NewBuilder().
		Literal("dcterms:subject", "a").
		Literal("dcterms:subject", "b").
		Literal("dcterms:subject", "c").
		Values()
	prop := proposal.New(1, "Item").Add("dcterms:subject", value.Literal("b"), value.Literal("b"))

	p := f.build(existing, prop)
	assert.Equal(t, []string{"a", "b", "c"}, texts(p.Values("dcterms:subject")))
}

func TestBuildKeepRoundTrip(t *testing.T) {
	f := newFixture(t)

	t.Run("keep holds its position against a later remove", func(t *testing.T) {
		existing := resource.NewBuilder().Literal("dcterms:title", "Cat").Values()
		prop := proposal.New(1, "Item").
			Add("dcterms:title", value.Literal("Cat"), value.Literal("Cat")).
			Add("dcterms:title", value.Literal("Cat"), nil)

		entries := f.engine.Reconcile(existing, prop.Entries(), f.pol)
		require.Len(t, entries, 2)
		assert.Equal(t, reconciler.ProcessKeep, entries[0].Process)
		assert.Equal(t, reconciler.ProcessRemove, entries[1].Process)

		p := f.builder.Build(existing, entries, f.pol)
		assert.Equal(t, []string{"Cat"}, texts(p.Values("dcterms:title")))
	})

	t.Run("keep holds its position against an update", func(t *testing.T) {
		existing := resource.NewBuilder().
			Literal("dcterms:title", "Cat").
			Literal("dcterms:title", "Felis").
			Values()
		prop := proposal.New(1, "Item").
			Add("dcterms:title", value.Literal("Cat"), value.Literal("Dog")).
			Add("dcterms:title", value.Literal("Cat"), value.Literal("Cat"))

		p := f.build(existing, prop)
		assert.Equal(t, []string{"Cat", "Felis"}, texts(p.Values("dcterms:title")))
	})

	proposals := map[string]*proposal.Proposal{
		"mixed": proposal.New(1, "Item").
			Add("dcterms:title", value.Literal("Cat"), value.Literal("Cat")).
			Add("dcterms:title", value.Literal("Felis"), value.Literal("Dog")).
			Add("dcterms:subject", value.Literal("cats"), nil),
		"conflicting": proposal.New(1, "Item").
			Add("dcterms:subject", value.Literal("cats"), nil).
			Add("dcterms:subject", value.Literal("cats"), value.Literal("cats")).
			Add("dcterms:title", value.Literal("Felis"), value.Literal("Cat")),
		"drift": proposal.New(1, "Item").
			Add("dcterms:title", value.Literal("Lion"), value.Literal("Tiger")).
			Add("dcterms:subject", nil, value.Literal("cats")),
	}
	existing := resource.NewBuilder().
		Literal("dcterms:title", "Cat").
		Literal("dcterms:title", "Felis").
		Literal("dcterms:subject", "cats").
		Values()

	for name, prop := range proposals {
		t.Run(name, func(t *testing.T) {
			entries := f.engine.Reconcile(existing, prop.Entries(), f.pol)
			p := f.builder.Build(existing, entries, f.pol)
			for _, e := range entries {
				if e.Process != reconciler.ProcessKeep || e.Matched == nil {
					continue
				}
				got := p.Values(e.Term)
				require.Greater(t, len(got), e.Matched.Position, "entry %s/%d", e.Term, e.Key)
				assert.Equal(t, payload.RecordFor(e.Matched.Value, e.Matched.DataType), got[e.Matched.Position],
					"entry %s/%d", e.Term, e.Key)
			}
		})
	}
}

func TestBuildUnnumberedPositions(t *testing.T) {
	f := newFixture(t)
	existing := []resource.Value{
		{Term: "dcterms:subject", Value: value.Literal("Cat"), DataType: "literal"},
		{Term: "dcterms:subject", Value: value.Literal("Dog"), DataType: "literal"},
	}

	t.Run("remove", func(t *testing.T) {
		prop := proposal.New(1, "Item").Add("dcterms:subject", value.Literal("Dog"), nil)
		p := f.build(existing, prop)
		assert.Equal(t, []string{"Cat"}, texts(p.Values("dcterms:subject")))
	})

	t.Run("update", func(t *testing.T) {
		prop := proposal.New(1, "Item").Add("dcterms:subject", value.Literal("Dog"), value.Literal("Wolf"))
		p := f.build(existing, prop)
		assert.Equal(t, []string{"Cat", "Wolf"}, texts(p.Values("dcterms:subject")))
	})
}

func TestBuildMedia(t *testing.T) {
	f := newFixture(t)
	existing := resource.NewBuilder().Literal("dcterms:title", "Cat").Values()
	parent := proposal.New(1, "Item")

	t.Run("new media with a stored file", func(t *testing.T) {
		child := proposal.New(0, "Scan").Add("dcterms:description", nil, value.Literal("front"))
		child.File = &proposal.File{Name: "front.jpg", Store: "abc123"}

		p := f.build(existing, parent, payload.Media{Proposal: child})
		require.Len(t, p.Media, 1)
		m := p.Media[0]
		assert.Equal(t, int64(2), m.TemplateID)
		assert.Zero(t, m.ID)
		require.NotNil(t, m.File)
		assert.Equal(t, "abc123", m.File.Store)
		assert.Equal(t, []string{"front"}, texts(m.Values("dcterms:description")))
	})

	t.Run("expired file is dropped", func(t *testing.T) {
		child := proposal.New(0, "Scan").Add("dcterms:description", nil, value.Literal("back"))
		child.File = &proposal.File{Name: "back.jpg", Store: "gone"}

		p := f.build(existing, parent, payload.Media{Proposal: child})
		require.Len(t, p.Media, 1)
		assert.Nil(t, p.Media[0].File)
	})

	t.Run("existing media keeps its id and file", func(t *testing.T) {
		child := proposal.New(0, "Scan").
			Add("dcterms:description", value.Literal("front"), value.Literal("cover"))
		child.File = &proposal.File{Name: "front.jpg", Store: "abc123"}
		media := &resource.Resource{
			ID:     9,
			Values: resource.NewBuilder().Literal("dcterms:description", "front").Values(),
			File:   &resource.File{Name: "front.jpg", Path: "files/front.jpg"},
		}

		p := f.build(existing, parent, payload.Media{Proposal: child, Existing: media})
		require.Len(t, p.Media, 1)
		assert.Equal(t, int64(9), p.Media[0].ID)
		assert.Nil(t, p.Media[0].File)
		assert.Equal(t, []string{"cover"}, texts(p.Media[0].Values("dcterms:description")))
	})

	t.Run("unknown media template is dropped", func(t *testing.T) {
		child := proposal.New(0, "Photo").Add("dcterms:description", nil, value.Literal("x"))
		p := f.build(existing, parent, payload.Media{Proposal: child})
		assert.Empty(t, p.Media)
	})

	t.Run("empty media is dropped", func(t *testing.T) {
		child := proposal.New(0, "Scan").Add("dcterms:rights", nil, value.Literal("x"))
		p := f.build(existing, parent, payload.Media{Proposal: child})
		assert.Empty(t, p.Media)
	})
}

func TestFSTempStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/uploads/abc", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/secret", []byte("x"), 0o644))
	store := payload.NewFSTempStore(fs, "/uploads")

	assert.True(t, store.Exists("abc"))
	assert.False(t, store.Exists("missing"))
	assert.False(t, store.Exists(""))
	assert.False(t, store.Exists("/"))
	assert.False(t, store.Exists("../secret"))
	assert.False(t, store.Exists(`..\secret`))
}

func TestRecordJSON(t *testing.T) {
	p := &payload.Payload{
		TemplateID: 1,
		Terms: []payload.Term{{
			Term: "dcterms:title",
			Values: []payload.Record{
				payload.RecordFor(value.Literal("Cat").WithLanguage("en"), "literal"),
				payload.RecordFor(value.URI("http://example.org/c", "Cat"), "uri"),
			},
		}},
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"o:resource_template": 1,
		"terms": [{"term": "dcterms:title", "values": [
			{"type": "literal", "@value": "Cat", "@language": "en"},
			{"type": "uri", "@id": "http://example.org/c", "o:label": "Cat"}
		]}]
	}`, string(data))
	assert.Equal(t, p.Fingerprint(), p.Fingerprint())
	assert.False(t, p.Empty())
	assert.True(t, (&payload.Payload{}).Empty())
}

func TestNewBuilderValidation(t *testing.T) {
	_, err := payload.NewBuilder(nil)
	assert.Error(t, err)

	engine, err := reconciler.New()
	require.NoError(t, err)
	_, err = payload.NewBuilder(engine, payload.WithTempStore(nil))
	assert.Error(t, err)
	_, err = payload.NewBuilder(engine, payload.WithLogger(nil))
	assert.Error(t, err)
}
