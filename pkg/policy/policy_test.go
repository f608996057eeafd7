package policy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/policy"
	"github.com/agentstation/curator/pkg/template"
)

func templates() *template.Memory {
	return template.NewMemory(
		&template.Template{
			ID:      1,
			Label:   "Book",
			ClassID: 40,
			Properties: []template.Property{
				{Term: "dcterms:title", Language: "en"},
				{Term: "dcterms:subject", DataTypes: []string{"customvocab:5"}},
				{Term: "bibo:isbn", DataTypes: []string{"literal"}},
			},
			Settings: template.Settings{MediaTemplates: []string{"Image", "Book", "404"}},
		},
		&template.Template{
			ID:    2,
			Label: "Image",
			Properties: []template.Property{
				{Term: "dcterms:description"},
			},
			Settings: template.Settings{MediaTemplates: []string{"Book"}},
		},
		&template.Template{ID: 3, Label: "Empty"},
	)
}

func TestFromTemplateDefaults(t *testing.T) {
	tpl, err := templates().Template(context.Background(), "Book")
	require.NoError(t, err)

	p, err := policy.FromTemplate(tpl)
	require.NoError(t, err)

	assert.True(t, p.Generative())
	assert.Equal(t, []string{"dcterms:title", "dcterms:subject", "bibo:isbn"}, p.Terms)
	assert.Equal(t, []string{"literal", "resource", "uri"}, p.AllowedTypes("dcterms:title"))
	assert.Equal(t, []string{"customvocab:5"}, p.AllowedTypes("dcterms:subject"))
	for _, term := range p.Terms {
		assert.True(t, p.IsEditable(term), term)
		assert.True(t, p.IsFillable(term), term)
	}
	assert.Equal(t, "en", p.Language("dcterms:title"))
	assert.Equal(t, int64(1), p.TemplateID())
	assert.Equal(t, int64(40), p.ClassID())
	assert.False(t, p.Governs("dcterms:creator"))
}

func TestPermissionModes(t *testing.T) {
	base := func(editable, fillable template.Permission) *template.Template {
		return &template.Template{
			ID: 9,
			Properties: []template.Property{
				{Term: "dcterms:title"}, {Term: "dcterms:subject"}, {Term: "bibo:isbn"},
			},
			Settings: template.Settings{Editable: editable, Fillable: fillable},
		}
	}

	t.Run("whitelist and blacklist", func(t *testing.T) {
		p, err := policy.FromTemplate(base(
			template.Permission{Mode: template.ModeWhitelist, Terms: []string{"dcterms:*"}},
			template.Permission{Mode: template.ModeBlacklist, Terms: []string{"^bibo:(isbn|issn)$"}},
		))
		require.NoError(t, err)
		assert.True(t, p.IsEditable("dcterms:title"))
		assert.False(t, p.IsEditable("bibo:isbn"))
		assert.True(t, p.IsFillable("dcterms:subject"))
		assert.False(t, p.IsFillable("bibo:isbn"))
	})

	t.Run("none", func(t *testing.T) {
		p, err := policy.FromTemplate(base(
			template.Permission{Mode: template.ModeNone},
			template.Permission{Mode: template.ModeAll},
		))
		require.NoError(t, err)
		assert.True(t, p.Generative(), "terms stay governed without permissions")
		assert.False(t, p.IsEditable("dcterms:title"))
		assert.True(t, p.IsFillable("dcterms:title"))
	})

	t.Run("bad mode", func(t *testing.T) {
		_, err := policy.FromTemplate(base(template.Permission{Mode: "maybe"}, template.Permission{}))
		assert.Error(t, err)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := policy.FromTemplate(base(template.Permission{Mode: template.ModeWhitelist, Terms: []string{"("}}, template.Permission{}))
		assert.Error(t, err)
	})
}

func TestResolverChildren(t *testing.T) {
	tl := logging.NewTestLogger(t)
	r, err := policy.NewResolver(templates(), policy.WithLogger(tl.Logger))
	require.NoError(t, err)

	p, err := r.Resolve(context.Background(), "1")
	require.NoError(t, err)

	require.Len(t, p.Children, 1, "self reference and missing template are skipped")
	child := p.Children[0]
	assert.Equal(t, int64(2), child.TemplateID())
	assert.Empty(t, child.Children, "children are resolved one level deep")

	assert.Same(t, child, p.Child(""))
	assert.Same(t, child, p.Child("Image"))
	assert.Same(t, child, p.Child("2"))
	assert.Nil(t, p.Child("Book"))

	assert.True(t, tl.Contains("Skipping media template"))
}

func TestResolverDeterminism(t *testing.T) {
	ctx := context.Background()
	r1, err := policy.NewResolver(templates())
	require.NoError(t, err)
	r2, err := policy.NewResolver(templates())
	require.NoError(t, err)

	a, err := r1.Resolve(ctx, "Book")
	require.NoError(t, err)
	b, err := r1.Resolve(ctx, "1")
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := r2.Resolve(ctx, "Book")
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestResolverNonGenerative(t *testing.T) {
	ctx := context.Background()
	r, err := policy.NewResolver(templates())
	require.NoError(t, err)

	for _, ref := range []string{"", "404", "Empty"} {
		t.Run(ref, func(t *testing.T) {
			p, err := r.Resolve(ctx, ref)
			require.Error(t, err)
			assert.True(t, errors.IsNotGenerative(err))
			require.NotNil(t, p)
			assert.False(t, p.Generative())
		})
	}

	var nilPolicy *policy.Policy
	assert.False(t, nilPolicy.Generative())
	assert.Nil(t, nilPolicy.Child(""))
}

func TestNewResolverValidation(t *testing.T) {
	_, err := policy.NewResolver(nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = policy.NewResolver(templates(), policy.WithLogger(nil))
	assert.True(t, errors.IsValidationError(err))
}
