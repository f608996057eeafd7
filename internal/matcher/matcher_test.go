package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		wantKind Kind
		wantErr  bool
	}{
		{"plain term", "dcterms:title", Glob, false},
		{"glob", "dcterms:*", Glob, false},
		{"single char glob", "bibo:?ssn", Glob, false},
		{"regex", "^bibo:(isbn|issn)$", Regex, false},
		{"invalid regex", "^bibo:(isbn", Regex, true},
		{"invalid glob", "[unclosed", Glob, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, Detect(tt.pattern))
			p, err := Compile(tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, p.Kind())
			assert.Equal(t, tt.pattern, p.String())
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		{"exact term", "dcterms:title", "dcterms:title", true},
		{"exact term mismatch", "dcterms:title", "dcterms:subject", false},
		{"prefix glob", "dcterms:*", "dcterms:subject", true},
		{"prefix glob other vocab", "dcterms:*", "bibo:isbn", false},
		{"single char", "bibo:?ssn", "bibo:issn", true},
		{"regex alternation", "^bibo:(isbn|issn)$", "bibo:issn", true},
		{"regex anchored miss", "^bibo:(isbn|issn)$", "bibo:isbn13", false},
		{"unanchored regex", "(isbn|issn)", "bibo:isbn13", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.input))
		})
	}
}

func TestSet(t *testing.T) {
	set, err := CompileSet([]string{"dcterms:title", "bibo:*"})
	require.NoError(t, err)

	assert.Len(t, set, 2)
	assert.True(t, set.Match("bibo:isbn"))
	assert.True(t, set.Match("dcterms:title"))
	assert.False(t, set.Match("dcterms:subject"))

	var empty Set
	assert.False(t, empty.Match("dcterms:title"))

	_, err = CompileSet([]string{"dcterms:*", "("})
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "glob", Glob.String())
	assert.Equal(t, "regex", Regex.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
