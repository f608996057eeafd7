package match_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/cmd/curator/cmd/match"
	"github.com/agentstation/curator/internal/cmd/application"
	"github.com/agentstation/curator/pkg/proposal"
	"github.com/agentstation/curator/pkg/value"
)

func TestMatch(t *testing.T) {
	s := application.SeedStore(t)
	require.NoError(t, s.SaveProposal(context.Background(), proposal.New(2, "").
		Add("dcterms:title", value.Literal("Cat"), value.Literal("Mouse"))))
	app := application.StoreMock(s)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"by new title", "property[0][property]=dcterms:title&property[0][text]=Dog", []int64{1}},
		{"by carried value", "property[0][property]=dcterms:rights&property[0][text]=Public+domain", []int64{1, 2}},
		{"by template", "resource_template_id[]=1", []int64{1, 2}},
		{"old title is gone", "property[0][property]=dcterms:title&property[0][text]=Cat", nil},
		{"other template", "resource_template_id[]=4", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := match.NewCommand(app)
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs([]string{tt.query})
			require.NoError(t, cmd.Execute())

			var got match.Matches
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))
			var ids []int64
			for _, m := range got {
				ids = append(ids, m.ResourceID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestMatchInvalidQuery(t *testing.T) {
	cmd := match.NewCommand(application.StoreMock(application.SeedStore(t)))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"resource_template_id[]=abc"})
	assert.Error(t, cmd.Execute())
}
