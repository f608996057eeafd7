package build_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/cmd/curator/cmd/build"
	"github.com/agentstation/curator/internal/cmd/application"
)

func TestBuild(t *testing.T) {
	app := application.StoreMock(application.SeedStore(t))
	app.OutputFormatFunc = func() string { return "" }

	execute := func() build.Result {
		cmd := build.NewCommand(app)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"1"})
		require.NoError(t, cmd.Execute())

		var result build.Result
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		return result
	}

	result := execute()
	assert.True(t, result.Changed)
	assert.Len(t, result.Fingerprint, 64)
	require.NotNil(t, result.Payload)
	assert.Equal(t, int64(1), result.Payload.TemplateID)

	title := result.Payload.Values("dcterms:title")
	require.Len(t, title, 1)
	assert.Equal(t, "Dog", title[0].Value)
	rights := result.Payload.Values("dcterms:rights")
	require.Len(t, rights, 1)
	assert.Equal(t, "Public domain", rights[0].Value)

	// Nothing was written, so building again is identical
	assert.Equal(t, result.Fingerprint, execute().Fingerprint)
}
