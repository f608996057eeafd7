package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/curator/internal/cmd/output"
)

type row struct {
	ResourceID int64  `json:"resource_id"`
	Status     string `json:"status"`
	hidden     string
	Skipped    string `json:"-"`
}

type tabular struct{}

func (tabular) TableData() output.Data {
	return output.Data{Headers: []string{"Term"}, Rows: [][]string{{"dcterms:title"}}}
}

func TestWrite(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, "json", row{ResourceID: 1, Status: "written"}))
		assert.JSONEq(t, `{"resource_id": 1, "status": "written"}`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, "yaml", map[string][]int{"ids": {1, 2}}))
		assert.Equal(t, "ids:\n- 1\n- 2\n", buf.String())
	})

	t.Run("table from struct slice", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, "table", []row{{ResourceID: 1, Status: "written", hidden: "x"}}))
		out := strings.ToUpper(buf.String())
		assert.Contains(t, out, "RESOURCE ID")
		assert.Contains(t, out, "WRITTEN")
		assert.NotContains(t, out, "SKIPPED")
	})

	t.Run("tabular data", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, "table", tabular{}))
		assert.Contains(t, buf.String(), "dcterms:title")
	})
}

func TestParseFormat(t *testing.T) {
	f, err := output.ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, output.FormatYAML, f)

	_, err = output.ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteSingleStructTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, "table", row{ResourceID: 12, Status: "written", Skipped: "x"}))
	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "PROPERTY")
	assert.Contains(t, out, "RESOURCE ID")
	assert.Contains(t, out, "WRITTEN")
	assert.NotContains(t, out, "SKIPPED")
}
