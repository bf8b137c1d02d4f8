package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BasicKeyValue(t *testing.T) {
	vars, err := Parse([]byte("KEY1=value1\nKEY2=value2\n"))
	require.NoError(t, err)
	assert.Equal(t, "value1", vars["KEY1"])
	assert.Equal(t, "value2", vars["KEY2"])
}

func TestParse_CommentsAndEmptyLines(t *testing.T) {
	vars, err := Parse([]byte("\n# comment\nKEY1=value1\n\n# another\nKEY2=value2\n"))
	require.NoError(t, err)
	assert.Len(t, vars, 2)
}

func TestParse_QuotedAndExport(t *testing.T) {
	vars, err := Parse([]byte("DOUBLE=\"hello world\"\nSINGLE='hello world'\nexport KEY=v\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", vars["DOUBLE"])
	assert.Equal(t, "hello world", vars["SINGLE"])
	assert.Equal(t, "v", vars["KEY"])
}

func TestParse_ValueWithEquals(t *testing.T) {
	vars, err := Parse([]byte("ENDPOINT=https://db.example:443/?key=value"))
	require.NoError(t, err)
	assert.Equal(t, "https://db.example:443/?key=value", vars["ENDPOINT"])
}

func TestParse_EmptyValueAndMalformed(t *testing.T) {
	vars, err := Parse([]byte("KEY="))
	require.NoError(t, err)
	assert.Equal(t, "", vars["KEY"])

	_, err = Parse([]byte("NOT A PAIR"))
	assert.Error(t, err)
}

func TestRender_SortedAndQuoted(t *testing.T) {
	out := Render(map[string]string{
		"B_KEY": "plain",
		"A_KEY": "has space",
	})
	assert.Equal(t, "A_KEY=\"has space\"\nB_KEY=plain\n", string(out))
}

func TestRender_ParseRoundTrip(t *testing.T) {
	original := map[string]string{
		"AZURE_OPENAI_API_ENDPOINT": "https://ai.example/",
		"ENABLE_AUTH":               "true",
		"GREETING":                  "hello world",
	}
	parsed, err := Parse(Render(original))
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestWriteMerged(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEEP=old\nREPLACE=old\n"), 0o644))

	err := WriteMerged(path, map[string]string{"REPLACE": "new", "ADDED": "yes"})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	vars, err := Parse(content)
	require.NoError(t, err)
	assert.Equal(t, "old", vars["KEEP"])
	assert.Equal(t, "new", vars["REPLACE"])
	assert.Equal(t, "yes", vars["ADDED"])
}

func TestWriteMerged_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, WriteMerged(path, map[string]string{"KEY": "value"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "KEY=value\n", string(content))
}
