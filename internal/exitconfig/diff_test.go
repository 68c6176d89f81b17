package exitconfig

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustValidate(t *testing.T, raw string) *ExitConfig {
	t.Helper()

	cfg, err := Validate([]byte(raw))
	require.NoError(t, err)

	return cfg
}

func TestDiff_Identical(t *testing.T) {
	raw := `{"targets":{"a":{"final_url":"u"}}}`

	result, err := Diff(mustValidate(t, raw), mustValidate(t, raw), DefaultDiffOptions())
	require.NoError(t, err)
	assert.False(t, result.HasDifferences)
	assert.Empty(t, result.Changes)
}

func TestDiff_StructuralChanges(t *testing.T) {
	oldCfg := mustValidate(t, `{
		"targets": {"a": {"final_url": "u1"}, "b": {"final_url": "u"}},
		"filters": {"slow": {"type": "clickDelay", "delay": 100}}
	}`)
	newCfg := mustValidate(t, `{
		"targets": {"a": {"final_url": "u2"}, "c": {"final_url": "u"}},
		"filters": {"slow": {"type": "clickDelay", "delay": 200}}
	}`)

	result, err := Diff(oldCfg, newCfg, DefaultDiffOptions())
	require.NoError(t, err)
	assert.True(t, result.HasDifferences)
	assert.Equal(t, []Change{
		{Kind: ChangeModified, Section: "filter", Name: "slow"},
		{Kind: ChangeModified, Section: "target", Name: "a"},
		{Kind: ChangeRemoved, Section: "target", Name: "b"},
		{Kind: ChangeAdded, Section: "target", Name: "c"},
	}, result.Changes)
	assert.Contains(t, result.Unified, `-      "final_url": "u1"`)
	assert.Contains(t, result.Unified, `+      "final_url": "u2"`)
}

func TestDiff_Labels(t *testing.T) {
	opts := DefaultDiffOptions()
	opts.OldLabel = "before.json"
	opts.NewLabel = "after.json"

	result, err := Diff(
		mustValidate(t, `{"targets":{"a":{"final_url":"x"}}}`),
		mustValidate(t, `{"targets":{"a":{"final_url":"y"}}}`),
		opts,
	)
	require.NoError(t, err)
	assert.Contains(t, result.Unified, "--- before.json")
	assert.Contains(t, result.Unified, "+++ after.json")
}

func TestWriteDiff_NoDifferences(t *testing.T) {
	var buf bytes.Buffer
	WriteDiff(&buf, &DiffResult{}, false)
	assert.Equal(t, "No differences found.\n", buf.String())
}

func TestWriteDiff_Color(t *testing.T) {
	result, err := Diff(
		mustValidate(t, `{"targets":{"a":{"final_url":"x"}}}`),
		mustValidate(t, `{"targets":{"a":{"final_url":"y"}}}`),
		DefaultDiffOptions(),
	)
	require.NoError(t, err)

	var plain, colored bytes.Buffer
	WriteDiff(&plain, result, false)
	WriteDiff(&colored, result, true)

	assert.Contains(t, plain.String(), `* modified target "a"`)
	assert.NotContains(t, plain.String(), "\033[")
	assert.Contains(t, colored.String(), "\033[31m")
	assert.Contains(t, colored.String(), "\033[32m")
}
