package exitconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	return p
}

func TestLoadFile_JSON(t *testing.T) {
	p := writeTempFile(t, "exit.json", `{"targets":{"default":{"final_url":"https://example.com"}}}`)

	cfg, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, cfg.TargetNames())
}

func TestLoadFile_YAML(t *testing.T) {
	p := writeTempFile(t, "exit.yaml", `
targets:
  default:
    final_url: https://example.com
    filters: [edges]
filters:
  edges:
    type: clickLocation
    top: 10
`)

	cfg, err := LoadFile(p)
	require.NoError(t, err)

	target, ok := cfg.Target("default")
	require.True(t, ok)
	assert.Equal(t, []string{"edges"}, target.Filters)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading exit config")
}

func TestLoadFile_ValidationErrorIsWrapped(t *testing.T) {
	p := writeTempFile(t, "exit.json", `{"targets":1}`)

	_, err := LoadFile(p)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), p)
}

func TestLoadFile_MalformedYAML(t *testing.T) {
	p := writeTempFile(t, "exit.yml", "targets: [unclosed\n")

	_, err := LoadFile(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing exit config")
}

func TestLoadFile_MultiDocumentYAML(t *testing.T) {
	p := writeTempFile(t, "exit.yaml", `
targets:
  default:
    final_url: https://example.com
---
targets: {}
`)

	_, err := LoadFile(p)
	require.ErrorIs(t, err, ErrMultipleDocuments)
	assert.Contains(t, err.Error(), "found 2")
}

func TestTarget_VarsAreCopied(t *testing.T) {
	p := writeTempFile(t, "exit.json", `{"targets":{"default":{"final_url":"u","vars":{"ids":["a","b"]}}}}`)

	cfg, err := LoadFile(p)
	require.NoError(t, err)

	first, _ := cfg.Target("default")
	first.Vars["ids"].([]any)[0] = "changed"

	second, _ := cfg.Target("default")
	assert.Equal(t, "a", second.Vars["ids"].([]any)[0])
}
