package output

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func (r report) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: %d\n", r.Name, r.Count)
	return err
}

func TestDefaultRegistry_Formats(t *testing.T) {
	assert.Equal(t, []string{"json", "text", "yaml"}, DefaultRegistry().Formats())
}

func TestRegistry_Write(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{FormatText, "targets: 3\n"},
		{FormatJSON, "{\n  \"name\": \"targets\",\n  \"count\": 3\n}\n"},
		{FormatYAML, "name: targets\ncount: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, DefaultRegistry().Write(&buf, tt.format, report{Name: "targets", Count: 3}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRegistry_TextFallsBackToPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DefaultRegistry().Write(&buf, FormatText, 42))
	assert.Equal(t, "42\n", buf.String())
}

func TestRegistry_UnknownFormat(t *testing.T) {
	_, err := DefaultRegistry().Encoder("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "xml"`)
	assert.Contains(t, err.Error(), "json, text, yaml")
}

func TestRegistry_EmptyAndOverride(t *testing.T) {
	r := NewRegistry()

	_, err := r.Encoder("text")
	assert.ErrorContains(t, err, "available: none")

	r.Register("text", func(w io.Writer, _ any) error {
		_, err := io.WriteString(w, "custom")
		return err
	})

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, "text", nil))
	assert.Equal(t, "custom", buf.String())
}
