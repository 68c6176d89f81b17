package exitconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/adexit/internal/yamlutil"
)

// ErrMultipleDocuments is returned for YAML files holding more than one
// document.
var ErrMultipleDocuments = errors.New("expected a single YAML document")

// LoadFile reads and validates an exit config from disk. Files ending in
// .yaml or .yml must hold exactly one document and are converted to JSON
// first; everything else is treated as JSON.
func LoadFile(path string) (*ExitConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path
	if err != nil {
		return nil, fmt.Errorf("reading exit config %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if n := len(yamlutil.SplitDocuments(data)); n > 1 {
			return nil, fmt.Errorf("parsing exit config %q: %w (found %d)", path, ErrMultipleDocuments, n)
		}

		data, err = sigsyaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parsing exit config %q: %w", path, err)
		}
	}

	cfg, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}
