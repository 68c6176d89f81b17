package cli

import (
	"errors"

	"github.com/hupe1980/adexit/internal/exitconfig"
)

// loadExitConfig reads and validates an exit config file. Validation
// failures map to ExitCodeValidation, everything else to ExitCodeError.
func loadExitConfig(path string) (*exitconfig.ExitConfig, error) {
	cfg, err := exitconfig.LoadFile(path)
	if err != nil {
		var vErr *exitconfig.ValidationError
		if errors.As(err, &vErr) {
			return nil, &ExitError{Code: ExitCodeValidation, Err: err}
		}

		return nil, &ExitError{Code: ExitCodeError, Err: err}
	}

	return cfg, nil
}
