package registry

import (
	"errors"
	"fmt"

	"github.com/roach88/quorum/internal/ir"
)

// ErrCodeInvalidConfiguration is the code carried by every ConfigError.
const ErrCodeInvalidConfiguration = "INVALID_CONFIGURATION"

// ErrInvalidConfiguration matches any ConfigError via errors.Is.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError reports why an owner set and threshold were rejected.
type ConfigError struct {
	// Reason is a human-readable description.
	Reason string

	// Owner is the offending identity, when one is to blame.
	Owner ir.Owner

	// Position is the offending owner's position in the input, or -1.
	Position int
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s: %s (owner %d %q)", ErrCodeInvalidConfiguration, e.Reason, e.Position, e.Owner)
	}
	return fmt.Sprintf("%s: %s", ErrCodeInvalidConfiguration, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidConfiguration) true for every ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func configError(reason string) *ConfigError {
	return &ConfigError{Reason: reason, Position: -1}
}

func ownerError(reason string, pos int, owner ir.Owner) *ConfigError {
	return &ConfigError{Reason: reason, Owner: owner, Position: pos}
}
