package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrDataIncomplete matches every DataIncompleteError
	ErrDataIncomplete = errors.New("data incomplete")
	// ErrConfiguration matches every ConfigurationError
	ErrConfiguration = errors.New("configuration error")
)

// DataIncompleteError reports a relation, column or parameter entry that is
// required by normalization or model construction but absent.
type DataIncompleteError struct {
	Relation string
	Key      string
}

func (e *DataIncompleteError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("data incomplete: %s", e.Relation)
	}
	return fmt.Sprintf("data incomplete: %s has no entry for %s", e.Relation, e.Key)
}

// Is makes errors.Is(err, ErrDataIncomplete) succeed
func (e *DataIncompleteError) Is(target error) bool {
	return target == ErrDataIncomplete
}

// ConfigurationError reports an index value outside its expected domain
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s=%q: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) succeed
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
