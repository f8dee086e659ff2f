// Package ids provides branded identifier types wrapping RFC 4122 UUIDs.
//
// Decoding from a raw string always validates UUID shape; callers get a
// typed error rather than a silently-zero identifier. This package does
// not do schema validation beyond "is this a UUID" — the richer schema
// decoding the original system leans on is out of scope here.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// StockID identifies a Stock within a Model.
type StockID string

// FlowID identifies a Flow within a Model.
type FlowID string

// VariableID identifies a Variable (constant or auxiliary) within a Model.
type VariableID string

// ModelID identifies a Model.
type ModelID string

// ScenarioID identifies a ScenarioDefinition.
type ScenarioID string

// New generates a fresh random identifier string.
func New() string {
	return uuid.NewString()
}

// Validate reports whether s parses as an RFC 4122 UUID.
func Validate(s string) error {
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return nil
}

// NewStockID decodes and validates s as a StockID.
func NewStockID(s string) (StockID, error) {
	if err := Validate(s); err != nil {
		return "", err
	}
	return StockID(s), nil
}

// NewFlowID decodes and validates s as a FlowID.
func NewFlowID(s string) (FlowID, error) {
	if err := Validate(s); err != nil {
		return "", err
	}
	return FlowID(s), nil
}

// NewVariableID decodes and validates s as a VariableID.
func NewVariableID(s string) (VariableID, error) {
	if err := Validate(s); err != nil {
		return "", err
	}
	return VariableID(s), nil
}

// NewModelID decodes and validates s as a ModelID.
func NewModelID(s string) (ModelID, error) {
	if err := Validate(s); err != nil {
		return "", err
	}
	return ModelID(s), nil
}

// NewScenarioID decodes and validates s as a ScenarioID.
func NewScenarioID(s string) (ScenarioID, error) {
	if err := Validate(s); err != nil {
		return "", err
	}
	return ScenarioID(s), nil
}
