package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/frappe-till/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRow   = errors.New("invalid catalog row")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRows rejects a nil snapshot and nil rows inside it. An empty,
// non-nil slice is a valid (empty) catalog.
func validateRows(rows []model.RawRow) error {
	if rows == nil {
		return fmt.Errorf("%w: rows", ErrNilParameter)
	}
	for i, row := range rows {
		if row == nil {
			return fmt.Errorf("%w at position %d: nil row", ErrInvalidRow, i)
		}
	}
	return nil
}
