// Package storage caches fetched sheet grids in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sheetboard/internal/service"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidGrid  = errors.New("invalid grid")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateSnapshot(snap *service.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	if err := validateString(snap.SpreadsheetID, "spreadsheetID"); err != nil {
		return err
	}
	if err := validateString(snap.ReadRange, "readRange"); err != nil {
		return err
	}
	if snap.FetchedAt.IsZero() {
		return fmt.Errorf("%w: fetched at is zero", ErrInvalidGrid)
	}
	if snap.Grid == nil {
		return fmt.Errorf("%w: grid is nil", ErrInvalidGrid)
	}
	return nil
}
