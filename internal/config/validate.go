package config

import (
	"errors"
	"path/filepath"
	"strings"
)

// Validation errors for configuration fields.
var (
	// ErrMissingAppName indicates the app_name field is empty.
	ErrMissingAppName = errors.New("app_name must not be empty")

	// ErrNegativeRetention indicates max_backups is below zero.
	ErrNegativeRetention = errors.New("max_backups must be >= 0")

	// ErrInvalidPath indicates a path value is missing or malformed.
	ErrInvalidPath = errors.New("invalid path")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if strings.TrimSpace(cfg.App) == "" {
		errs = append(errs, ErrMissingAppName)
	}

	if cfg.MaxBackups < 0 {
		errs = append(errs, ErrNegativeRetention)
	}

	for _, f := range []struct {
		field string
		path  string
	}{
		{"source_dir", cfg.SourceDir},
		{"deploy_dir", cfg.DeployDir},
		{"backup_dir", cfg.BackupDir},
	} {
		if err := validatePath(f.path); err != nil {
			errs = append(errs, &PathError{
				Field: f.field,
				Path:  f.path,
				Err:   err,
			})
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed and non-empty.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	if path == "" {
		return ErrInvalidPath
	}

	// Check for null bytes which are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	// Clean the path and check it's not empty after cleaning
	cleaned := filepath.Clean(path)
	if cleaned == "" {
		return ErrInvalidPath
	}

	return nil
}

// PathError represents an error for a specific path field.
type PathError struct {
	Field string
	Path  string
	Err   error
}

func (e *PathError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Path
}

func (e *PathError) Unwrap() error {
	return e.Err
}
