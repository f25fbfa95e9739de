// Package errors provides error handling conventions for the stevedore CLI.
//
// This package defines an ExitError type for CLI exit code handling and
// exit code constants, one per failure kind, following standard Unix
// conventions.
//
// # Exit Codes
//
// The package defines one exit code per failure kind:
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitFailure (1): Unclassified error
//   - ExitConfig (2): Invalid or missing configuration
//   - ExitHook (3): A hook command exited non-zero
//   - ExitBackup (4): Snapshot creation failed
//   - ExitNotFound (5): Named backup does not exist
//   - ExitNoBackups (6): Rollback requested with nothing to restore
//   - ExitDeploy (7): Copy or restore I/O failure
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion for CLI presentation. It supports error unwrapping via
// [errors.Unwrap] and [errors.As]:
//
//	err := stevederrors.NewExitErrorWithSuggestion(err, stevederrors.ExitConfig, "Run: stevedore init")
//	os.Exit(stevederrors.Code(err))
package errors
