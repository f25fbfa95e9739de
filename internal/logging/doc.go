// Package logging provides structured logging for stevedore built on
// log/slog.
//
// The default text handler is TTY-optimized: colorized level and key
// output when writing to a terminal (respecting NO_COLOR and TERM=dumb),
// plain text otherwise. A JSON handler is available for machine
// consumption, and [MultiHandler] fans records out to several handlers at
// once, which the CLI uses to mirror console output into a JSON log file.
//
// Verbosity maps onto levels via [LevelFromVerbosity]; [ForTest] routes
// log output through testing.T so it only surfaces on failure.
package logging
