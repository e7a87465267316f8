// Package logging builds the application's slog loggers and standardizes the
// structured fields stages attach to their output.
//
// New constructs a logger in console or JSON format. WithContext augments a
// logger with the stage, date, and run_id fields carried on the context by
// internal/services. NewNop returns a silent logger for tests.
package logging
