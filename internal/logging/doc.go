// Package logging builds the slog loggers used across kantori: a console
// handler for interactive runs, a JSON handler for machine consumption, and
// helpers for attaching pipeline identifiers carried in context.
package logging
