// Package songs persists one work record per song in SQLite, keyed by the
// source video id. The pipeline reads a record before each stage and writes
// status and artifact paths after it, so an interrupted run can be inspected
// and resumed.
package songs
