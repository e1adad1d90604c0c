// Package stage defines the contracts between the pipeline orchestrator
// and the individual processing stages.
//
// Each stage is a narrow interface taking the artifact paths it needs and
// returning the paths it produced. Implementations live under
// internal/services, internal/audio, internal/lyrics, internal/video, and
// internal/uploader; the pipeline depends only on these interfaces so
// tests can substitute fakes.
package stage
