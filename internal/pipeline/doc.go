// Package pipeline orchestrates the karaoke production stages for each
// song: fetch, stem separation (with optional instrumental transform),
// transcription and caption synthesis, video rendering, and upload.
//
// The pipeline persists the in-progress status before a stage runs and the
// produced artifact paths after it succeeds, so the store always reflects
// how far a song got. A failed or interrupted song resumes from the
// earliest stage whose artifacts are missing or invalid on disk rather
// than starting over.
package pipeline
