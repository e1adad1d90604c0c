// Package whisperx wraps WhisperX (launched through uvx) to transcribe
// isolated vocal tracks into timed lyric segments.
//
// The Service satisfies stage.Transcriber. WhisperX writes a JSON file
// alongside the input; LoadSegments parses it and drops empty segments.
package whisperx
