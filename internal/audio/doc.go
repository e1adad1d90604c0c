// Package audio applies instrumental adjustments (tempo, pitch, loudness)
// ahead of video rendering.
//
// The Transformer satisfies stage.Transformer and never fails the pipeline:
// when ffmpeg cannot produce an adjusted track the unmodified instrumental
// is used instead.
package audio
