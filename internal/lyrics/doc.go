// Package lyrics turns timed lyric segments into caption artifacts: a plain
// SubRip file and a styled ASS file with word-by-word karaoke highlighting.
//
// The Generator satisfies stage.Synthesizer. Each dialogue line carries a
// fade effect and per-word \k timing tags; word durations are split evenly
// across the segment. Validate enforces the structural minimum a renderer
// needs: the three standard ASS sections and at least one dialogue line.
package lyrics
