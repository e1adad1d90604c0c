package stage

import "context"

// FetchRequest identifies a source recording to pull down.
type FetchRequest struct {
	VideoID string
	URL     string
	WorkDir string
}

// SeparatedTracks holds the two stems produced by source separation.
type SeparatedTracks struct {
	Vocals       string
	Instrumental string
}

// Segment is one timed span of recognized lyrics.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// RenderRequest carries everything the renderer needs to compose the
// final karaoke video.
type RenderRequest struct {
	AudioPath      string
	CaptionsPath   string
	BackgroundPath string
	OutputPath     string
	Title          string
	Artist         string
}

// UploadRequest describes a finished video to publish.
type UploadRequest struct {
	VideoPath string
	Title     string
	Artist    string
}

// Fetcher downloads the source audio for a song.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (string, error)
}

// Separator splits an audio file into vocal and instrumental stems.
type Separator interface {
	Separate(ctx context.Context, audioPath, workDir string) (SeparatedTracks, error)
}

// Transformer applies configured tempo, pitch, and loudness adjustments
// to the instrumental track. Implementations degrade rather than fail:
// on any error they return the input path unchanged.
type Transformer interface {
	Transform(ctx context.Context, instrumentalPath, outputPath string) (string, error)
}

// Transcriber produces timed lyric segments from an isolated vocal track.
type Transcriber interface {
	Transcribe(ctx context.Context, vocalPath, workDir, language string) ([]Segment, error)
}

// Synthesizer turns timed segments into a styled ASS caption file.
type Synthesizer interface {
	Synthesize(ctx context.Context, segments []Segment, outputPath string) (string, error)
}

// Renderer composes the instrumental, captions, and background into the
// final video file.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}

// Uploader publishes a rendered video to the configured destination.
// Enabled reports whether uploads are configured at all; the pipeline
// never invokes Upload when it returns false.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (string, error)
	Enabled() bool
}
