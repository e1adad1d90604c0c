package lyrics

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"kantori/internal/services"
	"kantori/internal/stage"
)

const stageName = "synthesize"

// Style controls the appearance of the karaoke captions.
type Style struct {
	Font           string
	FontSize       int
	PrimaryColor   string
	HighlightColor string
	BorderSize     int
	ShadowDepth    int
	FadeInMillis   int
	FadeOutMillis  int
	PlayResX       int
	PlayResY       int
}

func (s Style) withDefaults() Style {
	if strings.TrimSpace(s.Font) == "" {
		s.Font = "Arial"
	}
	if s.FontSize <= 0 {
		s.FontSize = 48
	}
	if strings.TrimSpace(s.PrimaryColor) == "" {
		s.PrimaryColor = "&H00FFFFFF"
	}
	if strings.TrimSpace(s.HighlightColor) == "" {
		s.HighlightColor = "&H0000FFFF"
	}
	if s.FadeInMillis <= 0 {
		s.FadeInMillis = 200
	}
	if s.FadeOutMillis <= 0 {
		s.FadeOutMillis = 200
	}
	if s.PlayResX <= 0 || s.PlayResY <= 0 {
		s.PlayResX, s.PlayResY = 1920, 1080
	}
	return s
}

// Generator synthesizes karaoke caption files from timed lyric segments.
type Generator struct {
	style Style
}

// NewGenerator creates a caption generator with the given style.
func NewGenerator(style Style) *Generator {
	return &Generator{style: style.withDefaults()}
}

// Synthesize writes both caption artifacts for the segments: a SubRip file
// next to outputPath (same name, .srt extension) and the styled ASS karaoke
// file at outputPath. The ASS content is validated before the path is
// returned.
func (g *Generator) Synthesize(_ context.Context, segments []stage.Segment, outputPath string) (string, error) {
	if len(segments) == 0 {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "captions", "no segments to synthesize", nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "captions", "output path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "captions", "ensure output dir", err)
	}

	srtPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".srt"
	if err := WriteSRT(segments, srtPath); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "captions", "srt artifact", err)
	}

	content := g.render(segments)
	if err := ValidateContent(content); err != nil {
		return "", err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "captions", "write ass file", err)
	}
	return outputPath, nil
}

// SRTPathFor returns the SubRip path Synthesize writes alongside assPath.
func SRTPathFor(assPath string) string {
	return strings.TrimSuffix(assPath, filepath.Ext(assPath)) + ".srt"
}

func (g *Generator) render(segments []stage.Segment) string {
	var b strings.Builder

	fmt.Fprintf(&b, `[Script Info]
Title: Karaoke Lyrics
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
WrapStyle: 0
ScaledBorderAndShadow: yes
YCbCr Matrix: TV.709

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Karaoke,%s,%d,%s,%s,&H00000000,&H80000000,-1,0,0,0,100,100,0,0,1,%d,%d,2,50,50,80,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`,
		g.style.PlayResX, g.style.PlayResY,
		g.style.Font, g.style.FontSize,
		g.style.PrimaryColor, g.style.HighlightColor,
		g.style.BorderSize, g.style.ShadowDepth,
	)

	for _, seg := range segments {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Karaoke,,0,0,0,,%s\n",
			assTimestamp(seg.Start), assTimestamp(seg.End), g.karaokeText(seg))
	}
	return b.String()
}

// karaokeText splits the segment evenly across its words, tagging each with
// a \k highlight duration in centiseconds and the whole line with a fade.
func (g *Generator) karaokeText(seg stage.Segment) string {
	words := strings.Fields(seg.Text)
	if len(words) == 0 {
		return seg.Text
	}

	duration := seg.End - seg.Start
	if duration < 0 {
		duration = 0
	}
	perWord := int(duration / float64(len(words)) * 100)

	var b strings.Builder
	fmt.Fprintf(&b, "{\\fad(%d,%d)}", g.style.FadeInMillis, g.style.FadeOutMillis)
	for i, word := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "{\\k%d}%s", perWord, word)
	}
	return b.String()
}

// assTimestamp formats seconds as H:MM:SS.CC.
func assTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalCentis := int64(math.Round(seconds * 100))
	hours := totalCentis / 360_000
	minutes := (totalCentis % 360_000) / 6000
	secs := (totalCentis % 6000) / 100
	centis := totalCentis % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis)
}
