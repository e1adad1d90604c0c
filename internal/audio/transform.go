package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"kantori/internal/logging"
)

// Tempo adjustments outside this window distort the instrumental too far
// from the recording the captions were timed against.
const (
	minTempoFactor = 0.97
	maxTempoFactor = 1.03
	maxPitchShift  = 1.0
	sampleRate     = 44100
)

// Settings control the instrumental adjustments applied before rendering.
type Settings struct {
	// TempoPercent shifts playback speed, e.g. 2 means 2% faster.
	TempoPercent float64
	// PitchSemitones transposes the track, at most one semitone either way.
	PitchSemitones float64
	// Normalize applies EBU R128 loudness normalization.
	Normalize bool
}

// Transformer applies tempo, pitch, and loudness adjustments to the
// instrumental stem via ffmpeg.
//
// Transform degrades instead of failing: an instrumental that could not be
// adjusted is still a usable karaoke track, so any ffmpeg failure is logged
// and the unmodified input path is returned.
type Transformer struct {
	binary        string
	settings      Settings
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewTransformer creates a transformer using the given ffmpeg binary.
func NewTransformer(binary string, settings Settings, logger *slog.Logger) *Transformer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Transformer{binary: binary, settings: settings, logger: logger}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transformer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	t.commandRunner = runner
}

// Transform writes an adjusted copy of instrumentalPath to outputPath and
// returns the path callers should use from here on. When no adjustment is
// configured, or when ffmpeg fails, the input path is returned unchanged.
func (t *Transformer) Transform(ctx context.Context, instrumentalPath, outputPath string) (string, error) {
	filters := t.buildFilters()
	if len(filters) == 0 {
		return instrumentalPath, nil
	}

	args := []string{
		"-y",
		"-i", instrumentalPath,
		"-af", strings.Join(filters, ","),
		outputPath,
	}
	if err := t.run(ctx, t.binary, args...); err != nil {
		t.logger.Warn("instrumental transform failed, using unmodified track",
			logging.String("input", instrumentalPath),
			logging.Error(err))
		return instrumentalPath, nil
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		t.logger.Warn("instrumental transform produced no output, using unmodified track",
			logging.String("output", outputPath))
		return instrumentalPath, nil
	}
	return outputPath, nil
}

func (t *Transformer) buildFilters() []string {
	filters := make([]string, 0, 3)

	if factor := clampTempo(1 + t.settings.TempoPercent/100); factor != 1 {
		filters = append(filters, fmt.Sprintf("atempo=%.4f", factor))
	}
	if semitones := clampPitch(t.settings.PitchSemitones); semitones != 0 {
		rate := float64(sampleRate) * math.Pow(2, semitones/12)
		// asetrate changes tempo alongside pitch; compensate so only
		// the pitch moves.
		compensation := float64(sampleRate) / rate
		filters = append(filters,
			fmt.Sprintf("asetrate=%d", int(math.Round(rate))),
			fmt.Sprintf("aresample=%d", sampleRate),
			fmt.Sprintf("atempo=%.4f", compensation),
		)
	}
	if t.settings.Normalize {
		filters = append(filters, "loudnorm=I=-16:TP=-1.5:LRA=11")
	}
	return filters
}

func clampTempo(factor float64) float64 {
	if factor < minTempoFactor {
		return minTempoFactor
	}
	if factor > maxTempoFactor {
		return maxTempoFactor
	}
	return factor
}

func clampPitch(semitones float64) float64 {
	if semitones < -maxPitchShift {
		return -maxPitchShift
	}
	if semitones > maxPitchShift {
		return maxPitchShift
	}
	return semitones
}

func (t *Transformer) run(ctx context.Context, name string, args ...string) error {
	if t.commandRunner != nil {
		return t.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	// A killed process can leave grandchildren holding the output pipe open;
	// WaitDelay bounds how long CombinedOutput waits past cancellation.
	cmd.WaitDelay = 5 * time.Second
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
