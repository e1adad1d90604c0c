package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"kantori/internal/logging"
	"kantori/internal/media/ffprobe"
	"kantori/internal/services"
	"kantori/internal/stage"
)

const (
	stageName = "render"

	// fallbackDuration bounds the render when the audio duration cannot
	// be probed.
	fallbackDuration = 180.0
)

var videoBackgroundExts = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
}

// Settings control the rendered output.
type Settings struct {
	Width              int
	Height             int
	FPS                int
	VisualizerType     string
	VisualizerColor    string
	VisualizerHeight   int
	VisualizerPosition string
	BackgroundsDir     string
}

func (s Settings) withDefaults() Settings {
	if s.Width <= 0 || s.Height <= 0 {
		s.Width, s.Height = 1920, 1080
	}
	if s.FPS <= 0 {
		s.FPS = 30
	}
	if strings.TrimSpace(s.VisualizerType) == "" {
		s.VisualizerType = "waveform"
	}
	if strings.TrimSpace(s.VisualizerColor) == "" {
		s.VisualizerColor = "cyan"
	}
	if s.VisualizerHeight <= 0 {
		s.VisualizerHeight = 200
	}
	if strings.TrimSpace(s.VisualizerPosition) == "" {
		s.VisualizerPosition = "bottom"
	}
	return s
}

// Renderer composes the instrumental, caption file, and background into the
// final karaoke video via ffmpeg.
type Renderer struct {
	ffmpegBinary  string
	ffprobeBinary string
	settings      Settings
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
	prober        func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewRenderer creates a renderer using the given ffmpeg and ffprobe binaries.
func NewRenderer(ffmpegBinary, ffprobeBinary string, settings Settings, logger *slog.Logger) *Renderer {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		settings:      settings.withDefaults(),
		logger:        logger,
		prober:        ffprobe.Inspect,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Renderer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	r.commandRunner = runner
}

// WithProber sets a custom media prober (for testing).
func (r *Renderer) WithProber(prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	r.prober = prober
}

// Render produces the karaoke video at req.OutputPath. The rendered file is
// probed before the path is returned; a container that reports no positive
// duration fails the stage so the broken file is never recorded as an
// artifact.
func (r *Renderer) Render(ctx context.Context, req stage.RenderRequest) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "compose", "audio path required", nil)
	}
	if strings.TrimSpace(req.CaptionsPath) == "" {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "compose", "captions path required", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "compose", "output path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "compose", "ensure output dir", err)
	}

	background := strings.TrimSpace(req.BackgroundPath)
	if background == "" {
		generated, err := r.EnsureBackground(ctx)
		if err != nil {
			return "", err
		}
		background = generated
	}

	duration := r.audioDuration(ctx, req.AudioPath)
	args := r.buildArgs(req.AudioPath, req.CaptionsPath, background, req.OutputPath, duration)
	if err := r.run(ctx, r.ffmpegBinary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "compose", "ffmpeg render failed", err)
	}

	probe, err := r.prober(ctx, r.ffprobeBinary, req.OutputPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, stageName, "verify output", "probe rendered video", err)
	}
	if rendered := probe.DurationSeconds(); !(rendered > 0) {
		return "", services.Wrap(services.ErrValidation, stageName, "verify output",
			fmt.Sprintf("rendered video %s reports non-positive duration", req.OutputPath), nil)
	}
	return req.OutputPath, nil
}

// audioDuration probes the instrumental for the render length, falling back
// to a fixed bound when the probe fails.
func (r *Renderer) audioDuration(ctx context.Context, audioPath string) float64 {
	probe, err := r.prober(ctx, r.ffprobeBinary, audioPath)
	if err == nil {
		if duration := probe.DurationSeconds(); duration > 0 {
			return duration
		}
	}
	r.logger.Warn("could not probe audio duration, using fallback",
		logging.String("audio", audioPath),
		logging.Float64("fallback_seconds", fallbackDuration))
	return fallbackDuration
}

func (r *Renderer) buildArgs(audioPath, captionsPath, background, outputPath string, duration float64) []string {
	s := r.settings

	args := []string{"-y", "-i", audioPath}
	isVideoBG := videoBackgroundExts[strings.ToLower(filepath.Ext(background))]

	var bgFilter string
	if isVideoBG {
		args = append(args, "-stream_loop", "-1", "-i", background)
		bgFilter = fmt.Sprintf("[1:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d[bg]",
			s.Width, s.Height, s.Width, s.Height)
	} else {
		args = append(args, "-loop", "1", "-i", background)
		bgFilter = fmt.Sprintf("[1:v]scale=%d:%d[bg]", s.Width, s.Height)
	}

	var visFilter string
	if s.VisualizerType == "spectrum" {
		visFilter = fmt.Sprintf("[0:a]showfreqs=s=%dx%d:mode=bar:colors=%s[waves]",
			s.Width, s.VisualizerHeight, s.VisualizerColor)
	} else {
		visFilter = fmt.Sprintf("[0:a]showwaves=s=%dx%d:mode=cline:colors=%s:scale=sqrt[waves]",
			s.Width, s.VisualizerHeight, s.VisualizerColor)
	}

	var visY int
	switch s.VisualizerPosition {
	case "top":
		visY = 20
	case "center":
		visY = (s.Height - s.VisualizerHeight) / 2
	default:
		visY = s.Height - s.VisualizerHeight - 20
	}

	filterComplex := strings.Join([]string{
		bgFilter,
		visFilter,
		fmt.Sprintf("[bg][waves]overlay=0:%d[base]", visY),
		fmt.Sprintf("[base]ass='%s'[out]", captionsPath),
	}, ";")

	args = append(args,
		"-filter_complex", filterComplex,
		"-map", "[out]",
		"-map", "0:a",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", "44100",
		"-t", fmt.Sprintf("%.3f", duration),
		"-r", fmt.Sprintf("%d", s.FPS),
		"-pix_fmt", "yuv420p",
		outputPath,
	)
	return args
}

func (r *Renderer) run(ctx context.Context, name string, args ...string) error {
	if r.commandRunner != nil {
		return r.commandRunner(ctx, name, args...)
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
