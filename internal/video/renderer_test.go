package video

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"kantori/internal/media/ffprobe"
	"kantori/internal/services"
	"kantori/internal/stage"
	"kantori/internal/testsupport"
)

func testRenderer(t *testing.T, duration string) (*Renderer, *[]string) {
	t.Helper()

	r := NewRenderer("ffmpeg", "ffprobe", Settings{
		Width: 1280, Height: 720,
		FPS:            24,
		BackgroundsDir: t.TempDir(),
	}, nil)

	var lastArgs []string
	r.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		lastArgs = args
		testsupport.WriteFile(t, args[len(args)-1], 4096)
		return nil
	})
	r.WithProber(func(_ context.Context, _, _ string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: duration}}, nil
	})
	return r, &lastArgs
}

func TestRenderComposesFilterGraph(t *testing.T) {
	r, lastArgs := testRenderer(t, "212.5")
	dir := t.TempDir()

	out, err := r.Render(context.Background(), stage.RenderRequest{
		AudioPath:      filepath.Join(dir, "instrumental.wav"),
		CaptionsPath:   filepath.Join(dir, "captions.ass"),
		BackgroundPath: filepath.Join(dir, "bg.png"),
		OutputPath:     filepath.Join(dir, "final.mp4"),
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != filepath.Join(dir, "final.mp4") {
		t.Fatalf("unexpected output path: %s", out)
	}

	var filterComplex string
	for i, arg := range *lastArgs {
		if arg == "-filter_complex" && i+1 < len(*lastArgs) {
			filterComplex = (*lastArgs)[i+1]
		}
	}
	for _, want := range []string{"scale=1280:720", "showwaves", "overlay=0:", "ass='"} {
		if !strings.Contains(filterComplex, want) {
			t.Fatalf("expected %q in filter graph %q", want, filterComplex)
		}
	}
	joined := strings.Join(*lastArgs, " ")
	for _, want := range []string{"-c:v libx264", "-pix_fmt yuv420p", "-t 212.500", "-r 24"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args: %s", want, joined)
		}
	}
}

func TestRenderVideoBackgroundLoops(t *testing.T) {
	r, lastArgs := testRenderer(t, "120")
	dir := t.TempDir()

	_, err := r.Render(context.Background(), stage.RenderRequest{
		AudioPath:      filepath.Join(dir, "instrumental.wav"),
		CaptionsPath:   filepath.Join(dir, "captions.ass"),
		BackgroundPath: filepath.Join(dir, "bg.mp4"),
		OutputPath:     filepath.Join(dir, "final.mp4"),
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	joined := strings.Join(*lastArgs, " ")
	if !strings.Contains(joined, "-stream_loop -1") {
		t.Fatalf("expected video background to stream_loop: %s", joined)
	}
	if !strings.Contains(joined, "force_original_aspect_ratio") {
		t.Fatalf("expected aspect-preserving scale for video background: %s", joined)
	}
}

func TestRenderSpectrumVisualizer(t *testing.T) {
	r, lastArgs := testRenderer(t, "60")
	r.settings.VisualizerType = "spectrum"
	dir := t.TempDir()

	_, err := r.Render(context.Background(), stage.RenderRequest{
		AudioPath:      filepath.Join(dir, "instrumental.wav"),
		CaptionsPath:   filepath.Join(dir, "captions.ass"),
		BackgroundPath: filepath.Join(dir, "bg.png"),
		OutputPath:     filepath.Join(dir, "final.mp4"),
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(strings.Join(*lastArgs, " "), "showfreqs") {
		t.Fatal("expected showfreqs filter for spectrum visualizer")
	}
}

func TestRenderZeroDurationFailsValidation(t *testing.T) {
	r, _ := testRenderer(t, "0")
	dir := t.TempDir()

	_, err := r.Render(context.Background(), stage.RenderRequest{
		AudioPath:      filepath.Join(dir, "instrumental.wav"),
		CaptionsPath:   filepath.Join(dir, "captions.ass"),
		BackgroundPath: filepath.Join(dir, "bg.png"),
		OutputPath:     filepath.Join(dir, "final.mp4"),
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero-duration render, got %v", err)
	}
}

func TestRenderToolFailure(t *testing.T) {
	r := NewRenderer("", "", Settings{BackgroundsDir: t.TempDir()}, nil)
	r.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	r.WithProber(func(_ context.Context, _, _ string) (ffprobe.Result, error) {
		return ffprobe.Result{}, nil
	})
	dir := t.TempDir()

	_, err := r.Render(context.Background(), stage.RenderRequest{
		AudioPath:      filepath.Join(dir, "instrumental.wav"),
		CaptionsPath:   filepath.Join(dir, "captions.ass"),
		BackgroundPath: filepath.Join(dir, "bg.png"),
		OutputPath:     filepath.Join(dir, "final.mp4"),
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestEnsureBackgroundGeneratesOnce(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer("ffmpeg", "ffprobe", Settings{Width: 640, Height: 360, BackgroundsDir: dir}, nil)

	calls := 0
	r.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		calls++
		testsupport.WriteFile(t, args[len(args)-1], 512)
		return nil
	})

	first, err := r.EnsureBackground(context.Background())
	if err != nil {
		t.Fatalf("EnsureBackground failed: %v", err)
	}
	second, err := r.EnsureBackground(context.Background())
	if err != nil {
		t.Fatalf("EnsureBackground failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable gradient path: %s vs %s", first, second)
	}
	if calls != 1 {
		t.Fatalf("expected gradient generated once, ffmpeg ran %d times", calls)
	}
}
