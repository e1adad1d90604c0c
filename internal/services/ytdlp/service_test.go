package ytdlp_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"kantori/internal/services"
	"kantori/internal/services/ytdlp"
	"kantori/internal/stage"
	"kantori/internal/testsupport"
)

func TestFetchWritesAudio(t *testing.T) {
	workDir := t.TempDir()
	svc := ytdlp.NewService("yt-dlp")

	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != "yt-dlp" {
			t.Fatalf("unexpected binary: %s", name)
		}
		gotArgs = args
		testsupport.WriteFile(t, filepath.Join(workDir, "abc123.wav"), 2048)
		return nil
	})

	path, err := svc.Fetch(context.Background(), stage.FetchRequest{
		VideoID: "abc123",
		URL:     "https://youtube.com/watch?v=abc123",
		WorkDir: workDir,
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if path != filepath.Join(workDir, "abc123.wav") {
		t.Fatalf("unexpected output path: %s", path)
	}

	joined := ""
	for _, arg := range gotArgs {
		joined += arg + " "
	}
	for _, want := range []string{"-x", "--audio-format", "wav", "--no-playlist"} {
		found := false
		for _, arg := range gotArgs {
			if arg == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected argument %q in %s", want, joined)
		}
	}
}

func TestFetchToolFailure(t *testing.T) {
	svc := ytdlp.NewService("")
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})

	_, err := svc.Fetch(context.Background(), stage.FetchRequest{
		VideoID: "abc123",
		URL:     "https://example.com",
		WorkDir: t.TempDir(),
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestFetchMissingOutput(t *testing.T) {
	svc := ytdlp.NewService("yt-dlp")
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return nil
	})

	_, err := svc.Fetch(context.Background(), stage.FetchRequest{
		VideoID: "abc123",
		URL:     "https://example.com",
		WorkDir: t.TempDir(),
	})
	if !errors.Is(err, services.ErrMissingOutput) {
		t.Fatalf("expected missing output error, got %v", err)
	}
}

func TestFetchEmptyOutput(t *testing.T) {
	workDir := t.TempDir()
	svc := ytdlp.NewService("yt-dlp")
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		testsupport.TouchEmpty(t, filepath.Join(workDir, "abc123.wav"))
		return nil
	})

	_, err := svc.Fetch(context.Background(), stage.FetchRequest{
		VideoID: "abc123",
		URL:     "https://example.com",
		WorkDir: workDir,
	})
	if !errors.Is(err, services.ErrMissingOutput) {
		t.Fatalf("expected missing output error, got %v", err)
	}
}

func TestFetchRejectsBlankInputs(t *testing.T) {
	svc := ytdlp.NewService("yt-dlp")
	_, err := svc.Fetch(context.Background(), stage.FetchRequest{})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
