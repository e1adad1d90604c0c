package whisperx_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kantori/internal/services"
	"kantori/internal/services/whisperx"
	"kantori/internal/testsupport"
)

const transcriptJSON = `{
  "segments": [
    {"text": " Hello darkness ", "start": 0.5, "end": 2.1},
    {"text": "", "start": 2.1, "end": 2.3},
    {"text": "my old friend", "start": 2.4, "end": 4.0}
  ]
}`

func TestTranscribeParsesSegments(t *testing.T) {
	workDir := t.TempDir()
	vocalPath := filepath.Join(workDir, "vocals.wav")
	testsupport.WriteFile(t, vocalPath, 1024)

	svc := whisperx.NewService(whisperx.Config{Model: "large-v3-turbo"})
	svc.WithCommandRunner(func(_ context.Context, name string, _ ...string) error {
		if name != whisperx.UVXCommand {
			t.Fatalf("unexpected command: %s", name)
		}
		if err := os.WriteFile(filepath.Join(workDir, "vocals.json"), []byte(transcriptJSON), 0o644); err != nil {
			t.Fatalf("write transcript: %v", err)
		}
		return nil
	})

	segments, err := svc.Transcribe(context.Background(), vocalPath, workDir, "en")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments after dropping empties, got %d", len(segments))
	}
	if segments[0].Text != "Hello darkness" {
		t.Fatalf("expected trimmed text, got %q", segments[0].Text)
	}
	if segments[0].Start != 0.5 || segments[0].End != 2.1 {
		t.Fatalf("unexpected timing: %+v", segments[0])
	}
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	workDir := t.TempDir()
	vocalPath := filepath.Join(workDir, "vocals.wav")
	testsupport.WriteFile(t, vocalPath, 1024)

	svc := whisperx.NewService(whisperx.Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return os.WriteFile(filepath.Join(workDir, "vocals.json"), []byte(`{"segments": []}`), 0o644)
	})

	_, err := svc.Transcribe(context.Background(), vocalPath, workDir, "")
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestTranscribeMissingTranscript(t *testing.T) {
	workDir := t.TempDir()
	vocalPath := filepath.Join(workDir, "vocals.wav")
	testsupport.WriteFile(t, vocalPath, 1024)

	svc := whisperx.NewService(whisperx.Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return nil
	})

	_, err := svc.Transcribe(context.Background(), vocalPath, workDir, "")
	if !errors.Is(err, services.ErrMissingOutput) {
		t.Fatalf("expected missing output error, got %v", err)
	}
}

func TestTranscribeToolFailure(t *testing.T) {
	workDir := t.TempDir()
	vocalPath := filepath.Join(workDir, "vocals.wav")
	testsupport.WriteFile(t, vocalPath, 1024)

	svc := whisperx.NewService(whisperx.Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})

	_, err := svc.Transcribe(context.Background(), vocalPath, workDir, "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestModelDefault(t *testing.T) {
	svc := whisperx.NewService(whisperx.Config{})
	if svc.Model() != whisperx.DefaultModel {
		t.Fatalf("unexpected default model: %s", svc.Model())
	}
}
