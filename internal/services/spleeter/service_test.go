package spleeter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kantori/internal/services"
	"kantori/internal/services/spleeter"
	"kantori/internal/testsupport"
)

func TestSeparateRelocatesStems(t *testing.T) {
	workDir := t.TempDir()
	audioPath := filepath.Join(workDir, "abc123.wav")
	testsupport.WriteFile(t, audioPath, 2048)

	svc := spleeter.NewService("spleeter", "")
	svc.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		var outDir string
		for i, arg := range args {
			if arg == "-o" && i+1 < len(args) {
				outDir = args[i+1]
			}
		}
		if outDir == "" {
			t.Fatal("expected -o argument")
		}
		stemDir := filepath.Join(outDir, "abc123")
		testsupport.WriteFile(t, filepath.Join(stemDir, "vocals.wav"), 1024)
		testsupport.WriteFile(t, filepath.Join(stemDir, "accompaniment.wav"), 1024)
		return nil
	})

	tracks, err := svc.Separate(context.Background(), audioPath, workDir)
	if err != nil {
		t.Fatalf("Separate failed: %v", err)
	}
	if tracks.Vocals != filepath.Join(workDir, "vocals.wav") {
		t.Fatalf("unexpected vocals path: %s", tracks.Vocals)
	}
	if tracks.Instrumental != filepath.Join(workDir, "instrumental.wav") {
		t.Fatalf("unexpected instrumental path: %s", tracks.Instrumental)
	}
	for _, path := range []string{tracks.Vocals, tracks.Instrumental} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("stem not relocated: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(workDir, "spleeter_out")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected scratch dir to be removed")
	}
}

func TestSeparateMissingStem(t *testing.T) {
	workDir := t.TempDir()
	audioPath := filepath.Join(workDir, "abc123.wav")
	testsupport.WriteFile(t, audioPath, 2048)

	svc := spleeter.NewService("spleeter", "spleeter:2stems")
	svc.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		var outDir string
		for i, arg := range args {
			if arg == "-o" && i+1 < len(args) {
				outDir = args[i+1]
			}
		}
		stemDir := filepath.Join(outDir, "abc123")
		testsupport.WriteFile(t, filepath.Join(stemDir, "vocals.wav"), 1024)
		return nil
	})

	_, err := svc.Separate(context.Background(), audioPath, workDir)
	if !errors.Is(err, services.ErrMissingOutput) {
		t.Fatalf("expected missing output error, got %v", err)
	}
}

func TestSeparateToolFailure(t *testing.T) {
	workDir := t.TempDir()
	audioPath := filepath.Join(workDir, "abc123.wav")
	testsupport.WriteFile(t, audioPath, 2048)

	svc := spleeter.NewService("spleeter", "spleeter:2stems")
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})

	_, err := svc.Separate(context.Background(), audioPath, workDir)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestSeparateRejectsMissingAudio(t *testing.T) {
	svc := spleeter.NewService("", "")
	_, err := svc.Separate(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), t.TempDir())
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
