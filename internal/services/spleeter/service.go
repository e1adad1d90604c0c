package spleeter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"kantori/internal/services"
	"kantori/internal/stage"
)

const (
	stageName = "separate"

	// DefaultModel is the pretrained separation model used when the
	// configuration leaves one unset.
	DefaultModel = "spleeter:2stems"
)

// Service splits audio into vocal and instrumental stems via spleeter.
type Service struct {
	binary        string
	model         string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a spleeter service for the given binary and model.
func NewService(binary, model string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = "spleeter"
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Service{binary: binary, model: model}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Separate runs spleeter against audioPath and relocates the stems into
// workDir as vocals.wav and instrumental.wav. Spleeter's own scratch
// directory is removed once the stems are in place.
func (s *Service) Separate(ctx context.Context, audioPath, workDir string) (stage.SeparatedTracks, error) {
	var tracks stage.SeparatedTracks

	if strings.TrimSpace(audioPath) == "" {
		return tracks, services.Wrap(services.ErrInvalidInput, stageName, "spleeter", "audio path required", nil)
	}
	if strings.TrimSpace(workDir) == "" {
		return tracks, services.Wrap(services.ErrInvalidInput, stageName, "spleeter", "work dir required", nil)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return tracks, services.Wrap(services.ErrInvalidInput, stageName, "spleeter", fmt.Sprintf("audio file %s", audioPath), err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return tracks, services.Wrap(services.ErrExternalTool, stageName, "spleeter", "ensure work dir", err)
	}

	scratchDir := filepath.Join(workDir, "spleeter_out")
	args := []string{
		"separate",
		"-p", s.model,
		"-o", scratchDir,
		audioPath,
	}
	if err := s.run(ctx, s.binary, args...); err != nil {
		return tracks, services.Wrap(services.ErrExternalTool, stageName, "spleeter", "separation failed", err)
	}

	// Spleeter nests its output under a directory named after the input file.
	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	stemDir := filepath.Join(scratchDir, baseName)

	vocals := filepath.Join(workDir, "vocals.wav")
	instrumental := filepath.Join(workDir, "instrumental.wav")
	if err := relocateStem(filepath.Join(stemDir, "vocals.wav"), vocals); err != nil {
		return tracks, services.Wrap(services.ErrMissingOutput, stageName, "spleeter", "vocal stem", err)
	}
	if err := relocateStem(filepath.Join(stemDir, "accompaniment.wav"), instrumental); err != nil {
		return tracks, services.Wrap(services.ErrMissingOutput, stageName, "spleeter", "instrumental stem", err)
	}
	if err := os.RemoveAll(scratchDir); err != nil {
		return tracks, services.Wrap(services.ErrExternalTool, stageName, "spleeter", "remove scratch dir", err)
	}

	tracks.Vocals = vocals
	tracks.Instrumental = instrumental
	return tracks, nil
}

func relocateStem(source, dest string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("stem %s is empty", source)
	}
	if err := os.Rename(source, dest); err != nil {
		return fmt.Errorf("relocate stem: %w", err)
	}
	return nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
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
