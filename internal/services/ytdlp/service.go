package ytdlp

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

const stageName = "fetch"

// Service downloads source audio via yt-dlp.
type Service struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a yt-dlp service using the given binary name.
func NewService(binary string) *Service {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	return &Service{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Fetch downloads the recording identified by req and extracts its audio as
// a WAV file inside req.WorkDir. It returns the path to the extracted file.
func (s *Service) Fetch(ctx context.Context, req stage.FetchRequest) (string, error) {
	if strings.TrimSpace(req.VideoID) == "" {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "download", "video id required", nil)
	}
	if strings.TrimSpace(req.URL) == "" {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "download", "source url required", nil)
	}
	if strings.TrimSpace(req.WorkDir) == "" {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "download", "work dir required", nil)
	}
	if err := os.MkdirAll(req.WorkDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "download", "ensure work dir", err)
	}

	outputPath := filepath.Join(req.WorkDir, req.VideoID+".wav")
	template := filepath.Join(req.WorkDir, req.VideoID+".%(ext)s")
	args := []string{
		"-x",
		"--audio-format", "wav",
		"--audio-quality", "0",
		"--no-playlist",
		"-o", template,
		req.URL,
	}

	if err := s.run(ctx, s.binary, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "download", "yt-dlp failed", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", services.Wrap(services.ErrMissingOutput, stageName, "download", fmt.Sprintf("expected audio file %s", outputPath), err)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrMissingOutput, stageName, "download", fmt.Sprintf("audio file %s is empty", outputPath), nil)
	}
	return outputPath, nil
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
