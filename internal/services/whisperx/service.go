package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"kantori/internal/services"
	"kantori/internal/stage"
)

const stageName = "transcribe"

// Service provides WhisperX transcription of isolated vocal tracks.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Transcribe runs WhisperX against the vocal track and returns the timed
// lyric segments parsed from its JSON output. An empty segment list is an
// invalid-input failure: a karaoke track with no recognizable lyrics cannot
// proceed to caption synthesis.
func (s *Service) Transcribe(ctx context.Context, vocalPath, workDir, language string) ([]stage.Segment, error) {
	if strings.TrimSpace(vocalPath) == "" {
		return nil, services.Wrap(services.ErrInvalidInput, stageName, "whisperx", "vocal path required", nil)
	}
	if strings.TrimSpace(workDir) == "" {
		workDir = filepath.Dir(vocalPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "whisperx", "ensure work dir", err)
	}

	args := s.buildArgs(vocalPath, workDir, language)
	if err := s.run(ctx, UVXCommand, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "whisperx", "transcription failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(vocalPath), filepath.Ext(vocalPath))
	jsonPath := filepath.Join(workDir, baseName+".json")
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrMissingOutput, stageName, "whisperx", fmt.Sprintf("expected transcript %s", jsonPath), err)
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrInvalidInput, stageName, "whisperx", "no lyrics recognized in vocal track", nil)
	}
	return segments, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 24)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	model := s.cfg.Model
	if model == "" {
		model = DefaultModel
	}

	args = append(args,
		"whisperx",
		source,
		"--model", model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
	)

	if lang := strings.TrimSpace(language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	// A killed process can leave grandchildren holding the output pipe open;
	// WaitDelay bounds how long CombinedOutput waits past cancellation.
	cmd.WaitDelay = 5 * time.Second

	// Torch 2.6 changed torch.load default to weights_only=true, breaking
	// WhisperX checkpoint loading. Force the legacy behavior.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// whisperXPayload is the JSON structure from WhisperX output.
type whisperXPayload struct {
	Segments []stage.Segment `json:"segments"`
}

// LoadSegments loads timed segments from a WhisperX JSON file. Segments
// with empty text are dropped.
func LoadSegments(jsonPath string) ([]stage.Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	segments := make([]stage.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		segments = append(segments, seg)
	}
	return segments, nil
}
