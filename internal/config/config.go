package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for all pipeline artifacts.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	DownloadsDir   string `toml:"downloads_dir"`
	WorkspaceDir   string `toml:"workspace_dir"`
	VideosDir      string `toml:"videos_dir"`
	BackgroundsDir string `toml:"backgrounds_dir"`
	LogDir         string `toml:"log_dir"`
}

// Audio contains separation and instrumental transformation settings.
type Audio struct {
	SeparationModel  string  `toml:"separation_model"`
	Transform        bool    `toml:"transform"`
	TempoPercent     float64 `toml:"tempo_percent"`
	PitchSemitones   float64 `toml:"pitch_semitones"`
	NormalizeOutput  bool    `toml:"normalize_output"`
	TransformTimeout int     `toml:"transform_timeout"`
}

// Transcription contains WhisperX transcription settings.
type Transcription struct {
	Model       string `toml:"model"`
	Language    string `toml:"language"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	Timeout     int    `toml:"timeout"`
}

// Captions contains karaoke caption styling settings.
type Captions struct {
	Font           string `toml:"font"`
	FontSize       int    `toml:"font_size"`
	PrimaryColor   string `toml:"primary_color"`
	HighlightColor string `toml:"highlight_color"`
	BorderSize     int    `toml:"border_size"`
	ShadowDepth    int    `toml:"shadow_depth"`
	FadeInMillis   int    `toml:"fade_in_ms"`
	FadeOutMillis  int    `toml:"fade_out_ms"`
}

// Video contains rendering settings.
type Video struct {
	Resolution         string `toml:"resolution"`
	FPS                int    `toml:"fps"`
	VisualizerType     string `toml:"visualizer_type"`
	VisualizerColor    string `toml:"visualizer_color"`
	VisualizerHeight   int    `toml:"visualizer_height"`
	VisualizerPosition string `toml:"visualizer_position"`
	Background         string `toml:"background"`
	RenderTimeout      int    `toml:"render_timeout"`
}

// Upload contains YouTube publishing settings.
type Upload struct {
	Enabled     bool     `toml:"enabled"`
	AccessToken string   `toml:"access_token"`
	CategoryID  string   `toml:"category_id"`
	Privacy     string   `toml:"privacy"`
	Tags        []string `toml:"tags"`
	Timeout     int      `toml:"timeout"`
}

// Workflow contains pipeline driver behavior.
type Workflow struct {
	FetchTimeout     int  `toml:"fetch_timeout"`
	SeparateTimeout  int  `toml:"separate_timeout"`
	AbortOnFailure   bool `toml:"abort_on_failure"`
	ResumeFromStages bool `toml:"resume_from_stages"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for kantori.
//
// Sections by subsystem:
//   - Paths: artifact and log directories
//   - Audio: source separation and instrumental transformation
//   - Transcription: WhisperX model and language
//   - Captions: ASS karaoke styling
//   - Video: rendering resolution, visualizer, background
//   - Upload: YouTube publishing
//   - Workflow: stage timeouts and batch behavior
//   - Logging: log level and format
type Config struct {
	Paths         Paths         `toml:"paths"`
	Audio         Audio         `toml:"audio"`
	Transcription Transcription `toml:"transcription"`
	Captions      Captions      `toml:"captions"`
	Video         Video         `toml:"video"`
	Upload        Upload        `toml:"upload"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kantori/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third reports whether a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kantori.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.DownloadsDir,
		c.Paths.WorkspaceDir,
		c.Paths.VideosDir,
		c.Paths.BackgroundsDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// YtdlpBinary returns the yt-dlp executable name.
func (c *Config) YtdlpBinary() string {
	return "yt-dlp"
}

// SpleeterBinary returns the spleeter executable name.
func (c *Config) SpleeterBinary() string {
	return "spleeter"
}

// ResolutionParts splits the configured resolution into width and height.
func (c *Config) ResolutionParts() (int, int) {
	return parseResolution(c.Video.Resolution)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
