package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that would otherwise surface as
// confusing mid-pipeline failures.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}

	width, height := parseResolution(c.Video.Resolution)
	if width <= 0 || height <= 0 {
		problems = append(problems, fmt.Sprintf("video.resolution %q must look like 1920x1080", c.Video.Resolution))
	}
	if c.Video.FPS <= 0 {
		problems = append(problems, "video.fps must be positive")
	}
	switch c.Video.VisualizerType {
	case "waveform", "spectrum":
	default:
		problems = append(problems, fmt.Sprintf("video.visualizer_type %q must be waveform or spectrum", c.Video.VisualizerType))
	}
	switch c.Video.VisualizerPosition {
	case "top", "bottom", "center":
	default:
		problems = append(problems, fmt.Sprintf("video.visualizer_position %q must be top, bottom, or center", c.Video.VisualizerPosition))
	}

	if c.Audio.TempoPercent < 0 || c.Audio.TempoPercent > 3 {
		problems = append(problems, "audio.tempo_percent must be between 0 and 3")
	}
	if c.Audio.PitchSemitones < 0 || c.Audio.PitchSemitones > 1 {
		problems = append(problems, "audio.pitch_semitones must be between 0 and 1")
	}

	if c.Upload.Enabled && c.Upload.AccessToken == "" {
		problems = append(problems, "upload.access_token is required when upload.enabled is true")
	}
	if c.Upload.Enabled {
		switch c.Upload.Privacy {
		case "public", "unlisted", "private":
		default:
			problems = append(problems, fmt.Sprintf("upload.privacy %q must be public, unlisted, or private", c.Upload.Privacy))
		}
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
