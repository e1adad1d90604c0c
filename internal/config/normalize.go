package config

import (
	"strconv"
	"strings"
)

// normalize expands every path field and canonicalizes enum-like values.
func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.DataDir,
		&c.Paths.DownloadsDir,
		&c.Paths.WorkspaceDir,
		&c.Paths.VideosDir,
		&c.Paths.BackgroundsDir,
		&c.Paths.LogDir,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	if strings.TrimSpace(c.Video.Background) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Video.Background))
		if err != nil {
			return err
		}
		c.Video.Background = expanded
	}

	c.Audio.SeparationModel = strings.TrimSpace(c.Audio.SeparationModel)
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	c.Video.Resolution = strings.TrimSpace(c.Video.Resolution)
	c.Video.VisualizerType = strings.ToLower(strings.TrimSpace(c.Video.VisualizerType))
	c.Video.VisualizerPosition = strings.ToLower(strings.TrimSpace(c.Video.VisualizerPosition))
	c.Upload.Privacy = strings.ToLower(strings.TrimSpace(c.Upload.Privacy))
	c.Upload.AccessToken = strings.TrimSpace(c.Upload.AccessToken)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	return nil
}

func parseResolution(value string) (int, int) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(value)), "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0
	}
	return width, height
}
