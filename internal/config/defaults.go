package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:        "~/.local/share/kantori",
			DownloadsDir:   "~/.local/share/kantori/downloads",
			WorkspaceDir:   "~/.local/share/kantori/workspace",
			VideosDir:      "~/.local/share/kantori/videos",
			BackgroundsDir: "~/.local/share/kantori/backgrounds",
			LogDir:         "~/.local/share/kantori/logs",
		},
		Audio: Audio{
			SeparationModel:  "spleeter:2stems",
			Transform:        true,
			TempoPercent:     2,
			PitchSemitones:   0.5,
			NormalizeOutput:  true,
			TransformTimeout: 600,
		},
		Transcription: Transcription{
			Model:    "large-v3-turbo",
			Language: "en",
			Timeout:  3600,
		},
		Captions: Captions{
			Font:           "Arial",
			FontSize:       48,
			PrimaryColor:   "&H00FFFFFF",
			HighlightColor: "&H0000FFFF",
			BorderSize:     3,
			ShadowDepth:    1,
			FadeInMillis:   200,
			FadeOutMillis:  200,
		},
		Video: Video{
			Resolution:         "1920x1080",
			FPS:                30,
			VisualizerType:     "waveform",
			VisualizerColor:    "cyan",
			VisualizerHeight:   200,
			VisualizerPosition: "bottom",
			RenderTimeout:      3600,
		},
		Upload: Upload{
			Enabled:    false,
			CategoryID: "10",
			Privacy:    "unlisted",
			Tags:       []string{"karaoke", "lyrics", "instrumental"},
			Timeout:    1800,
		},
		Workflow: Workflow{
			FetchTimeout:     900,
			SeparateTimeout:  1800,
			AbortOnFailure:   false,
			ResumeFromStages: true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
