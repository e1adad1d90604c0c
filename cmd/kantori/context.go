package main

import (
	"log/slog"
	"strings"
	"sync"

	"kantori/internal/audio"
	"kantori/internal/config"
	"kantori/internal/logging"
	"kantori/internal/lyrics"
	"kantori/internal/pipeline"
	"kantori/internal/services/spleeter"
	"kantori/internal/services/whisperx"
	"kantori/internal/services/ytdlp"
	"kantori/internal/songs"
	"kantori/internal/uploader"
	"kantori/internal/video"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

func (c *commandContext) openStore() (*songs.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return songs.Open(cfg)
}

// newPipeline wires the full stage stack from configuration.
func (c *commandContext) newPipeline(store *songs.Store, logger *slog.Logger) (*pipeline.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	width, height := cfg.ResolutionParts()

	transformer := audio.NewTransformer(cfg.FFmpegBinary(), audio.Settings{
		TempoPercent:   cfg.Audio.TempoPercent,
		PitchSemitones: cfg.Audio.PitchSemitones,
		Normalize:      cfg.Audio.NormalizeOutput,
	}, logging.NewComponentLogger(logger, "audio"))

	renderer := video.NewRenderer(cfg.FFmpegBinary(), cfg.FFprobeBinary(), video.Settings{
		Width:              width,
		Height:             height,
		FPS:                cfg.Video.FPS,
		VisualizerType:     cfg.Video.VisualizerType,
		VisualizerColor:    cfg.Video.VisualizerColor,
		VisualizerHeight:   cfg.Video.VisualizerHeight,
		VisualizerPosition: cfg.Video.VisualizerPosition,
		BackgroundsDir:     cfg.Paths.BackgroundsDir,
	}, logging.NewComponentLogger(logger, "video"))

	synthesizer := lyrics.NewGenerator(lyrics.Style{
		Font:           cfg.Captions.Font,
		FontSize:       cfg.Captions.FontSize,
		PrimaryColor:   cfg.Captions.PrimaryColor,
		HighlightColor: cfg.Captions.HighlightColor,
		BorderSize:     cfg.Captions.BorderSize,
		ShadowDepth:    cfg.Captions.ShadowDepth,
		FadeInMillis:   cfg.Captions.FadeInMillis,
		FadeOutMillis:  cfg.Captions.FadeOutMillis,
		PlayResX:       width,
		PlayResY:       height,
	})

	publisher := uploader.New(uploader.Settings{
		Enabled:     cfg.Upload.Enabled,
		AccessToken: cfg.Upload.AccessToken,
		CategoryID:  cfg.Upload.CategoryID,
		Privacy:     cfg.Upload.Privacy,
		Tags:        cfg.Upload.Tags,
	}, nil, logging.NewComponentLogger(logger, "uploader"))

	return pipeline.New(cfg, store, logger, pipeline.Collaborators{
		Fetcher:     ytdlp.NewService(cfg.YtdlpBinary()),
		Separator:   spleeter.NewService(cfg.SpleeterBinary(), cfg.Audio.SeparationModel),
		Transformer: transformer,
		Transcriber: whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.Model,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
		}),
		Synthesizer: synthesizer,
		Renderer:    renderer,
		Uploader:    publisher,
	}), nil
}
