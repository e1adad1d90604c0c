package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kantori/internal/logging"
	"kantori/internal/lyrics"
	"kantori/internal/songs"
	"kantori/internal/stage"
)

// pipelineStep binds a store status to the work that advances a song past
// it. done reports whether the step's artifacts are already present and
// valid, which is how an interrupted song resumes mid-pipeline.
type pipelineStep struct {
	name    string
	status  songs.Status
	timeout time.Duration
	done    func(songs.Song) bool
	run     func(context.Context, songs.Song) (songs.Artifacts, error)
}

func (p *Pipeline) steps() []pipelineStep {
	return []pipelineStep{
		{
			name:    "fetch",
			status:  songs.StatusDownloading,
			timeout: secondsDuration(p.cfg.Workflow.FetchTimeout),
			done: func(s songs.Song) bool {
				return validArtifact(s.DownloadPath)
			},
			run: p.runFetch,
		},
		{
			name:    "separate",
			status:  songs.StatusSeparating,
			timeout: secondsDuration(p.cfg.Workflow.SeparateTimeout + p.cfg.Audio.TransformTimeout),
			done: func(s songs.Song) bool {
				return validArtifact(s.VocalPath) && validArtifact(s.InstrumentalPath)
			},
			run: p.runSeparate,
		},
		{
			name:    "transcribe",
			status:  songs.StatusTranscribing,
			timeout: secondsDuration(p.cfg.Transcription.Timeout),
			done: func(s songs.Song) bool {
				// A caption file that lost its required sections is as
				// useless to the renderer as a missing one.
				return validArtifact(s.CaptionsASSPath) && lyrics.Validate(s.CaptionsASSPath) == nil
			},
			run: p.runTranscribe,
		},
		{
			name:    "render",
			status:  songs.StatusGeneratingVideo,
			timeout: secondsDuration(p.cfg.Video.RenderTimeout),
			done: func(s songs.Song) bool {
				return validArtifact(s.VideoPath)
			},
			run: p.runRender,
		},
		{
			name:    "upload",
			status:  songs.StatusUploading,
			timeout: secondsDuration(p.cfg.Upload.Timeout),
			done: func(s songs.Song) bool {
				return s.UploadID != ""
			},
			run: p.runUpload,
		},
	}
}

// resumeIndex returns the earliest step whose artifacts are absent or no
// longer valid on disk. Earlier steps are skipped on this run.
func resumeIndex(steps []pipelineStep, song songs.Song) int {
	for i, step := range steps {
		if !step.done(song) {
			return i
		}
	}
	return len(steps)
}

// validArtifact reports whether a recorded artifact still points at a
// non-empty file. A recorded path whose file vanished or was truncated is
// treated as absent so the producing stage runs again.
func validArtifact(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func (p *Pipeline) workDir(song songs.Song) string {
	return filepath.Join(p.cfg.Paths.WorkspaceDir, song.VideoID)
}

func (p *Pipeline) runFetch(ctx context.Context, song songs.Song) (songs.Artifacts, error) {
	path, err := p.collab.Fetcher.Fetch(ctx, stage.FetchRequest{
		VideoID: song.VideoID,
		URL:     song.SourceURL,
		WorkDir: p.cfg.Paths.DownloadsDir,
	})
	if err != nil {
		return songs.Artifacts{}, err
	}
	return songs.Artifacts{DownloadPath: &path}, nil
}

// runSeparate splits the stems and, when configured, applies the
// instrumental transform inside the same status window.
func (p *Pipeline) runSeparate(ctx context.Context, song songs.Song) (songs.Artifacts, error) {
	workDir := p.workDir(song)
	tracks, err := p.collab.Separator.Separate(ctx, song.DownloadPath, workDir)
	if err != nil {
		return songs.Artifacts{}, err
	}
	artifacts := songs.Artifacts{
		VocalPath:        &tracks.Vocals,
		InstrumentalPath: &tracks.Instrumental,
	}

	if p.cfg.Audio.Transform && p.collab.Transformer != nil {
		modified, err := p.collab.Transformer.Transform(ctx, tracks.Instrumental,
			filepath.Join(workDir, "instrumental_modified.wav"))
		if err != nil {
			return songs.Artifacts{}, err
		}
		if modified != tracks.Instrumental {
			artifacts.ModifiedInstrumentalPath = &modified
		}
	}
	return artifacts, nil
}

// runTranscribe recognizes the lyrics and synthesizes both caption
// artifacts inside the same status window.
func (p *Pipeline) runTranscribe(ctx context.Context, song songs.Song) (songs.Artifacts, error) {
	workDir := p.workDir(song)
	segments, err := p.collab.Transcriber.Transcribe(ctx, song.VocalPath, workDir, p.cfg.Transcription.Language)
	if err != nil {
		return songs.Artifacts{}, err
	}

	assPath, err := p.collab.Synthesizer.Synthesize(ctx, segments, filepath.Join(workDir, "captions.ass"))
	if err != nil {
		return songs.Artifacts{}, err
	}
	artifacts := songs.Artifacts{CaptionsASSPath: &assPath}

	srtPath := lyrics.SRTPathFor(assPath)
	if validArtifact(srtPath) {
		artifacts.CaptionsSRTPath = &srtPath
	}
	return artifacts, nil
}

func (p *Pipeline) runRender(ctx context.Context, song songs.Song) (songs.Artifacts, error) {
	audio := song.InstrumentalPath
	if validArtifact(song.ModifiedInstrumentalPath) {
		audio = song.ModifiedInstrumentalPath
	}

	path, err := p.collab.Renderer.Render(ctx, stage.RenderRequest{
		AudioPath:      audio,
		CaptionsPath:   song.CaptionsASSPath,
		BackgroundPath: p.cfg.Video.Background,
		OutputPath:     filepath.Join(p.cfg.Paths.VideosDir, song.VideoID+".mp4"),
		Title:          song.Title,
		Artist:         song.Artist,
	})
	if err != nil {
		return songs.Artifacts{}, err
	}
	return songs.Artifacts{VideoPath: &path}, nil
}

// runUpload publishes the video, or succeeds without a remote ID when
// uploads are disabled.
func (p *Pipeline) runUpload(ctx context.Context, song songs.Song) (songs.Artifacts, error) {
	if p.collab.Uploader == nil || !p.collab.Uploader.Enabled() {
		logging.WithContext(ctx, p.logger).Info("uploads disabled, skipping publish",
			logging.String(logging.FieldEventType, "upload_skipped"))
		return songs.Artifacts{}, nil
	}

	id, err := p.collab.Uploader.Upload(ctx, stage.UploadRequest{
		VideoPath: song.VideoPath,
		Title:     song.Title,
		Artist:    song.Artist,
	})
	if err != nil {
		return songs.Artifacts{}, err
	}
	return songs.Artifacts{UploadID: &id}, nil
}

func secondsDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
