package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kantori/internal/config"
	"kantori/internal/logging"
	"kantori/internal/services"
	"kantori/internal/songs"
	"kantori/internal/stage"
)

// errorMessageLimit bounds the failure detail persisted on a song record.
const errorMessageLimit = 500

// Collaborators bundles the stage implementations the pipeline drives.
type Collaborators struct {
	Fetcher     stage.Fetcher
	Separator   stage.Separator
	Transformer stage.Transformer
	Transcriber stage.Transcriber
	Synthesizer stage.Synthesizer
	Renderer    stage.Renderer
	Uploader    stage.Uploader
}

// Pipeline runs songs through the karaoke production stages, persisting
// status transitions and artifact paths in the store as it goes.
type Pipeline struct {
	cfg    *config.Config
	store  *songs.Store
	logger *slog.Logger
	collab Collaborators
}

// New constructs a pipeline. All collaborators must be non-nil except the
// uploader, which may report disabled.
func New(cfg *config.Config, store *songs.Store, logger *slog.Logger, collab Collaborators) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{cfg: cfg, store: store, logger: logger, collab: collab}
}

// Process runs a single song through every remaining stage. The in-progress
// status is persisted before each stage starts and artifacts are persisted
// after each stage succeeds, so an interrupted run can resume from the last
// completed stage. On failure the record is marked failed with a truncated
// error detail; earlier artifacts stay recorded.
func (p *Pipeline) Process(ctx context.Context, videoID string) error {
	song, err := p.store.GetByVideoID(ctx, videoID)
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	ctx = services.WithVideoID(ctx, song.VideoID)
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, p.logger)

	if song.Status == songs.StatusCompleted {
		logger.Info("song already completed",
			logging.String(logging.FieldEventType, "process_skipped"))
		return nil
	}

	steps := p.steps()
	start := 0
	if p.cfg.Workflow.ResumeFromStages {
		start = resumeIndex(steps, *song)
		if start > 0 {
			logger.Info("resuming from stage",
				logging.String(logging.FieldStage, steps[start].name),
				logging.String(logging.FieldEventType, "process_resume"))
		}
	}

	for _, step := range steps[start:] {
		if err := p.runStep(ctx, step, *song); err != nil {
			return err
		}
		// Refresh so later steps see the artifacts this one recorded.
		refreshed, getErr := p.store.GetByVideoID(ctx, song.VideoID)
		if getErr != nil {
			return getErr
		}
		song = refreshed
	}

	if err := p.store.SetStatus(ctx, song.VideoID, songs.StatusCompleted, ""); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}
	logger.Info("song completed",
		logging.String(logging.FieldEventType, "process_completed"))
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step pipelineStep, song songs.Song) error {
	stageCtx := services.WithStage(ctx, step.name)
	logger := logging.WithContext(stageCtx, p.logger)

	if err := p.store.SetStatus(stageCtx, song.VideoID, step.status, ""); err != nil {
		return fmt.Errorf("persist %s status: %w", step.status, err)
	}

	runCtx := stageCtx
	if step.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(stageCtx, step.timeout)
		defer cancel()
	}

	started := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"))

	artifacts, err := step.run(runCtx, song)
	if err != nil {
		if stageTimedOut(runCtx, err) {
			err = services.Wrap(services.ErrTimeout, step.name, "execute",
				fmt.Sprintf("stage exceeded %s deadline", step.timeout), err)
		}
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failed"),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err))
		if persistErr := p.store.SetStatus(stageCtx, song.VideoID, songs.StatusFailed, truncateError(err)); persistErr != nil {
			logger.Error("failed to persist stage failure", logging.Error(persistErr))
		}
		return err
	}

	if artifacts != (songs.Artifacts{}) {
		if err := p.store.SetArtifacts(stageCtx, song.VideoID, artifacts); err != nil {
			return fmt.Errorf("persist %s artifacts: %w", step.name, err)
		}
	}

	logger.Info("stage finished",
		logging.String(logging.FieldEventType, "stage_finished"),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

// stageTimedOut reports whether a stage failure was caused by the stage
// deadline rather than the tool itself. Exec-backed collaborators surface a
// context kill as a plain "signal: killed" exit error that does not wrap
// context.DeadlineExceeded, so the run context is consulted alongside the
// error chain.
func stageTimedOut(ctx context.Context, err error) bool {
	if errors.Is(err, services.ErrTimeout) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errors.Is(context.Cause(ctx), context.DeadlineExceeded)
}

// BatchResult reports the outcome of a batch run.
type BatchResult struct {
	Succeeded []string
	Failed    []string
}

// RunPending processes every pending song in turn. Individual failures do
// not fail the batch: the failed song keeps its recorded error and the run
// moves on, unless abort-on-failure is configured.
func (p *Pipeline) RunPending(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	pending, err := p.store.ListByStatus(ctx, songs.StatusPending)
	if err != nil {
		return result, err
	}
	p.logger.Info("batch run started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("pending", len(pending)))

	for _, song := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err := p.Process(ctx, song.VideoID); err != nil {
			if errors.Is(err, context.Canceled) {
				return result, err
			}
			result.Failed = append(result.Failed, song.VideoID)
			if p.cfg.Workflow.AbortOnFailure {
				p.logger.Warn("aborting batch after failure",
					logging.String(logging.FieldVideoID, song.VideoID),
					logging.String(logging.FieldEventType, "batch_aborted"))
				return result, nil
			}
			continue
		}
		result.Succeeded = append(result.Succeeded, song.VideoID)
	}

	p.logger.Info("batch run finished",
		logging.String(logging.FieldEventType, "batch_finished"),
		logging.Int("succeeded", len(result.Succeeded)),
		logging.Int("failed", len(result.Failed)))
	return result, nil
}

// truncateError bounds the persisted failure detail so a noisy tool dump
// cannot bloat the store.
func truncateError(err error) string {
	msg := err.Error()
	runes := []rune(msg)
	if len(runes) <= errorMessageLimit {
		return msg
	}
	return string(runes[:errorMessageLimit])
}
