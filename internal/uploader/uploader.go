package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"kantori/internal/logging"
	"kantori/internal/services"
	"kantori/internal/stage"
)

const (
	stageName = "upload"

	resumableEndpoint = "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"

	// musicCategoryID is YouTube's category for music content.
	musicCategoryID = "10"
)

// Settings configure the YouTube uploader.
type Settings struct {
	Enabled     bool
	AccessToken string
	CategoryID  string
	Privacy     string
	Tags        []string
}

// Uploader publishes rendered karaoke videos to YouTube using the
// resumable upload protocol.
type Uploader struct {
	settings Settings
	client   *http.Client
	logger   *slog.Logger
	endpoint string
	attempts uint
	delay    time.Duration
}

// New creates an uploader. A nil client uses a default with a generous
// timeout suitable for large video payloads.
func New(settings Settings, client *http.Client, logger *slog.Logger) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Minute}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.CategoryID == "" {
		settings.CategoryID = musicCategoryID
	}
	if settings.Privacy == "" {
		settings.Privacy = "private"
	}
	return &Uploader{
		settings: settings,
		client:   client,
		logger:   logger,
		endpoint: resumableEndpoint,
		attempts: 4,
		delay:    2 * time.Second,
	}
}

// WithEndpoint overrides the upload session endpoint (for testing).
func (u *Uploader) WithEndpoint(endpoint string) {
	u.endpoint = endpoint
}

// Enabled reports whether uploads are configured.
func (u *Uploader) Enabled() bool {
	return u.settings.Enabled && strings.TrimSpace(u.settings.AccessToken) != ""
}

// Upload publishes the video and returns the remote video ID. Transient
// failures (5xx, 429, network errors) are retried with backoff before the
// stage fails.
func (u *Uploader) Upload(ctx context.Context, req stage.UploadRequest) (string, error) {
	if !u.Enabled() {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "publish", "uploads are not enabled", nil)
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "publish", "video path required", nil)
	}
	info, err := os.Stat(req.VideoPath)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "publish", fmt.Sprintf("video file %s", req.VideoPath), err)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrInvalidInput, stageName, "publish", fmt.Sprintf("video file %s is empty", req.VideoPath), nil)
	}

	var videoID string
	err = retry.Do(
		func() error {
			id, attemptErr := u.attempt(ctx, req, info.Size())
			if attemptErr != nil {
				return attemptErr
			}
			videoID = id
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(u.attempts),
		retry.Delay(u.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			u.logger.Warn("upload attempt failed, retrying",
				logging.Int("attempt", int(n)+1),
				logging.Error(err))
		}),
	)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageName, "publish", "youtube upload failed", err)
	}
	return videoID, nil
}

// attempt performs one full resumable upload: create the session, then
// stream the video bytes to the session URL.
func (u *Uploader) attempt(ctx context.Context, req stage.UploadRequest, size int64) (string, error) {
	sessionURL, err := u.createSession(ctx, req, size)
	if err != nil {
		return "", err
	}

	file, err := os.Open(req.VideoPath)
	if err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("open video: %w", err))
	}
	defer file.Close()

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, file)
	if err != nil {
		return "", retry.Unrecoverable(err)
	}
	put.ContentLength = size
	put.Header.Set("Content-Type", "video/mp4")

	resp, err := u.client.Do(put)
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := statusError("upload", resp.StatusCode, body); err != nil {
		return "", err
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("parse upload response: %w", err))
	}
	if payload.ID == "" {
		return "", retry.Unrecoverable(fmt.Errorf("upload response carries no video id"))
	}
	return payload.ID, nil
}

func (u *Uploader) createSession(ctx context.Context, req stage.UploadRequest, size int64) (string, error) {
	title := strings.TrimSpace(req.Title)
	if req.Artist != "" {
		title = fmt.Sprintf("%s - %s (Karaoke)", req.Artist, req.Title)
	} else if title != "" {
		title = title + " (Karaoke)"
	}

	metadata := map[string]any{
		"snippet": map[string]any{
			"title":       title,
			"description": "Karaoke version with synchronized lyrics.",
			"tags":        u.settings.Tags,
			"categoryId":  u.settings.CategoryID,
		},
		"status": map[string]any{
			"privacyStatus":           u.settings.Privacy,
			"selfDeclaredMadeForKids": false,
		},
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return "", retry.Unrecoverable(err)
	}

	post, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", retry.Unrecoverable(err)
	}
	post.Header.Set("Authorization", "Bearer "+u.settings.AccessToken)
	post.Header.Set("Content-Type", "application/json; charset=UTF-8")
	post.Header.Set("X-Upload-Content-Type", "video/mp4")
	post.Header.Set("X-Upload-Content-Length", fmt.Sprintf("%d", size))

	resp, err := u.client.Do(post)
	if err != nil {
		return "", fmt.Errorf("create upload session: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := statusError("create session", resp.StatusCode, body); err != nil {
		return "", err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", retry.Unrecoverable(fmt.Errorf("upload session response carries no location"))
	}
	return location, nil
}

// httpStatusError distinguishes retryable HTTP failures from permanent ones.
type httpStatusError struct {
	operation string
	status    int
	detail    string
}

func (e *httpStatusError) Error() string {
	if e.detail == "" {
		return fmt.Sprintf("%s: status %d", e.operation, e.status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.operation, e.status, e.detail)
}

func statusError(operation string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	err := &httpStatusError{
		operation: operation,
		status:    status,
		detail:    strings.TrimSpace(string(body)),
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return err
	}
	// Auth and quota problems will not heal on retry.
	return retry.Unrecoverable(err)
}

func isTransient(err error) bool {
	return retry.IsRecoverable(err)
}
