package songs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"kantori/internal/config"
)

// Store manages song persistence backed by SQLite. Writes to a single record
// are serialized by the database; writers to distinct records do not block
// each other beyond SQLite's own locking.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the song database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "kantori.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the backing database file location.
func (s *Store) Path() string {
	return s.path
}

// Add registers a new song with status pending. Returns ErrDuplicate when
// the video id is already known; the existing record is not modified.
func (s *Store) Add(ctx context.Context, videoID, title, artist, sourceURL string) (*Song, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, errors.New("video id is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("title is required")
	}
	if strings.TrimSpace(sourceURL) == "" {
		return nil, errors.New("source url is required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO songs (video_id, title, artist, source_url, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		videoID,
		title,
		nullableString(artist),
		sourceURL,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, videoID)
		}
		return nil, fmt.Errorf("insert song: %w", err)
	}

	return s.GetByVideoID(ctx, videoID)
}

// GetByVideoID fetches a song by its external identifier.
func (s *Store) GetByVideoID(ctx context.Context, videoID string) (*Song, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE video_id = ?`, videoID)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

// Exists reports whether a song with the given video id is registered.
func (s *Store) Exists(ctx context.Context, videoID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM songs WHERE video_id = ?`, videoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check song exists: %w", err)
	}
	return true, nil
}

// SetStatus updates a song's status and refreshes updated_at. The error
// message is cleared on any transition unless the caller supplies one; a
// failed status normally carries the failure detail.
func (s *Store) SetStatus(ctx context.Context, videoID string, status Status, errorMessage string) error {
	if _, ok := statusSet[status]; !ok {
		return fmt.Errorf("unknown status %q", status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE songs SET status = ?, error_message = ?, updated_at = ? WHERE video_id = ?`,
		status,
		nullableString(errorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		videoID,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(res, videoID)
}

// SetArtifacts merges the supplied artifact paths into the record. Only
// non-nil fields are written; previously recorded paths are never blanked by
// omission.
func (s *Store) SetArtifacts(ctx context.Context, videoID string, artifacts Artifacts) error {
	assignments := make([]string, 0, 9)
	args := make([]any, 0, 10)

	appendField := func(column string, value *string) {
		if value == nil {
			return
		}
		assignments = append(assignments, column+" = ?")
		args = append(args, nullableString(*value))
	}

	appendField("download_path", artifacts.DownloadPath)
	appendField("vocal_path", artifacts.VocalPath)
	appendField("instrumental_path", artifacts.InstrumentalPath)
	appendField("modified_instrumental_path", artifacts.ModifiedInstrumentalPath)
	appendField("captions_srt_path", artifacts.CaptionsSRTPath)
	appendField("captions_ass_path", artifacts.CaptionsASSPath)
	appendField("video_path", artifacts.VideoPath)
	appendField("upload_id", artifacts.UploadID)

	if len(assignments) == 0 {
		return nil
	}

	assignments = append(assignments, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, videoID)

	query := `UPDATE songs SET ` + strings.Join(assignments, ", ") + ` WHERE video_id = ?`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update artifacts: %w", err)
	}
	return requireRow(res, videoID)
}

// ListByStatus returns songs with the given status, most recently created
// first.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Song, error) {
	return s.List(ctx, status)
}

// List returns songs filtered by status set (or every song when no status is
// provided), most recently created first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Song, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + songColumns + ` FROM songs`
	orderClause := ` ORDER BY created_at DESC, id DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	var result []*Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, song)
	}
	return result, rows.Err()
}

// Stats returns a count of songs grouped by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM songs GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("song stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByStatus: make(map[Status]int)}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

// RetryFailed moves failed songs back to pending for reprocessing, clearing
// the error message but keeping recorded artifact paths. With no ids every
// failed song is reset.
func (s *Store) RetryFailed(ctx context.Context, videoIDs ...string) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if len(videoIDs) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE songs SET status = ?, error_message = NULL, updated_at = ? WHERE status = ?`,
			StatusPending,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed songs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(videoIDs))
	args := make([]any, 0, len(videoIDs)+3)
	args = append(args, StatusPending, timestamp, StatusFailed)
	for _, id := range videoIDs {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE songs SET status = ?, error_message = NULL, updated_at = ?
         WHERE status = ? AND video_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected songs: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes failed songs from the store.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes a song by video id.
func (s *Store) Remove(ctx context.Context, videoID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE video_id = ?`, videoID)
	if err != nil {
		return false, fmt.Errorf("delete song: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const songColumns = "id, video_id, title, artist, source_url, status, error_message, created_at, updated_at, download_path, vocal_path, instrumental_path, modified_instrumental_path, captions_srt_path, captions_ass_path, video_path, upload_id"

func scanSong(scanner interface{ Scan(dest ...any) error }) (*Song, error) {
	var (
		id             int64
		videoID        string
		title          string
		artist         sql.NullString
		sourceURL      string
		statusStr      string
		errorMessage   sql.NullString
		createdRaw     string
		updatedRaw     string
		downloadPath   sql.NullString
		vocalPath      sql.NullString
		instrumental   sql.NullString
		modified       sql.NullString
		captionsSRT    sql.NullString
		captionsASS    sql.NullString
		videoPath      sql.NullString
		uploadID       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&videoID,
		&title,
		&artist,
		&sourceURL,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&downloadPath,
		&vocalPath,
		&instrumental,
		&modified,
		&captionsSRT,
		&captionsASS,
		&videoPath,
		&uploadID,
	); err != nil {
		return nil, err
	}

	song := &Song{
		ID:                       id,
		VideoID:                  videoID,
		Title:                    title,
		Artist:                   artist.String,
		SourceURL:                sourceURL,
		Status:                   Status(statusStr),
		ErrorMessage:             errorMessage.String,
		DownloadPath:             downloadPath.String,
		VocalPath:                vocalPath.String,
		InstrumentalPath:         instrumental.String,
		ModifiedInstrumentalPath: modified.String,
		CaptionsSRTPath:          captionsSRT.String,
		CaptionsASSPath:          captionsASS.String,
		VideoPath:                videoPath.String,
		UploadID:                 uploadID.String,
	}

	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		song.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		song.UpdatedAt = updated
	}
	return song, nil
}

func requireRow(res sql.Result, videoID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
