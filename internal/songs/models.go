package songs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a song. Each in-progress value is the
// marker persisted before the matching stage runs; completed and failed are
// terminal.
type Status string

const (
	StatusPending         Status = "pending"
	StatusDownloading     Status = "downloading"
	StatusSeparating      Status = "separating"
	StatusTranscribing    Status = "transcribing"
	StatusGeneratingVideo Status = "generating_video"
	StatusUploading       Status = "uploading"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusSeparating,
	StatusTranscribing,
	StatusGeneratingVideo,
	StatusUploading,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusDownloading:     {},
	StatusSeparating:      {},
	StatusTranscribing:    {},
	StatusGeneratingVideo: {},
	StatusUploading:       {},
}

// Song is one unit of work persisted in SQLite.
type Song struct {
	ID                       int64
	VideoID                  string
	Title                    string
	Artist                   string
	SourceURL                string
	Status                   Status
	ErrorMessage             string
	CreatedAt                time.Time
	UpdatedAt                time.Time
	DownloadPath             string
	VocalPath                string
	InstrumentalPath         string
	ModifiedInstrumentalPath string
	CaptionsSRTPath          string
	CaptionsASSPath          string
	VideoPath                string
	UploadID                 string
}

// Artifacts enumerates every artifact column as an optional field. A nil
// field leaves the stored value untouched; a non-nil field overwrites it.
type Artifacts struct {
	DownloadPath             *string
	VocalPath                *string
	InstrumentalPath         *string
	ModifiedInstrumentalPath *string
	CaptionsSRTPath          *string
	CaptionsASSPath          *string
	VideoPath                *string
	UploadID                 *string
}

// Stats aggregates record counts for operator display.
type Stats struct {
	Total    int
	ByStatus map[Status]int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether no further automatic transition occurs.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsProcessing reports whether the status reflects an in-flight stage.
func (s Status) IsProcessing() bool {
	_, ok := processingStatuses[s]
	return ok
}

// ArtifactFor returns the artifact path the given in-progress status
// produces, or empty when the status records none.
func (s *Song) ArtifactFor(status Status) string {
	switch status {
	case StatusDownloading:
		return s.DownloadPath
	case StatusSeparating:
		return s.InstrumentalPath
	case StatusTranscribing:
		return s.CaptionsASSPath
	case StatusGeneratingVideo:
		return s.VideoPath
	case StatusUploading:
		return s.UploadID
	default:
		return ""
	}
}

// DisplayLabel renders a status for tables and progress lines.
func (s Status) DisplayLabel() string {
	parts := strings.Fields(strings.ReplaceAll(string(s), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
