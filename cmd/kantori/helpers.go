package main

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

// parseVideoID extracts the video identifier from a YouTube URL, or accepts
// a bare identifier.
func parseVideoID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty source")
	}

	if !strings.Contains(trimmed, "/") && videoIDPattern.MatchString(trimmed) {
		return trimmed, nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}

	switch {
	case strings.HasSuffix(parsed.Host, "youtu.be"):
		id := strings.Trim(parsed.Path, "/")
		if videoIDPattern.MatchString(id) {
			return id, nil
		}
	case strings.Contains(parsed.Host, "youtube.com"):
		if id := parsed.Query().Get("v"); videoIDPattern.MatchString(id) {
			return id, nil
		}
		if strings.HasPrefix(parsed.Path, "/shorts/") {
			id := strings.Trim(strings.TrimPrefix(parsed.Path, "/shorts/"), "/")
			if videoIDPattern.MatchString(id) {
				return id, nil
			}
		}
	}

	return "", fmt.Errorf("could not extract a video id from %q", raw)
}

// sourceURLFor normalizes a bare video id into a watch URL; full URLs pass
// through untouched.
func sourceURLFor(raw, videoID string) string {
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://www.youtube.com/watch?v=" + videoID
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
