package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"kantori/internal/services"
	"kantori/internal/stage"
	"kantori/internal/testsupport"
)

// testServer fakes the two-step resumable upload: a session POST answered
// with a Location header, then a PUT of the video bytes.
func testServer(t *testing.T, sessionStatus func(call int32) int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var sessionCalls atomic.Int32
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		call := sessionCalls.Add(1)
		status := sessionStatus(call)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("expected bearer token on session request")
		}
		w.Header().Set("Location", server.URL+"/put")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/put", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Error("expected video bytes in PUT body")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "yt-video-1"})
	})
	return server, &sessionCalls
}

func testUploader(server *httptest.Server) *Uploader {
	u := New(Settings{
		Enabled:     true,
		AccessToken: "token-1",
		Privacy:     "unlisted",
		Tags:        []string{"karaoke"},
	}, server.Client(), nil)
	u.attempts = 3
	u.delay = 0
	return u
}

func uploadRequest(t *testing.T) stage.UploadRequest {
	t.Helper()
	videoPath := filepath.Join(t.TempDir(), "final.mp4")
	testsupport.WriteFile(t, videoPath, 2048)
	return stage.UploadRequest{VideoPath: videoPath, Title: "Song", Artist: "Artist"}
}

func withEndpoint(_ *testing.T, u *Uploader, server *httptest.Server) {
	u.WithEndpoint(server.URL + "/session")
}

func TestUploadSuccess(t *testing.T) {
	server, _ := testServer(t, func(int32) int { return http.StatusOK })
	u := testUploader(server)
	withEndpoint(t, u, server)

	id, err := u.Upload(context.Background(), uploadRequest(t))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if id != "yt-video-1" {
		t.Fatalf("unexpected video id: %s", id)
	}
}

func TestUploadRetriesTransientFailures(t *testing.T) {
	server, calls := testServer(t, func(call int32) int {
		if call < 3 {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	})
	u := testUploader(server)
	withEndpoint(t, u, server)

	id, err := u.Upload(context.Background(), uploadRequest(t))
	if err != nil {
		t.Fatalf("Upload failed after retries: %v", err)
	}
	if id != "yt-video-1" {
		t.Fatalf("unexpected video id: %s", id)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 session attempts, got %d", calls.Load())
	}
}

func TestUploadDoesNotRetryAuthFailure(t *testing.T) {
	server, calls := testServer(t, func(int32) int { return http.StatusUnauthorized })
	u := testUploader(server)
	withEndpoint(t, u, server)

	_, err := u.Upload(context.Background(), uploadRequest(t))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("auth failure must not retry, got %d attempts", calls.Load())
	}
}

func TestUploadExhaustsRetries(t *testing.T) {
	server, calls := testServer(t, func(int32) int { return http.StatusInternalServerError })
	u := testUploader(server)
	withEndpoint(t, u, server)

	_, err := u.Upload(context.Background(), uploadRequest(t))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestUploadDisabled(t *testing.T) {
	u := New(Settings{}, nil, nil)
	if u.Enabled() {
		t.Fatal("expected disabled uploader")
	}
	_, err := u.Upload(context.Background(), stage.UploadRequest{VideoPath: "/tmp/x.mp4"})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestEnabledRequiresToken(t *testing.T) {
	u := New(Settings{Enabled: true}, nil, nil)
	if u.Enabled() {
		t.Fatal("enabled without a token must report disabled")
	}
}

func TestUploadMissingVideo(t *testing.T) {
	server, _ := testServer(t, func(int32) int { return http.StatusOK })
	u := testUploader(server)
	withEndpoint(t, u, server)

	_, err := u.Upload(context.Background(), stage.UploadRequest{VideoPath: filepath.Join(t.TempDir(), "nope.mp4")})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
