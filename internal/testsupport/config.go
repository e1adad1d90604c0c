package testsupport

import (
	"path/filepath"
	"testing"

	"kantori/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.DownloadsDir = filepath.Join(base, "downloads")
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.VideosDir = filepath.Join(base, "videos")
	cfg.Paths.BackgroundsDir = filepath.Join(base, "backgrounds")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	return &cfg
}
