package testsupport

import (
	"testing"

	"kantori/internal/config"
	"kantori/internal/songs"
)

// MustOpenStore opens a songs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *songs.Store {
	t.Helper()

	store, err := songs.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
