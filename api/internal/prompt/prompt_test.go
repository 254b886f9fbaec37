package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"jewelry-identifier/api/internal/jewel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoadDefault(t *testing.T) {
	s, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, jewel.Prompt, s.Prompt())
	assert.NoError(t, s.Watch(context.Background()))
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jewelry.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Describe the ring.\n"), 0o644))

	s, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Describe the ring.", s.Prompt())
	assert.Equal(t, path, s.Path())
}

func TestLoadOverrideErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.txt"), nil)
	assert.Error(t, err)

	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte(" \n"), 0o644))
	_, err = Load(blank, nil)
	assert.Error(t, err)
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))
	s, err := Load(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	assert.Error(t, s.Reload())
	assert.Equal(t, "first", s.Prompt())
}

func TestWatchPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))
	s, err := Load(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// the watcher may not be registered yet; keep rewriting until it notices
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("second"), 0o644)
		return s.Prompt() == "second"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
