package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_Validation(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, Watch(ctx, "", func(*Config) {}))
	assert.Error(t, Watch(ctx, filepath.Join(t.TempDir(), FileName), nil))
}

func TestWatch_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, SaveAs(path, Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()

	// the watcher has no ready signal, keep writing until a reload lands
	var got *Config
	deadline := time.After(5 * time.Second)
	for got == nil {
		c := Default()
		c.Engine.TopN = 3
		require.NoError(t, SaveAs(path, c))
		select {
		case got = <-changes:
		case <-time.After(500 * time.Millisecond):
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
	assert.Equal(t, 3, got.Engine.TopN)

	time.Sleep(watchDebounce * 2)
	for len(changes) > 0 {
		<-changes
	}

	// invalid content is skipped
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -1\n"), 0600))
	select {
	case c := <-changes:
		t.Fatalf("unexpected reload: %+v", c.Server)
	case <-time.After(watchDebounce * 3):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
