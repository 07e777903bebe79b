package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	reloadDebounce = 50 * time.Millisecond
	t.Cleanup(func() { reloadDebounce = 2 * time.Second })

	path := filepath.Join(t.TempDir(), "planengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nutrition:\n  calorie_floor: 1200\n"), 0o600))

	loader := func() (*Config, error) {
		return load(envFrom(map[string]string{"CONFIG_FILE": path}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, loader, func(c *Config) { changed <- c }, nil)
	}()

	var got *Config
	floor := 1300
	require.Eventually(t, func() bool {
		select {
		case got = <-changed:
			return got.Nutrition.CalorieFloor == floor
		default:
		}
		_ = os.WriteFile(path, []byte(fmt.Sprintf("nutrition:\n  calorie_floor: %d\n", floor)), 0o600)
		return false
	}, 5*time.Second, 200*time.Millisecond)
	assert.Equal(t, 1300, got.Nutrition.CalorieFloor)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent/dir/planengine.yaml", Load, func(*Config) {}, nil)
	assert.Error(t, err)
}
