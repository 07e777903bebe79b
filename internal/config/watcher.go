package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce склеивает серию событий от одного сохранения файла
var reloadDebounce = 2 * time.Second

// Watch следит за YAML файлом политики и вызывает onChange с новой
// конфигурацией. Ошибочный файл логируется, прежние значения остаются.
// Блокируется до отмены ctx.
func Watch(ctx context.Context, path string, load func() (*Config, error), onChange func(*Config), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("создание наблюдателя: %w", err)
	}
	defer watcher.Close()

	// Следим за папкой: редакторы сохраняют файл через переименование
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("наблюдение за %s: %w", path, err)
	}
	target := filepath.Clean(path)
	logger.Info("Watching config file", "path", target)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(reloadDebounce)
			}
		case <-pending:
			pending = nil
			cfg, err := load()
			if err != nil {
				logger.Error("Config reload failed, keeping previous values", "path", target, "error", err)
				continue
			}
			logger.Info("Config reloaded", "path", target)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", "error", err)
		}
	}
}
