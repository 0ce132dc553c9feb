package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变化。阈值在运行期保持只读，
// 因此回调只用于提示需要重启，不会修改在线引擎。
type Watcher struct {
	Path     string
	Cooldown time.Duration // 两次回调之间的最小间隔

	mu       sync.Mutex
	lastFire time.Time
	watcher  *fsnotify.Watcher
}

// Start 开始监听；回调收到重新加载后的配置（加载失败时不回调）。
// 阻塞直至 ctx 结束。
func (w *Watcher) Start(ctx context.Context, onChange func(AppConfig)) error {
	if w.Cooldown <= 0 {
		w.Cooldown = 5 * time.Second
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	w.watcher = fw
	if err := fw.Add(w.Path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				w.handleChange(onChange)
			}
		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			// 记录错误但继续监听
		}
	}
}

func (w *Watcher) handleChange(onChange func(AppConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if time.Since(w.lastFire) < w.Cooldown {
		return
	}
	cfg, err := LoadWithEnvOverrides(w.Path)
	if err != nil {
		return
	}
	w.lastFire = time.Now()
	if onChange != nil {
		onChange(cfg)
	}
}
