package fswatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"github.com/fsnotify/fsnotify"
)

// Origin marks notices raised by the file watcher.
const Origin = "fswatch"

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher turns writes to the persisted files into change notices. The
// store write is the notice, so Notify has nothing to send.
type Watcher struct {
	files  map[string]domain.Topic
	clock  ports.Clock
	logger *slog.Logger
}

var _ ports.ChangeTransport = (*Watcher)(nil)

// NewWatcher maps each file path to the topic its changes announce.
func NewWatcher(files map[string]domain.Topic, clock ports.Clock, logger *slog.Logger) *Watcher {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	cleaned := make(map[string]domain.Topic, len(files))
	for path, topic := range files {
		cleaned[filepath.Clean(path)] = topic
	}

	return &Watcher{files: cleaned, clock: clock, logger: logger}
}

func (w *Watcher) Notify(context.Context, domain.ChangeNotice) error {
	return nil
}

func (w *Watcher) Listen(ctx context.Context, fn func(domain.ChangeNotice)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	dirs := map[string]struct{}{}
	for path := range w.files {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("create watched directory: %w", err)
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			_ = watcher.Close()
			<-done
		})
	}

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&relevantOps == 0 {
					continue
				}
				topic, tracked := w.files[filepath.Clean(event.Name)]
				if !tracked {
					continue
				}
				fn(domain.ChangeNotice{Topic: topic, Origin: Origin, At: w.clock.Now()})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("file watcher error", slog.Any("error", err))
			}
		}
	}()

	return stop, nil
}
