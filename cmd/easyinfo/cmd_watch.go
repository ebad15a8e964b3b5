package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"easyinfo/internal/logging"
	"easyinfo/internal/persist"
)

const defaultDebounce = 200 * time.Millisecond

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir|file...]",
	Short: "Describe values again whenever they are saved",
	Long: `Watches save directories (or single files) and shows each supported file
after it is written. Leave it running next to a program that calls easyinfo.Save.

Example:
  easyinfo watch runs/today`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newValueWatcher(args, cmd.OutOrStdout(), cfg.MaxDepth, watchDebounce)
	if err != nil {
		return err
	}
	w.Start(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", strings.Join(args, ", "))

	<-ctx.Done()
	w.Stop()
	return nil
}

// valueWatcher shows saved values as their files change.
type valueWatcher struct {
	watcher  *fsnotify.Watcher
	out      io.Writer
	depth    int
	debounce time.Duration
	dirs     map[string]bool // every supported file in these is shown
	files    map[string]bool // single files watched through their directory

	mu      sync.Mutex
	pending map[string]time.Time
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

func newValueWatcher(paths []string, out io.Writer, depth int, debounce time.Duration) (*valueWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	vw := &valueWatcher{
		watcher:  watcher,
		out:      out,
		depth:    depth,
		debounce: debounce,
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, p := range paths {
		dir := filepath.Clean(p)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
			vw.files[filepath.Clean(p)] = true
		} else {
			vw.dirs[dir] = true
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logging.CLIDebug("watching %s", dir)
	}
	return vw, nil
}

// Start runs the event loop in a goroutine until ctx ends or Stop is called.
func (vw *valueWatcher) Start(ctx context.Context) {
	vw.mu.Lock()
	if vw.running {
		vw.mu.Unlock()
		return
	}
	vw.running = true
	vw.mu.Unlock()

	go vw.run(ctx)
}

// Stop ends the event loop and releases the watcher.
func (vw *valueWatcher) Stop() {
	vw.mu.Lock()
	if !vw.running {
		vw.mu.Unlock()
		vw.watcher.Close()
		return
	}
	vw.running = false
	vw.mu.Unlock()

	close(vw.stopCh)
	<-vw.doneCh

	if err := vw.watcher.Close(); err != nil {
		logger.Warn("error closing watcher", zap.Error(err))
	}
}

func (vw *valueWatcher) run(ctx context.Context) {
	defer close(vw.doneCh)

	ticker := time.NewTicker(vw.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-vw.stopCh:
			return

		case event, ok := <-vw.watcher.Events:
			if !ok {
				return
			}
			vw.handleEvent(event)

		case err, ok := <-vw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			vw.flush()
		}
	}
}

func (vw *valueWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	name := filepath.Clean(event.Name)
	// Temp files from atomic saves start with a dot.
	if strings.HasPrefix(filepath.Base(name), ".") || !persist.Supported(name) {
		return
	}
	if !vw.dirs[filepath.Dir(name)] && !vw.files[name] {
		return
	}

	vw.mu.Lock()
	vw.pending[name] = time.Now()
	vw.mu.Unlock()
}

// flush shows every file that has been quiet for the debounce period.
func (vw *valueWatcher) flush() {
	vw.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range vw.pending {
		if now.Sub(at) >= vw.debounce {
			ready = append(ready, path)
			delete(vw.pending, path)
		}
	}
	vw.mu.Unlock()

	for _, path := range ready {
		vw.show(path)
	}
}

func (vw *valueWatcher) show(path string) {
	v, err := persist.LoadAny(path, "")
	if err != nil {
		fmt.Fprintf(vw.out, "%s: %v\n", path, err)
		return
	}
	printShown(vw.out, entriesOf(path, v), vw.depth)
}
