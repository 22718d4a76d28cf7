// Package ingest watches a directory for dropped lecture recordings and
// turns each one into a markdown notes file, without any HTTP involvement.
// It exists for batch workflows where recordings land on disk via scp,
// network shares or a recording appliance.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrWong99/lectern/internal/generate"
	"github.com/MrWong99/lectern/internal/pipeline"
	"github.com/MrWong99/lectern/pkg/audio"
)

const (
	// defaultSettleDelay is how long to wait after a create event before
	// reading the file, so slow writers can finish flushing.
	defaultSettleDelay = 500 * time.Millisecond

	// defaultMaxConcurrent bounds how many recordings are processed at once.
	defaultMaxConcurrent = 2
)

// Watcher monitors a directory and processes every new audio file it sees.
// For each recording it writes a <name>.md file into the output directory
// containing the transcript and generated notes. Files whose output already
// exists are skipped, so restarting the watcher does not reprocess a backlog.
type Watcher struct {
	watchDir    string
	outDir      string
	processor   *pipeline.Processor
	generator   generate.Generator
	settleDelay time.Duration
	sem         chan struct{}
	wg          sync.WaitGroup
}

// Option configures a [Watcher].
type Option func(*Watcher)

// WithSettleDelay overrides the pause between noticing a file and reading it.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settleDelay = d
		}
	}
}

// WithMaxConcurrent overrides how many recordings may be processed in parallel.
func WithMaxConcurrent(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.sem = make(chan struct{}, n)
		}
	}
}

// New creates a directory watcher. outDir may equal watchDir; generated
// markdown never collides with audio because of the .md extension.
func New(watchDir, outDir string, processor *pipeline.Processor, generator generate.Generator, opts ...Option) *Watcher {
	w := &Watcher{
		watchDir:    watchDir,
		outDir:      outDir,
		processor:   processor,
		generator:   generator,
		settleDelay: defaultSettleDelay,
		sem:         make(chan struct{}, defaultMaxConcurrent),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the directory until ctx is cancelled. It first sweeps files
// already present, then reacts to create events. In-flight recordings are
// drained before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("ingest: create output dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ingest: create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.watchDir); err != nil {
		return fmt.Errorf("ingest: watch %s: %w", w.watchDir, err)
	}

	slog.Info("ingest watcher started",
		"watch_dir", w.watchDir,
		"output_dir", w.outDir,
		"formats", audio.SupportedExtensions)

	w.sweepExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			slog.Info("ingest watcher stopped")
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				w.wg.Wait()
				return errors.New("ingest: events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !audio.IsSupportedExtension(filepath.Ext(event.Name)) {
				slog.Debug("ignoring non-audio file", "path", event.Name)
				continue
			}
			w.dispatch(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				w.wg.Wait()
				return errors.New("ingest: errors channel closed")
			}
			slog.Error("ingest watcher error", "error", err)
		}
	}
}

// sweepExisting processes audio files already in the watch directory that
// have no output yet.
func (w *Watcher) sweepExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.watchDir)
	if err != nil {
		slog.Error("ingest sweep failed", "dir", w.watchDir, "error", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !audio.IsSupportedExtension(filepath.Ext(e.Name())) {
			continue
		}
		w.dispatch(ctx, filepath.Join(w.watchDir, e.Name()))
	}
}

// dispatch processes path on a worker goroutine, respecting the concurrency
// limit. If ctx is cancelled while waiting for a slot the file is dropped;
// the next sweep picks it up.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	if w.outputExists(path) {
		slog.Debug("output already exists, skipping", "path", path)
		return
	}

	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.sem }()

		time.Sleep(w.settleDelay)
		if err := w.processFile(ctx, path); err != nil {
			slog.Error("ingest processing failed", "path", path, "error", err)
		}
	}()
}

// processFile runs one recording through the transcription pipeline and
// writes the markdown result. A transcript too short to summarize still
// produces a file so the recording is not retried forever.
func (w *Watcher) processFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	result, err := w.processor.Process(ctx, filepath.Base(path), data)
	if err != nil && !errors.Is(err, pipeline.ErrTranscriptTooShort) {
		return fmt.Errorf("process %s: %w", path, err)
	}

	notes := ""
	if err == nil {
		notes, err = w.generator.Notes(ctx, result.Transcript)
		if err != nil {
			return fmt.Errorf("generate notes for %s: %w", path, err)
		}
	}

	out := w.outputPath(path)
	if err := os.WriteFile(out, renderMarkdown(filepath.Base(path), result, notes), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	slog.Info("recording ingested",
		"path", path,
		"output", out,
		"audio_duration", result.AudioDuration,
		"transcript_len", len(result.Transcript))
	return nil
}

func (w *Watcher) outputPath(audioPath string) string {
	base := filepath.Base(audioPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".md"
	return filepath.Join(w.outDir, name)
}

func (w *Watcher) outputExists(audioPath string) bool {
	_, err := os.Stat(w.outputPath(audioPath))
	return err == nil
}

// renderMarkdown formats one processed recording as a study document.
func renderMarkdown(filename string, result pipeline.Result, notes string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", filename)
	fmt.Fprintf(&b, "Audio duration: %s\n\n", result.AudioDuration.Round(time.Second))

	if notes != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(notes)
		b.WriteString("\n\n")
	}

	b.WriteString("## Transcript\n\n")
	if result.Transcript == "" {
		b.WriteString("_No usable speech was transcribed from this recording._\n")
	} else {
		b.WriteString(result.Transcript)
		b.WriteString("\n")
	}
	return []byte(b.String())
}
