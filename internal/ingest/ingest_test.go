package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/lectern/internal/generate"
	"github.com/MrWong99/lectern/internal/observe"
	"github.com/MrWong99/lectern/internal/pipeline"
	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
	sttmock "github.com/MrWong99/lectern/pkg/provider/stt/mock"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const lectureTranscript = "Photosynthesis converts light energy into chemical energy stored in glucose. " +
	"Chlorophyll absorbs mostly red and blue wavelengths of light. " +
	"The light-dependent reactions take place in the thylakoid membranes."

// wavFile renders seconds of silence as a canonical 16 kHz mono WAV file.
func wavFile(seconds int) []byte {
	clip := audio.Clip{
		Data:       make([]byte, seconds*16000*2),
		SampleRate: 16000,
		Channels:   1,
	}
	return audio.EncodeWAV(clip)
}

func newTestWatcher(t *testing.T, provider stt.Provider) (*Watcher, string, string) {
	t.Helper()
	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	watchDir := t.TempDir()
	outDir := t.TempDir()
	proc := pipeline.NewProcessor(audio.NewDecoder(), provider, pipeline.WithMetrics(m))
	w := New(watchDir, outDir, proc, generate.NewHeuristic(),
		WithSettleDelay(10*time.Millisecond))
	return w, watchDir, outDir
}

// waitForFile polls until path exists or the deadline passes.
func waitForFile(t *testing.T, path string) []byte {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("file %s never appeared", path)
	return nil
}

func TestProcessFile_WritesMarkdown(t *testing.T) {
	provider := &sttmock.Provider{Result: stt.Result{Text: lectureTranscript, Confidence: 0.92}}
	w, watchDir, outDir := newTestWatcher(t, provider)

	src := filepath.Join(watchDir, "lecture01.wav")
	if err := os.WriteFile(src, wavFile(2), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	if err := w.processFile(context.Background(), src); err != nil {
		t.Fatalf("processFile: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "lecture01.md"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "# lecture01.wav") {
		t.Errorf("output missing title header:\n%s", out)
	}
	if !strings.Contains(out, "## Notes") {
		t.Errorf("output missing notes section:\n%s", out)
	}
	if !strings.Contains(out, "## Transcript") || !strings.Contains(out, "Photosynthesis") {
		t.Errorf("output missing transcript:\n%s", out)
	}
}

func TestProcessFile_TooShortTranscriptStillWritesOutput(t *testing.T) {
	provider := &sttmock.Provider{Result: stt.Result{Text: "Hello."}}
	w, watchDir, outDir := newTestWatcher(t, provider)

	src := filepath.Join(watchDir, "silence.wav")
	if err := os.WriteFile(src, wavFile(1), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	if err := w.processFile(context.Background(), src); err != nil {
		t.Fatalf("processFile: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "silence.md"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Hello.") {
		t.Errorf("partial transcript should still be written:\n%s", out)
	}
	if strings.Contains(out, "## Notes") {
		t.Errorf("too-short transcript should not produce notes:\n%s", out)
	}
}

func TestRun_PicksUpNewFiles(t *testing.T) {
	provider := &sttmock.Provider{Result: stt.Result{Text: lectureTranscript}}
	w, watchDir, outDir := newTestWatcher(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register before creating the file.
	time.Sleep(100 * time.Millisecond)

	src := filepath.Join(watchDir, "dropped.wav")
	if err := os.WriteFile(src, wavFile(1), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	out := waitForFile(t, filepath.Join(outDir, "dropped.md"))
	if !strings.Contains(string(out), "Photosynthesis") {
		t.Errorf("output missing transcript:\n%s", out)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_SweepsExistingFiles(t *testing.T) {
	provider := &sttmock.Provider{Result: stt.Result{Text: lectureTranscript}}
	w, watchDir, outDir := newTestWatcher(t, provider)

	src := filepath.Join(watchDir, "backlog.wav")
	if err := os.WriteFile(src, wavFile(1), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	waitForFile(t, filepath.Join(outDir, "backlog.md"))
}

func TestRun_IgnoresNonAudioFiles(t *testing.T) {
	provider := &sttmock.Provider{Result: stt.Result{Text: lectureTranscript}}
	w, watchDir, _ := newTestWatcher(t, provider)

	src := filepath.Join(watchDir, "syllabus.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	if provider.CallCount() != 0 {
		t.Errorf("provider called %d times for a pdf, want 0", provider.CallCount())
	}
}

func TestOutputExists_SkipsProcessedRecordings(t *testing.T) {
	provider := &sttmock.Provider{Result: stt.Result{Text: lectureTranscript}}
	w, watchDir, outDir := newTestWatcher(t, provider)

	src := filepath.Join(watchDir, "done.wav")
	if err := os.WriteFile(filepath.Join(outDir, "done.md"), []byte("# done.wav\n"), 0o644); err != nil {
		t.Fatalf("write existing output: %v", err)
	}

	if !w.outputExists(src) {
		t.Error("outputExists should report true for processed recording")
	}

	w.dispatch(context.Background(), src)
	w.wg.Wait()
	if provider.CallCount() != 0 {
		t.Errorf("provider called %d times for a processed recording, want 0", provider.CallCount())
	}
}
