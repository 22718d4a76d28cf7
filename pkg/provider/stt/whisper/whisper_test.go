package whisper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

// testClip returns a 1-second 16 kHz mono clip of silence.
func testClip() audio.Clip {
	return audio.Clip{Data: make([]byte, 16000*2), SampleRate: 16000, Channels: 1}
}

func TestTranscribe_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("path = %q, want /inference", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file field: %v", err)
		}
		if lang := r.FormValue("language"); lang != "en" {
			t.Errorf("language = %q, want en", lang)
		}
		w.Write([]byte(`{"text": "  the mitochondria is the powerhouse of the cell "}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := p.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if want := "the mitochondria is the powerhouse of the cell"; res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if res.AudioDuration.Seconds() != 1 {
		t.Errorf("AudioDuration = %v, want 1s", res.AudioDuration)
	}
}

func TestTranscribe_BlankAudioIsUnintelligible(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": " [BLANK_AUDIO] "}`))
	}))
	defer srv.Close()

	p, _ := New(srv.URL)
	_, err := p.Transcribe(context.Background(), testClip())
	if !errors.Is(err, stt.ErrUnintelligible) {
		t.Errorf("err = %v, want ErrUnintelligible", err)
	}
}

func TestTranscribe_ServerErrorIsUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, _ := New(srv.URL)
	_, err := p.Transcribe(context.Background(), testClip())
	if !errors.Is(err, stt.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestTranscribe_ConnectionRefusedIsUnavailable(t *testing.T) {
	t.Parallel()
	p, _ := New("http://127.0.0.1:1") // nothing listens here
	_, err := p.Transcribe(context.Background(), testClip())
	if !errors.Is(err, stt.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestTranscribe_EmptyClip(t *testing.T) {
	t.Parallel()
	p, _ := New("http://localhost:8080")
	_, err := p.Transcribe(context.Background(), audio.Clip{SampleRate: 16000, Channels: 1})
	if !errors.Is(err, stt.ErrUnintelligible) {
		t.Errorf("err = %v, want ErrUnintelligible", err)
	}
}

func TestCleanTranscript(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"  hello world  ", "hello world"},
		{"[BLANK_AUDIO]", ""},
		{" [SILENCE] ", ""},
		{"intro [MUSIC] outro", "intro  outro"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanTranscript(tt.in); got != tt.want {
			t.Errorf("CleanTranscript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
