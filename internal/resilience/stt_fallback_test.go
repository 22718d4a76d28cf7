package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
	sttmock "github.com/MrWong99/lectern/pkg/provider/stt/mock"
)

func testClip() audio.Clip {
	return audio.Clip{
		Data:       make([]byte, 32000),
		SampleRate: 16000,
		Channels:   1,
	}
}

func TestSTTFallback_Transcribe_PrimarySuccess(t *testing.T) {
	primary := &sttmock.Provider{Result: stt.Result{Text: "hello class"}}
	secondary := &sttmock.Provider{}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	res, err := fb.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello class" {
		t.Fatalf("text = %q, want %q", res.Text, "hello class")
	}
	if primary.CallCount() != 1 {
		t.Fatalf("primary called %d times, want 1", primary.CallCount())
	}
	if secondary.CallCount() != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.CallCount())
	}
}

func TestSTTFallback_Transcribe_Failover(t *testing.T) {
	primary := &sttmock.Provider{Err: stt.ErrUnavailable}
	secondary := &sttmock.Provider{Result: stt.Result{Text: "from fallback"}}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	res, err := fb.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "from fallback" {
		t.Fatalf("text = %q, want %q", res.Text, "from fallback")
	}
	if secondary.CallCount() != 1 {
		t.Fatalf("secondary called %d times, want 1", secondary.CallCount())
	}
}

func TestSTTFallback_Transcribe_AllFail(t *testing.T) {
	primary := &sttmock.Provider{Err: errors.New("primary down")}
	secondary := &sttmock.Provider{Err: errors.New("secondary down")}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Transcribe(context.Background(), testClip())
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestSTTFallback_Transcribe_UnintelligibleDoesNotFailover(t *testing.T) {
	primary := &sttmock.Provider{Err: stt.ErrUnintelligible}
	secondary := &sttmock.Provider{Result: stt.Result{Text: "should never run"}}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Transcribe(context.Background(), testClip())
	if !errors.Is(err, stt.ErrUnintelligible) {
		t.Fatalf("err = %v, want ErrUnintelligible", err)
	}
	if secondary.CallCount() != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.CallCount())
	}
}
