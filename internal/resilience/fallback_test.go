package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrWong99/lectern/internal/observe"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func isolatedMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func newStringGroup(t *testing.T, maxFailures int) *FallbackGroup[string] {
	t.Helper()
	m, _ := isolatedMetrics(t)
	fg := NewFallbackGroup("whisper-main", "whisper-main", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: maxFailures, ResetTimeout: time.Hour},
		Kind:           "stt",
		Metrics:        m,
	})
	fg.AddFallback("whisper-backup", "whisper-backup")
	return fg
}

func TestFallbackGroup_PrefersPrimary(t *testing.T) {
	fg := newStringGroup(t, 3)

	var called []string
	err := fg.Execute(context.Background(), func(v string) error {
		called = append(called, v)
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if len(called) != 1 || called[0] != "whisper-main" {
		t.Errorf("called = %v, want just whisper-main", called)
	}
}

func TestFallbackGroup_FailsOverInOrder(t *testing.T) {
	fg := newStringGroup(t, 3)

	var called []string
	err := fg.Execute(context.Background(), func(v string) error {
		called = append(called, v)
		if v == "whisper-main" {
			return errBackendDown
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	want := []string{"whisper-main", "whisper-backup"}
	if len(called) != 2 || called[0] != want[0] || called[1] != want[1] {
		t.Errorf("called = %v, want %v", called, want)
	}
}

func TestFallbackGroup_AllEntriesFail(t *testing.T) {
	fg := newStringGroup(t, 3)

	err := fg.Execute(context.Background(), func(v string) error {
		return fmt.Errorf("%s: %w", v, errBackendDown)
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("Execute() = %v, want %v", err, ErrAllFailed)
	}
}

func TestFallbackGroup_SkipsEntryWithOpenBreaker(t *testing.T) {
	fg := newStringGroup(t, 1)

	// Trip the primary's breaker.
	_ = fg.Execute(context.Background(), func(v string) error {
		if v == "whisper-main" {
			return errBackendDown
		}
		return nil
	})

	var called []string
	err := fg.Execute(context.Background(), func(v string) error {
		called = append(called, v)
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}
	if len(called) != 1 || called[0] != "whisper-backup" {
		t.Errorf("called = %v, want just whisper-backup", called)
	}
}

func TestFallbackGroup_CountsProviderRequestsAndErrors(t *testing.T) {
	m, reader := isolatedMetrics(t)
	fg := NewFallbackGroup("whisper-main", "whisper-main", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: time.Hour},
		Kind:           "stt",
		Metrics:        m,
	})
	fg.AddFallback("whisper-backup", "whisper-backup")

	err := fg.Execute(context.Background(), func(v string) error {
		if v == "whisper-main" {
			return errBackendDown
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() = %v, want nil", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if got := counterValue(t, rm, "lectern.provider.requests", map[string]string{
		"provider": "whisper-main", "kind": "stt", "status": "error",
	}); got != 1 {
		t.Errorf("failed primary requests = %d, want 1", got)
	}
	if got := counterValue(t, rm, "lectern.provider.requests", map[string]string{
		"provider": "whisper-backup", "kind": "stt", "status": "ok",
	}); got != 1 {
		t.Errorf("successful backup requests = %d, want 1", got)
	}
	if got := counterValue(t, rm, "lectern.provider.errors", map[string]string{
		"provider": "whisper-main", "kind": "stt",
	}); got != 1 {
		t.Errorf("primary errors = %d, want 1", got)
	}
}

// counterValue returns the int64 sum data point matching all attributes.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, match map[string]string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != name {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not an int64 sum", name)
			}
		outer:
			for _, dp := range sum.DataPoints {
				for k, v := range match {
					got, ok := dp.Attributes.Value(attribute.Key(k))
					if !ok || got.AsString() != v {
						continue outer
					}
				}
				return dp.Value
			}
		}
	}
	t.Fatalf("metric %q has no data point matching %v", name, match)
	return 0
}

func TestExecuteWithResult_ReturnsFirstSuccess(t *testing.T) {
	m, _ := isolatedMetrics(t)
	fg := NewFallbackGroup(16000, "hq", FallbackConfig{Metrics: m})
	fg.AddFallback("lq", 8000)

	got, err := ExecuteWithResult(context.Background(), fg, func(rate int) (string, error) {
		return fmt.Sprintf("%d Hz", rate), nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v, want nil", err)
	}
	if got != "16000 Hz" {
		t.Errorf("result = %q, want %q", got, "16000 Hz")
	}
}

func TestExecuteWithResult_FailsOverToFallbackValue(t *testing.T) {
	m, _ := isolatedMetrics(t)
	fg := NewFallbackGroup(16000, "hq", FallbackConfig{Metrics: m})
	fg.AddFallback("lq", 8000)

	got, err := ExecuteWithResult(context.Background(), fg, func(rate int) (string, error) {
		if rate == 16000 {
			return "", errBackendDown
		}
		return fmt.Sprintf("%d Hz", rate), nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult() error = %v, want nil", err)
	}
	if got != "8000 Hz" {
		t.Errorf("result = %q, want %q", got, "8000 Hz")
	}
}

func TestExecuteWithResult_AllFailReturnsZeroValue(t *testing.T) {
	m, _ := isolatedMetrics(t)
	fg := NewFallbackGroup(16000, "hq", FallbackConfig{Metrics: m})
	fg.AddFallback("lq", 8000)

	got, err := ExecuteWithResult(context.Background(), fg, func(rate int) (string, error) {
		return "partial", errBackendDown
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("ExecuteWithResult() error = %v, want %v", err, ErrAllFailed)
	}
	if got != "" {
		t.Errorf("result = %q, want empty string", got)
	}
}
