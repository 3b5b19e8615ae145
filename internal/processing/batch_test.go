package processing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/errors"
)

func TestSemaphoreBoundsPermits(t *testing.T) {
	sem := NewSemaphore(2)
	ctx := context.Background()

	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// Third acquire must block until a release or cancellation.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := sem.Acquire(blocked); err == nil {
		t.Fatal("Acquire() succeeded with no permits left")
	}

	sem.Release()
	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() after Release() error = %v", err)
	}
}

func TestSemaphoreZeroCountStillWorks(t *testing.T) {
	sem := NewSemaphore(0)
	if err := sem.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
}

func TestProcessFilesSkipsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()

	input := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(input, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	// Pre-create the resolved output so the file is skipped untouched.
	existing := filepath.Join(outDir, "clip_repaired.mp4")
	if err := os.WriteFile(existing, []byte("done"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewConfig(dir, outDir, t.TempDir())
	results := ProcessFiles(context.Background(), cfg, []string{input}, "", nil, nil)

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Status != StatusSkipped {
		t.Errorf("Status = %v, want skipped", results[0].Status)
	}
}

func TestProcessFilesCollectsFailures(t *testing.T) {
	outDir := t.TempDir()
	missing := filepath.Join(t.TempDir(), "gone.mp4")

	cfg := config.NewConfig(missing, outDir, t.TempDir())
	results := ProcessFiles(context.Background(), cfg, []string{missing}, "", nil, nil)

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Status != StatusFailed {
		t.Errorf("Status = %v, want failed", results[0].Status)
	}
	if !errors.IsKind(results[0].Err, errors.KindUnreadableInput) {
		t.Errorf("Err = %v, want unreadable-input kind", results[0].Err)
	}
}

func TestProcessFilesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.NewConfig("in", t.TempDir(), t.TempDir())
	results := ProcessFiles(ctx, cfg, []string{"a.mp4", "b.mp4"}, "", nil, nil)

	for i, r := range results {
		if r.Status != StatusFailed {
			t.Errorf("results[%d].Status = %v, want failed", i, r.Status)
		}
		if !errors.IsCancelled(r.Err) {
			t.Errorf("results[%d].Err = %v, want cancelled", i, r.Err)
		}
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusRepaired, "repaired"},
		{StatusSkipped, "skipped"},
		{StatusFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
