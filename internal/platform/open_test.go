package platform

import (
	"testing"
	"time"

	"github.com/frudas24/pdb/internal/config"
)

// TestOptions_FromConfig verifies configured delays reach the controller options.
func TestOptions_FromConfig(t *testing.T) {
	opts := Options(config.Server{RestoreSettleMs: 250, FocusSettleMs: 0, SwipeStepMs: 16})
	if opts.RestoreSettle != 250*time.Millisecond {
		t.Fatalf("expected 250ms restore settle, got %v", opts.RestoreSettle)
	}
	if opts.FocusSettle != 0 {
		t.Fatalf("expected focus settle disabled, got %v", opts.FocusSettle)
	}
	if opts.SwipeStep != 16*time.Millisecond {
		t.Fatalf("expected 16ms swipe step, got %v", opts.SwipeStep)
	}
}

// TestOptions_KeepsDefaultStep verifies a zero step falls back to the default.
func TestOptions_KeepsDefaultStep(t *testing.T) {
	opts := Options(config.Server{})
	if opts.SwipeStep != 10*time.Millisecond {
		t.Fatalf("expected default 10ms step, got %v", opts.SwipeStep)
	}
}
