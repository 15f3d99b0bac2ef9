package platform

import (
	"time"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/config"
	"github.com/frudas24/pdb/internal/control"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/input"
)

// Open connects to the host desktop and input backend and builds a
// controller tuned by cfg. The caller closes the returned Desktop.
func Open(cfg config.Server) (*control.Controller, Desktop, error) {
	desk, err := New()
	if err != nil {
		return nil, nil, failure.Classify(err, failure.PlatformError)
	}
	inj, err := input.NewInjector()
	if err != nil {
		desk.Close()
		return nil, nil, failure.Wrap(failure.PlatformError, err, "input backend")
	}
	pipe := capture.NewPipeline(desk, cfg.CaptureTimeout(), millis(cfg.CapturePollMs))
	return control.New(desk, inj, pipe, Options(cfg)), desk, nil
}

// Options maps the configured delays onto controller options.
func Options(cfg config.Server) control.Options {
	opts := control.DefaultOptions()
	opts.RestoreSettle = millis(cfg.RestoreSettleMs)
	opts.FocusSettle = millis(cfg.FocusSettleMs)
	if cfg.SwipeStepMs > 0 {
		opts.SwipeStep = millis(cfg.SwipeStepMs)
	}
	return opts
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
