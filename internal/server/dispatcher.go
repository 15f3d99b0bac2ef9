// Package server serves the pdb line protocol over TCP and dispatches
// decoded commands to a device executor.
package server

import (
	"context"

	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/input"
	"github.com/frudas24/pdb/internal/protocol"
	"github.com/frudas24/pdb/internal/window"
)

// Executor performs device operations. *control.Controller satisfies it.
type Executor interface {
	Devices(ctx context.Context) ([]window.Info, error)
	Click(ctx context.Context, h window.Handle, x, y int) error
	Swipe(ctx context.Context, h window.Handle, x1, y1, x2, y2, durationMs int) error
	Text(ctx context.Context, h window.Handle, text string) error
	Key(ctx context.Context, h window.Handle, k input.Key) error
	Screenshot(ctx context.Context, h window.Handle) (*capture.Bitmap, error)
	Size(ctx context.Context, h window.Handle) (int, int, error)
	Focus(ctx context.Context, h window.Handle) error
}

// Dispatcher maps commands to executor calls and results to responses.
type Dispatcher struct {
	exec Executor
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(exec Executor) *Dispatcher {
	return &Dispatcher{exec: exec}
}

// Dispatch executes one command. Every command yields exactly one response.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd protocol.Command) protocol.Response {
	switch c := cmd.(type) {
	case protocol.Ping:
		return protocol.OK(protocol.Pong{})
	case protocol.ListDevices:
		list, err := d.exec.Devices(ctx)
		if err != nil {
			return protocol.Fail(err, failure.PlatformError)
		}
		return protocol.OK(protocol.DeviceList{Devices: list})
	case protocol.Click:
		return ack(d.exec.Click(ctx, c.Handle, c.X, c.Y))
	case protocol.Swipe:
		return ack(d.exec.Swipe(ctx, c.Handle, c.X1, c.Y1, c.X2, c.Y2, c.DurationMs))
	case protocol.Text:
		return ack(d.exec.Text(ctx, c.Handle, c.Text))
	case protocol.Key:
		return ack(d.exec.Key(ctx, c.Handle, c.Key))
	case protocol.Focus:
		return ack(d.exec.Focus(ctx, c.Handle))
	case protocol.Screenshot:
		bmp, err := d.exec.Screenshot(ctx, c.Handle)
		if err != nil {
			return protocol.Fail(err, failure.PlatformError)
		}
		return protocol.OK(protocol.Image{Bitmap: bmp})
	case protocol.Size:
		w, h, err := d.exec.Size(ctx, c.Handle)
		if err != nil {
			return protocol.Fail(err, failure.PlatformError)
		}
		return protocol.OK(protocol.Dimensions{Width: w, Height: h})
	default:
		return protocol.Fail(failure.New(failure.UnknownCommand, "unsupported command %T", cmd), failure.UnknownCommand)
	}
}

// DispatchLine decodes and executes one text frame. Decode failures become
// error responses; cmd is nil in that case.
func (d *Dispatcher) DispatchLine(ctx context.Context, line string) (protocol.Command, protocol.Response) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		return nil, protocol.Fail(err, failure.BadArguments)
	}
	return cmd, d.Dispatch(ctx, cmd)
}

func ack(err error) protocol.Response {
	if err != nil {
		return protocol.Fail(err, failure.InjectionFailed)
	}
	return protocol.OK(protocol.Ack{})
}
