package protocol

import (
	"github.com/frudas24/pdb/internal/capture"
	"github.com/frudas24/pdb/internal/failure"
	"github.com/frudas24/pdb/internal/window"
)

// Payload is the success value of a response. The set of variants is closed.
type Payload interface {
	isPayload()
}

// Ack acknowledges commands that return nothing.
type Ack struct{}

// Pong answers a Ping.
type Pong struct{}

// DeviceList answers ListDevices.
type DeviceList struct {
	Devices []window.Info
}

// Image answers Screenshot.
type Image struct {
	Bitmap *capture.Bitmap
}

// Dimensions answers Size.
type Dimensions struct {
	Width, Height int
}

func (Ack) isPayload()        {}
func (Pong) isPayload()       {}
func (DeviceList) isPayload() {}
func (Image) isPayload()      {}
func (Dimensions) isPayload() {}

// Response is exactly one of a payload or an error.
type Response struct {
	Payload Payload
	Err     *failure.Error
}

// OK wraps a payload.
func OK(p Payload) Response {
	return Response{Payload: p}
}

// Fail converts any error into an error response. Unclassified errors are
// reported with the given default kind.
func Fail(err error, def failure.Kind) Response {
	kind := failure.KindOf(err)
	if kind == failure.KindNone {
		kind = def
	}
	return Response{Err: &failure.Error{Kind: kind, Msg: failure.Message(err)}}
}

// AsError returns the response error as an error value, or nil.
func (r Response) AsError() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}
