package server

import (
	"errors"

	"github.com/blabu/nanoporeLinkService/dto"
)

// Errors of the listener service and its sessions
var (
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrBindFailed      = errors.New("bind failed")
	ErrAlreadyRunning  = errors.New("server already running")
	ErrNotConnected    = errors.New("client not connected")
	ErrWriteFailed     = errors.New("write failed")
)

/*
StatusSink - observer of the instrument link (the control panel).
Calls for one listener come in the order the events happened.
Status - human readable status line
Samples - decoded frame, an empty batch means the session ended or the server stopped
SessionEnded - summary of a finished session
*/
type StatusSink interface {
	Status(msg string)
	Samples(batch dto.SampleBatch)
	SessionEnded(rec dto.SessionRecord)
}

// ControlSender - receiver of outbound control bytes
type ControlSender interface {
	SendControlByte(b byte) error
}
