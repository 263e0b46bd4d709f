package protocol

import "errors"

var (
	ErrUnknownOpcode   = errors.New("protocol: unknown opcode")
	ErrTransportStall  = errors.New("protocol: transport write stalled")
	ErrReceiveTimeout  = errors.New("protocol: receive timed out")
	ErrPayloadSize     = errors.New("protocol: payload size does not match layout")
	ErrTransportClosed = errors.New("protocol: transport closed")
)
