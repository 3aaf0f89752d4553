package transport

import proto "github.com/ystepanoff/nowlink/protocol"

// ReceiveHandler is invoked by a driver for every frame it hears. data is only
// valid for the duration of the call.
type ReceiveHandler func(src proto.Address, data []byte)

// SendHandler is invoked by a driver once a transmission to dst has finished.
type SendHandler func(dst proto.Address, ok bool)

// RadioDriver is the interface that wraps the basic radio operations.
//
// Handlers passed to Start may run on any goroutine and must not block.
type RadioDriver interface {
	Address() proto.Address
	Start(onRecv ReceiveHandler, onSent SendHandler) error
	Send(dst proto.Address, data []byte) error
	Close() error
}
