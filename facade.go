// Package nowlink provides a façade to access the peer link layer.
package nowlink

import (
	"github.com/ystepanoff/nowlink/protocol"
	"github.com/ystepanoff/nowlink/transport"
)

// Re-export types so applications only import the root package
type (
	Address     = protocol.Address
	Frame       = protocol.Frame
	FrameType   = protocol.FrameType
	Status      = protocol.Status
	Node        = transport.Node
	Config      = transport.Config
	Option      = transport.Option
	PeerInfo    = transport.PeerInfo
	RadioDriver = transport.RadioDriver
)

// Error constants exposed in the public API
var (
	ErrInvalidArgument = protocol.ErrInvalidArgument
	ErrInvalidAddress  = protocol.ErrInvalidAddress
	ErrPayloadTooLarge = protocol.ErrPayloadTooLarge
	ErrAllocation      = protocol.ErrAllocation
	ErrQueueFull       = protocol.ErrQueueFull
	ErrTransport       = protocol.ErrTransport
	ErrClosed          = protocol.ErrClosed
)

var BroadcastAddress = protocol.BroadcastAddress

// Constants exposed in the public API
const (
	FrameTypeBeacon    = protocol.FrameTypeBeacon
	FrameTypeConnect   = protocol.FrameTypeConnect
	FrameTypeReject    = protocol.FrameTypeReject
	FrameTypeHeartbeat = protocol.FrameTypeHeartbeat
	FrameTypeData      = protocol.FrameTypeData
	FrameTypeText      = protocol.FrameTypeText

	StatusUnknown       = protocol.StatusUnknown
	StatusInRange       = protocol.StatusInRange
	StatusAvailable     = protocol.StatusAvailable
	StatusConnecting    = protocol.StatusConnecting
	StatusConnected     = protocol.StatusConnected
	StatusNoReply       = protocol.StatusNoReply
	StatusRejected      = protocol.StatusRejected
	StatusProtocolError = protocol.StatusProtocolError
	StatusLost          = protocol.StatusLost

	MaxPayloadSize = protocol.MaxPayloadSize
)

var (
	ParseAddress  = protocol.ParseAddress
	RandomAddress = protocol.RandomAddress
	DefaultConfig = transport.DefaultConfig

	WithClock          = transport.WithClock
	WithLogger         = transport.WithLogger
	WithRegistry       = transport.WithRegistry
	WithTransitionHook = transport.WithTransitionHook
	WithDataHandler    = transport.WithDataHandler
)
