package protocol

import "errors"

var (
	ErrFrameTooShort       = errors.New("frame shorter than header")
	ErrFrameLengthMismatch = errors.New("frame length field disagrees with buffer")
	ErrFrameCRCMismatch    = errors.New("frame checksum mismatch")
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidAddress      = errors.New("invalid address")
	ErrAllocation          = errors.New("peer table allocation failed")
	ErrQueueFull           = errors.New("event queue full")
	ErrTransport           = errors.New("transport send failed")
	ErrClosed              = errors.New("node closed")
)

// IsFrameError reports whether err means an inbound frame was malformed.
// Such frames are dropped without touching any peer record.
func IsFrameError(err error) bool {
	return errors.Is(err, ErrFrameTooShort) ||
		errors.Is(err, ErrFrameLengthMismatch) ||
		errors.Is(err, ErrFrameCRCMismatch)
}
