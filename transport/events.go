package transport

import proto "github.com/ystepanoff/nowlink/protocol"

// Event is one unit of work for the node's owner goroutine.
type Event interface {
	event()
}

// SendCompleted reports the outcome of a transmission.
type SendCompleted struct {
	Address proto.Address
	Success bool
}

// FrameReceived carries a raw frame heard from Address. Data is owned by the
// event; producers must hand over a copy.
type FrameReceived struct {
	Address proto.Address
	Data    []byte
}

type connectRequest struct {
	Address proto.Address
}

type sendRequest struct {
	Address proto.Address // BroadcastAddress for a broadcast
	Type    proto.FrameType
	Payload []byte
}

func (SendCompleted) event()  {}
func (FrameReceived) event()  {}
func (connectRequest) event() {}
func (sendRequest) event()    {}

// eventQueue is a bounded, non-blocking hand-off from producers to the owner.
type eventQueue chan Event

func newEventQueue(size int) eventQueue {
	return make(eventQueue, size)
}

// offer enqueues ev without blocking and reports whether it was accepted.
func (q eventQueue) offer(ev Event) bool {
	select {
	case q <- ev:
		return true
	default:
		return false
	}
}

// drain discards every queued event and returns how many were dropped.
func (q eventQueue) drain() int {
	n := 0
	for {
		select {
		case <-q:
			n++
		default:
			return n
		}
	}
}
