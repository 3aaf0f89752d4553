package nowlink

import (
	"github.com/rs/zerolog"

	"github.com/ystepanoff/nowlink/driver/stub"
	"github.com/ystepanoff/nowlink/driver/udp"
	"github.com/ystepanoff/nowlink/transport"
)

// NewNode creates a node on top of any radio driver.
func NewNode(d RadioDriver, cfg Config, opts ...Option) (*Node, error) {
	return transport.NewNode(d, cfg, opts...)
}

// NewSimulatedNode attaches a radio with address addr to an in-process medium
// and creates a node on it.
func NewSimulatedNode(m *stub.Medium, addr Address, cfg Config, opts ...Option) (*Node, error) {
	d := m.Attach(addr)
	n, err := transport.NewNode(d, cfg, opts...)
	if err != nil {
		d.Detach()
		return nil, err
	}
	return n, nil
}

// NewUDPNode creates a node that talks to other processes over UDP multicast.
func NewUDPNode(link udp.Config, cfg Config, logger zerolog.Logger, opts ...Option) (*Node, error) {
	d, err := udp.New(link, logger)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{transport.WithLogger(logger)}, opts...)
	n, err := transport.NewNode(d, cfg, opts...)
	if err != nil {
		d.Close()
		return nil, err
	}
	return n, nil
}
