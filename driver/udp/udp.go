// Package udp carries frames between hosts over a UDP multicast group, so
// several processes on a LAN (or one host) behave like radios in range.
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	proto "github.com/ystepanoff/nowlink/protocol"
	"github.com/ystepanoff/nowlink/transport"
)

const (
	DefaultGroup = "239.0.0.1:47000"

	// every datagram is dst(6) | src(6) | frame
	linkHeaderSize = 2 * proto.AddressSize
	maxDatagram    = linkHeaderSize + proto.MaxFrameSize
)

var ErrShortDatagram = errors.New("udp: datagram shorter than link header")

type Config struct {
	Address   proto.Address
	Group     string // host:port of the multicast group
	Interface string // empty selects the system default
}

// Driver implements transport.RadioDriver on top of UDP multicast.
type Driver struct {
	addr  proto.Address
	group *net.UDPAddr
	rx    *net.UDPConn
	tx    *net.UDPConn
	log   zerolog.Logger

	mu      sync.Mutex
	onSent  transport.SendHandler
	started bool
	closed  bool
	done    chan struct{}
}

var _ transport.RadioDriver = (*Driver)(nil)

func New(cfg Config, logger zerolog.Logger) (*Driver, error) {
	if cfg.Address.IsZero() || cfg.Address.IsBroadcast() {
		return nil, fmt.Errorf("%w: %s", proto.ErrInvalidAddress, cfg.Address)
	}
	if cfg.Group == "" {
		cfg.Group = DefaultGroup
	}
	group, err := net.ResolveUDPAddr("udp4", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve %s: %w", cfg.Group, err)
	}
	if !group.IP.IsMulticast() {
		return nil, fmt.Errorf("%w: %s is not a multicast group", proto.ErrInvalidArgument, cfg.Group)
	}

	var ifi *net.Interface
	if cfg.Interface != "" {
		if ifi, err = net.InterfaceByName(cfg.Interface); err != nil {
			return nil, fmt.Errorf("udp: interface %s: %w", cfg.Interface, err)
		}
	}

	rx, err := net.ListenMulticastUDP("udp4", ifi, group)
	if err != nil {
		return nil, fmt.Errorf("udp: join %s: %w", cfg.Group, err)
	}
	// a separate socket keeps multicast loopback on for same-host peers
	tx, err := net.ListenUDP("udp4", nil)
	if err != nil {
		rx.Close()
		return nil, fmt.Errorf("udp: open send socket: %w", err)
	}

	return &Driver{
		addr:  cfg.Address,
		group: group,
		rx:    rx,
		tx:    tx,
		log:   logger.With().Str("driver", "udp").Str("group", cfg.Group).Logger(),
		done:  make(chan struct{}),
	}, nil
}

func (d *Driver) Address() proto.Address { return d.addr }

func (d *Driver) Start(onRecv transport.ReceiveHandler, onSent transport.SendHandler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return proto.ErrClosed
	}
	if d.started {
		return fmt.Errorf("%w: driver already started", proto.ErrInvalidArgument)
	}
	d.started = true
	d.onSent = onSent
	go d.readLoop(onRecv)
	return nil
}

func (d *Driver) readLoop(onRecv transport.ReceiveHandler) {
	defer close(d.done)
	buf := make([]byte, maxDatagram+1)
	for {
		n, _, err := d.rx.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			d.log.Warn().Err(err).Msg("read")
			continue
		}
		dst, src, frame, err := parseDatagram(buf[:n])
		if err != nil {
			d.log.Debug().Err(err).Int("len", n).Msg("dropping datagram")
			continue
		}
		if !d.accepts(dst, src) || len(frame) == 0 {
			continue
		}
		onRecv(src, frame)
	}
}

// accepts filters out our own echoes and traffic for other nodes.
func (d *Driver) accepts(dst, src proto.Address) bool {
	if src == d.addr {
		return false
	}
	return dst.IsBroadcast() || dst == d.addr
}

func (d *Driver) Send(dst proto.Address, data []byte) error {
	d.mu.Lock()
	closed, onSent := d.closed, d.onSent
	d.mu.Unlock()
	if closed {
		return proto.ErrClosed
	}
	if len(data) > proto.MaxFrameSize {
		return fmt.Errorf("%w: %d byte frame", proto.ErrPayloadTooLarge, len(data))
	}

	_, err := d.tx.WriteToUDP(appendDatagram(nil, dst, d.addr, data), d.group)
	if onSent != nil {
		onSent(dst, err == nil)
	}
	if err != nil {
		return fmt.Errorf("udp: write to %s: %w", d.group, err)
	}
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	d.mu.Unlock()

	err := errors.Join(d.rx.Close(), d.tx.Close())
	if started {
		<-d.done
	}
	return err
}

func appendDatagram(buf []byte, dst, src proto.Address, frame []byte) []byte {
	buf = append(buf, dst[:]...)
	buf = append(buf, src[:]...)
	return append(buf, frame...)
}

func parseDatagram(b []byte) (dst, src proto.Address, frame []byte, err error) {
	if len(b) < linkHeaderSize {
		return dst, src, nil, fmt.Errorf("%w: %d bytes", ErrShortDatagram, len(b))
	}
	copy(dst[:], b[:proto.AddressSize])
	copy(src[:], b[proto.AddressSize:linkHeaderSize])
	return dst, src, b[linkHeaderSize:], nil
}
