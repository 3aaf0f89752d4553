package transport

import (
	"fmt"
	"time"

	proto "github.com/ystepanoff/nowlink/protocol"
)

// Config tunes a Node. The zero value is not usable; start from DefaultConfig.
type Config struct {
	QueueSize         int
	ReconcileInterval time.Duration
	LivenessTimeout   time.Duration
	HandshakeTimeout  time.Duration
	BeaconInterval    time.Duration // 0 disables beacons
	HeartbeatInterval time.Duration // 0 disables heartbeats
	MaxConnectRetries uint32
	MaxPeers          int // 0 = unbounded
	AutoConnect       bool
	AcceptConnections bool
}

func DefaultConfig() Config {
	return Config{
		QueueSize:         proto.DefaultQueueSize,
		ReconcileInterval: 100 * time.Millisecond,
		LivenessTimeout:   proto.LivenessTimeoutUs * time.Microsecond,
		HandshakeTimeout:  proto.HandshakeTimeoutUs * time.Microsecond,
		BeaconInterval:    250 * time.Millisecond,
		HeartbeatInterval: 250 * time.Millisecond,
		MaxConnectRetries: proto.DefaultMaxConnectRetries,
		AutoConnect:       true,
		AcceptConnections: true,
	}
}

func (c Config) Validate() error {
	switch {
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue size must be positive, got %d", proto.ErrInvalidArgument, c.QueueSize)
	case c.ReconcileInterval <= 0:
		return fmt.Errorf("%w: reconcile interval must be positive, got %s", proto.ErrInvalidArgument, c.ReconcileInterval)
	case c.LivenessTimeout <= 0:
		return fmt.Errorf("%w: liveness timeout must be positive, got %s", proto.ErrInvalidArgument, c.LivenessTimeout)
	case c.HandshakeTimeout <= 0:
		return fmt.Errorf("%w: handshake timeout must be positive, got %s", proto.ErrInvalidArgument, c.HandshakeTimeout)
	case c.BeaconInterval < 0 || c.HeartbeatInterval < 0:
		return fmt.Errorf("%w: keepalive intervals must not be negative", proto.ErrInvalidArgument)
	case c.MaxPeers < 0:
		return fmt.Errorf("%w: max peers must not be negative, got %d", proto.ErrInvalidArgument, c.MaxPeers)
	}
	return nil
}

func (c Config) timeouts() proto.Timeouts {
	return proto.Timeouts{
		LivenessUs:  c.LivenessTimeout.Microseconds(),
		HandshakeUs: c.HandshakeTimeout.Microseconds(),
	}
}

func (c Config) policy() proto.Policy {
	return proto.Policy{
		AutoConnect:       c.AutoConnect,
		AcceptConnections: c.AcceptConnections,
		MaxConnectRetries: c.MaxConnectRetries,
	}
}
