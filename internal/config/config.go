// Package config loads node settings from a TOML file, overlaid on defaults
// and then on NOWLINK_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ystepanoff/nowlink/driver/udp"
	"github.com/ystepanoff/nowlink/internal/logging"
	proto "github.com/ystepanoff/nowlink/protocol"
	"github.com/ystepanoff/nowlink/transport"
)

const (
	EnvAddress  = "NOWLINK_ADDRESS"
	EnvUDPGroup = "NOWLINK_UDP_GROUP"
)

type Config struct {
	Node     NodeConfig      `toml:"node"`
	Protocol ProtocolConfig  `toml:"protocol"`
	UDP      UDPConfig       `toml:"udp"`
	Log      logging.Options `toml:"log"`
}

type NodeConfig struct {
	Address proto.Address `toml:"address"` // zero = random at startup
	Name    string        `toml:"name"`
}

type ProtocolConfig struct {
	QueueSize         int           `toml:"queue_size"`
	ReconcileInterval time.Duration `toml:"reconcile_interval"`
	LivenessTimeout   time.Duration `toml:"liveness_timeout"`
	HandshakeTimeout  time.Duration `toml:"handshake_timeout"`
	BeaconInterval    time.Duration `toml:"beacon_interval"`
	HeartbeatInterval time.Duration `toml:"heartbeat_interval"`
	MaxConnectRetries uint32        `toml:"max_connect_retries"`
	MaxPeers          int           `toml:"max_peers"`
	AutoConnect       bool          `toml:"auto_connect"`
	AcceptConnections bool          `toml:"accept_connections"`
}

type UDPConfig struct {
	Group     string `toml:"group"`
	Interface string `toml:"interface"`
}

func Default() Config {
	tc := transport.DefaultConfig()
	return Config{
		Protocol: ProtocolConfig{
			QueueSize:         tc.QueueSize,
			ReconcileInterval: tc.ReconcileInterval,
			LivenessTimeout:   tc.LivenessTimeout,
			HandshakeTimeout:  tc.HandshakeTimeout,
			BeaconInterval:    tc.BeaconInterval,
			HeartbeatInterval: tc.HeartbeatInterval,
			MaxConnectRetries: tc.MaxConnectRetries,
			MaxPeers:          tc.MaxPeers,
			AutoConnect:       tc.AutoConnect,
			AcceptConnections: tc.AcceptConnections,
		},
		UDP: UDPConfig{Group: udp.DefaultGroup},
		Log: logging.DefaultOptions(logging.ProfileRuntime),
	}
}

// Load reads path (if non-empty), applies environment overrides, and validates
// the result.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		if err := applyEnvOverrides(&cfg); err != nil {
			return Config{}, err
		}
		return cfg, cfg.Validate()
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes TOML from r on top of Default.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnvOverrides(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv(EnvAddress)); raw != "" {
		addr, err := proto.ParseAddress(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAddress, err)
		}
		cfg.Node.Address = addr
	}
	if raw := strings.TrimSpace(os.Getenv(EnvUDPGroup)); raw != "" {
		cfg.UDP.Group = raw
	}
	logging.ApplyEnvOverrides(&cfg.Log)
	return nil
}

func (c Config) Validate() error {
	if c.Node.Address.IsBroadcast() {
		return fmt.Errorf("%w: node address must not be broadcast", proto.ErrInvalidAddress)
	}
	if err := c.Protocol.Transport().Validate(); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: log level %q", proto.ErrInvalidArgument, c.Log.Level)
	}
	return nil
}

// Transport converts the protocol section into a node configuration.
func (p ProtocolConfig) Transport() transport.Config {
	return transport.Config{
		QueueSize:         p.QueueSize,
		ReconcileInterval: p.ReconcileInterval,
		LivenessTimeout:   p.LivenessTimeout,
		HandshakeTimeout:  p.HandshakeTimeout,
		BeaconInterval:    p.BeaconInterval,
		HeartbeatInterval: p.HeartbeatInterval,
		MaxConnectRetries: p.MaxConnectRetries,
		MaxPeers:          p.MaxPeers,
		AutoConnect:       p.AutoConnect,
		AcceptConnections: p.AcceptConnections,
	}
}

// UDPDriver returns the driver settings for address addr.
func (c Config) UDPDriver(addr proto.Address) udp.Config {
	return udp.Config{Address: addr, Group: c.UDP.Group, Interface: c.UDP.Interface}
}
