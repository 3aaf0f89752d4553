package transport

import (
	proto "github.com/ystepanoff/nowlink/protocol"
)

// Tick runs one reconciliation pass followed by keepalive traffic, then
// publishes the peer snapshot. Run calls it on every reconcile interval.
func (n *Node) Tick() {
	n.Reconcile()
	n.keepalive()
	n.publish()
}

// Reconcile walks the table once in insertion order and applies the timeout
// and handshake rules to every peer.
func (n *Node) Reconcile() {
	now := n.clock()
	n.table.Each(func(_ int, p *proto.Peer) {
		rule, fire := proto.NextOnReconcile(p, now, n.timeouts)
		if !fire {
			return
		}
		if rule.Action == proto.ActionSendConnect {
			p.ConnectTimeUs = now
			if err := n.sendUnicast(p, proto.FrameTypeConnect, proto.NACK, nil); err != nil {
				n.log.Warn().Err(err).Str("peer", p.Address.String()).Msg("connect request not sent")
			}
		}
		n.setStatus(p, rule.To)
	})
	n.metrics.passes.Inc(1)
	n.connected.Store(n.table.CountConnected() > 0)
}

// keepalive announces the node and keeps connected peers fresh.
func (n *Node) keepalive() {
	now := n.clock()

	if every := n.cfg.BeaconInterval.Microseconds(); every > 0 {
		if !n.beaconSent || now-n.lastBeaconUs >= every {
			n.lastBeaconUs = now
			n.beaconSent = true
			if err := n.sendBroadcast(proto.FrameTypeBeacon, nil); err != nil {
				n.log.Warn().Err(err).Msg("beacon not sent")
			}
		}
	}

	every := n.cfg.HeartbeatInterval.Microseconds()
	if every <= 0 {
		return
	}
	n.table.Each(func(_ int, p *proto.Peer) {
		if p.Status != proto.StatusConnected || now-p.LastSentUnicastUs < every {
			return
		}
		if err := n.sendUnicast(p, proto.FrameTypeHeartbeat, proto.NACK, nil); err != nil {
			n.log.Warn().Err(err).Str("peer", p.Address.String()).Msg("heartbeat not sent")
		}
	})
}
