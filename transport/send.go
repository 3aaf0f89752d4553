package transport

import (
	"fmt"

	proto "github.com/ystepanoff/nowlink/protocol"
)

// sendTo picks the link mode for dst: unicast to a CONNECTED peer, broadcast
// for everyone else.
func (n *Node) sendTo(dst proto.Address, t proto.FrameType, payload []byte) error {
	if !dst.IsBroadcast() {
		if p, _ := n.table.Lookup(dst); p != nil && p.Status == proto.StatusConnected {
			return n.sendUnicast(p, t, proto.NACK, payload)
		}
	}
	return n.sendBroadcast(t, payload)
}

// sendUnicast sends to a known peer using and advancing its own sequence.
func (n *Node) sendUnicast(p *proto.Peer, t proto.FrameType, ack proto.AckFlag, payload []byte) error {
	seq := p.SeqTx
	p.SeqTx++
	p.LastSentUnicastUs = n.clock()
	return n.transmit(p.Address, &proto.Frame{
		Ack:       ack,
		Salt:      proto.NewSalt(),
		Type:      t,
		Broadcast: proto.Unicast,
		Seq:       seq,
		Payload:   payload,
	})
}

// sendBroadcast sends to every node in range using the node-wide sequence.
func (n *Node) sendBroadcast(t proto.FrameType, payload []byte) error {
	seq := n.seqTx
	n.seqTx++
	return n.transmit(proto.BroadcastAddress, &proto.Frame{
		Ack:       proto.NACK,
		Salt:      proto.NewSalt(),
		Type:      t,
		Broadcast: proto.Broadcast,
		Seq:       seq,
		Payload:   payload,
	})
}

// transmit encodes f and hands it to the driver. The driver must be done with
// the buffer when Send returns.
func (n *Node) transmit(dst proto.Address, f *proto.Frame) error {
	data, err := proto.EncodeFrame(f)
	if err != nil {
		return err
	}
	if err := n.driver.Send(dst, data); err != nil {
		n.metrics.txErrors.Inc(1)
		n.log.Warn().Err(err).Str("dst", dst.String()).Stringer("type", f.Type).Msg("transport send failed")
		return fmt.Errorf("%w: %v", proto.ErrTransport, err)
	}
	n.metrics.txFrames.Inc(1)
	n.log.Debug().
		Str("dst", dst.String()).
		Stringer("type", f.Type).
		Stringer("ack", f.Ack).
		Uint16("seq", f.Seq).
		Int("len", len(f.Payload)).
		Msg("frame sent")
	return nil
}
