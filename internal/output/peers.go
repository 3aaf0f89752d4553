package output

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ystepanoff/nowlink/transport"
)

// PeerRow is a single row in a peer listing. STATUS is last so colour codes
// do not disturb column alignment.
type PeerRow struct {
	Index    int    `json:"index" yaml:"index" table:"#"`
	Address  string `json:"address" yaml:"address" table:"ADDRESS"`
	SeqTx    uint16 `json:"seq_tx" yaml:"seq_tx" table:"SEQ TX"`
	SeqRx    uint16 `json:"seq_rx" yaml:"seq_rx" table:"SEQ RX"`
	Retries  uint32 `json:"retries" yaml:"retries" table:"RETRIES"`
	LastSeen string `json:"last_seen" yaml:"last_seen" table:"LAST SEEN"`
	Status   string `json:"status" yaml:"status" table:"STATUS"`
}

// PeerRows converts a node's peer snapshot taken at nowUs into table rows.
func PeerRows(peers []transport.PeerInfo, nowUs int64) []PeerRow {
	rows := make([]PeerRow, 0, len(peers))
	for _, p := range peers {
		last := max(p.LastSeenBroadcastUs, p.LastSeenUnicastUs)
		age := time.Duration(max(nowUs-last, 0)) * time.Microsecond
		rows = append(rows, PeerRow{
			Index:    p.Index,
			Address:  p.Address.String(),
			SeqTx:    p.SeqTx,
			SeqRx:    p.SeqRx,
			Retries:  p.ConnRetry,
			LastSeen: age.Round(time.Millisecond).String() + " ago",
			Status:   p.Status.String(),
		})
	}
	return rows
}

// statusColor returns a lipgloss foreground colour for a peer status string.
func statusColor(status string) lipgloss.Color {
	switch strings.ToUpper(status) {
	case "CONNECTED":
		return lipgloss.Color("2") // green
	case "CONNECTING", "AVAILABLE":
		return lipgloss.Color("6") // cyan
	case "IN_RANGE", "UNKNOWN":
		return lipgloss.Color("3") // yellow
	case "NOREPLY", "REJECTED", "PROTOCOL_ERROR":
		return lipgloss.Color("1") // red
	default:
		return lipgloss.Color("8") // grey
	}
}

// ColorizeStatus styles the STATUS column and leaves every other cell alone.
func ColorizeStatus(column, value string) string {
	if column != "STATUS" {
		return value
	}
	return lipgloss.NewStyle().Foreground(statusColor(value)).Render(value)
}

// NewPeerFormatter is NewFormatter with status colouring for tables.
func NewPeerFormatter(format string, color bool) (Formatter, error) {
	f, err := NewFormatter(format)
	if err != nil {
		return nil, err
	}
	if tf, ok := f.(*TableFormatter); ok && color {
		tf.Colorize = ColorizeStatus
	}
	return f, nil
}
