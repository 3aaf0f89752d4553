package output

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	proto "github.com/ystepanoff/nowlink/protocol"
	"github.com/ystepanoff/nowlink/transport"
)

func samplePeers() []transport.PeerInfo {
	return []transport.PeerInfo{
		{Index: 0, Address: proto.Address{0x02, 0, 0, 0, 0, 0x0b}, Status: proto.StatusConnected, SeqTx: 4, LastSeenUnicastUs: 900_000},
		{Index: 1, Address: proto.Address{0x02, 0, 0, 0, 0, 0x0c}, Status: proto.StatusNoReply, ConnRetry: 1, LastSeenBroadcastUs: 500_000},
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format string
		check  func(Formatter) bool
	}{
		{"", func(f Formatter) bool { _, ok := f.(*TableFormatter); return ok }},
		{"TABLE", func(f Formatter) bool { _, ok := f.(*TableFormatter); return ok }},
		{"json", func(f Formatter) bool { _, ok := f.(*JSONFormatter); return ok }},
		{"yml", func(f Formatter) bool { _, ok := f.(*YAMLFormatter); return ok }},
	}
	for _, tt := range tests {
		f, err := NewFormatter(tt.format)
		if err != nil {
			t.Fatalf("NewFormatter(%q) error = %v", tt.format, err)
		}
		if !tt.check(f) {
			t.Errorf("NewFormatter(%q) = %T", tt.format, f)
		}
	}
	if _, err := NewFormatter("xml"); err == nil {
		t.Error("NewFormatter(xml) succeeded")
	}
}

func TestTableFormatter_PeerRows(t *testing.T) {
	out := (&TableFormatter{}).Format(PeerRows(samplePeers(), 1_000_000))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), out)
	}
	for _, col := range []string{"#", "ADDRESS", "SEQ TX", "LAST SEEN", "STATUS"} {
		if !strings.Contains(lines[0], col) {
			t.Errorf("header %q missing %q", lines[0], col)
		}
	}
	if !strings.Contains(lines[1], "02:00:00:00:00:0b") || !strings.HasSuffix(lines[1], "CONNECTED") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[1], "100ms ago") || !strings.Contains(lines[2], "500ms ago") {
		t.Errorf("ages not rendered: %q / %q", lines[1], lines[2])
	}
}

func TestTableFormatter_Empty(t *testing.T) {
	if out := (&TableFormatter{}).Format([]PeerRow{}); out != "No peers found.\n" {
		t.Errorf("Format(empty) = %q", out)
	}
}

func TestTableFormatter_Map(t *testing.T) {
	out := (&TableFormatter{}).Format(map[string]int64{"tx.frames": 3, "rx.frames": 5})
	if strings.Index(out, "rx.frames") > strings.Index(out, "tx.frames") {
		t.Errorf("map keys not sorted:\n%s", out)
	}
}

func TestTableFormatter_Colorize(t *testing.T) {
	f := &TableFormatter{Colorize: func(column, value string) string {
		if column == "STATUS" {
			return "<" + value + ">"
		}
		return value
	}}
	out := f.Format(PeerRows(samplePeers(), 1_000_000))
	if !strings.Contains(out, "<CONNECTED>") || strings.Contains(out, "<02:") {
		t.Errorf("Colorize applied to the wrong cells:\n%s", out)
	}
	if ColorizeStatus("ADDRESS", "x") != "x" {
		t.Error("ColorizeStatus touched a non-status column")
	}
}

func TestStructuredFormatters(t *testing.T) {
	rows := PeerRows(samplePeers(), 1_000_000)

	var fromJSON []PeerRow
	if err := json.Unmarshal([]byte((&JSONFormatter{}).Format(rows)), &fromJSON); err != nil {
		t.Fatalf("JSON output: %v", err)
	}
	var fromYAML []PeerRow
	if err := yaml.Unmarshal([]byte((&YAMLFormatter{}).Format(rows)), &fromYAML); err != nil {
		t.Fatalf("YAML output: %v", err)
	}
	if len(fromJSON) != 2 || len(fromYAML) != 2 {
		t.Fatalf("decoded %d JSON / %d YAML rows, want 2", len(fromJSON), len(fromYAML))
	}
	if fromJSON[1] != rows[1] || fromYAML[0] != rows[0] {
		t.Errorf("rows differ: %+v / %+v", fromJSON[1], fromYAML[0])
	}
}
