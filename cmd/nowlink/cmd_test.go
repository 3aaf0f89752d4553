package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ystepanoff/nowlink/internal/config"
	proto "github.com/ystepanoff/nowlink/protocol"
)

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--log-level", "off", "--no-color"}, args...))

	// flags keep their values between Execute calls
	outputFormat = "table"
	frameUnicast, frameAck, framePayload, frameText = false, false, "", ""
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "nowlink version") {
		t.Errorf("expected output to contain 'nowlink version', got: %s", out)
	}
}

func TestFrameEncodeCommand(t *testing.T) {
	out, err := executeCommand("frame", "encode", "--type", "text", "--unicast", "--seq", "7", "--salt", "1", "--text", "hi")
	if err != nil {
		t.Fatalf("frame encode failed: %v", err)
	}
	data, err := hex.DecodeString(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("output is not hex: %q", out)
	}
	f, err := proto.DecodeFrame(data)
	if err != nil {
		t.Fatalf("encoded frame does not decode: %v", err)
	}
	if f.Type != proto.FrameTypeText || f.Broadcast != proto.Unicast || f.Seq != 7 || f.Salt != 1 || string(f.Payload) != "hi" {
		t.Errorf("decoded %+v", f)
	}
}

func TestFrameEncodeRejectsUnknownType(t *testing.T) {
	_, err := executeCommand("frame", "encode", "--type", "shout")
	if !errors.Is(err, proto.ErrInvalidArgument) {
		t.Errorf("error = %v, want %v", err, proto.ErrInvalidArgument)
	}
}

func TestFrameDecodeCommand(t *testing.T) {
	data, err := proto.EncodeFrame(&proto.Frame{Ack: proto.ACK, Salt: 0xCAFEBABE, Type: proto.FrameTypeConnect, Broadcast: proto.Unicast, Seq: 3})
	if err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand("frame", "decode", hex.EncodeToString(data))
	if err != nil {
		t.Fatalf("frame decode failed: %v", err)
	}
	for _, want := range []string{"CONNECT", "ACK", "UNICAST", "cafebabe"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}

	data[len(data)-1] ^= 0xFF
	data = append(data, 0x00)
	if _, err := executeCommand("frame", "decode", hex.EncodeToString(data)); !proto.IsFrameError(err) {
		t.Errorf("decode of corrupt frame error = %v, want a frame error", err)
	}
}

func TestSimCommand(t *testing.T) {
	out, err := executeCommand("sim", "--nodes", "2", "--duration", "300ms", "--seed", "1", "-o", "json")
	if err != nil {
		t.Fatalf("sim command failed: %v", err)
	}
	var report []simNode
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("sim output is not JSON: %v\n%s", err, out)
	}
	if len(report) != 2 {
		t.Fatalf("report has %d nodes, want 2", len(report))
	}
	for _, r := range report {
		if len(r.Peers) != 1 {
			t.Errorf("%s sees %d peers, want 1", r.Address, len(r.Peers))
		}
		if r.Stats["tx.frames"] == 0 {
			t.Errorf("%s sent nothing", r.Address)
		}
	}
}

func TestSimCommandRejectsBadFlags(t *testing.T) {
	if _, err := executeCommand("sim", "--nodes", "0", "--duration", "10ms"); !errors.Is(err, proto.ErrInvalidArgument) {
		t.Errorf("error = %v, want %v", err, proto.ErrInvalidArgument)
	}
	if _, err := executeCommand("sim", "--nodes", "2", "--duration", "10ms", "--loss", "2"); !errors.Is(err, proto.ErrInvalidArgument) {
		t.Errorf("error = %v, want %v", err, proto.ErrInvalidArgument)
	}
	simNodes, simLoss = 3, 0
}

func TestUnknownOutputFormat(t *testing.T) {
	if _, err := executeCommand("-o", "xml", "version"); err == nil {
		t.Error("expected an error for an unknown output format")
	}
}

func TestNodeLoggerCarriesName(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	named := nodeLogger(base, config.NodeConfig{Name: "alpha"})
	named.Info().Msg("up")
	if !strings.Contains(buf.String(), `"name":"alpha"`) {
		t.Errorf("log line %q lacks the node name", buf.String())
	}

	buf.Reset()
	unnamed := nodeLogger(base, config.NodeConfig{})
	unnamed.Info().Msg("up")
	if strings.Contains(buf.String(), `"name"`) {
		t.Errorf("log line %q has a name field for an unnamed node", buf.String())
	}
}
