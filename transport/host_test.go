package transport_test

import (
	"net"
	"testing"
	"time"

	"github.com/weftlabs/enginecore/protocol"
	"github.com/weftlabs/enginecore/transport"
)

func newProtocol(t *testing.T) (*protocol.Protocol, chan protocol.CompletedLine) {
	t.Helper()
	p, err := protocol.New(protocol.DefaultLineCapacity, protocol.DefaultQueueCapacity, protocol.DefaultOptions())
	if err != nil {
		t.Fatalf("protocol.New: %v", err)
	}
	lines := make(chan protocol.CompletedLine, 16)
	p.LineFunc = func(cl protocol.CompletedLine) { lines <- cl }
	return p, lines
}

func TestHostFeedsProtocolFromConnection(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p, lines := newProtocol(t)
	h := &transport.Host{Conn: client, Protocol: p}

	done := make(chan error, 1)
	go func() { done <- h.RunUntilClosed() }()

	go func() {
		server.Write([]byte("G00 X10 Y0\n"))
	}()

	select {
	case cl := <-lines:
		if cl.Text != "G00 X10 Y0" {
			t.Fatalf("unexpected line: %q", cl.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a line")
	}

	client.Close()
	server.Close()
	<-done
}

func TestHostWriteLineWritesToConnection(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	h := &transport.Host{Conn: client}

	go func() {
		h.WriteLine("<Idle|MPos:0.000,0.000,0.000|WPos:0.000,0.000,0.000|F:0.0|S:0>")
	}()

	buf := make([]byte, 128)
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := string(buf[:n])
	if got[len(got)-1] != '\n' {
		t.Fatalf("expected trailing newline, got %q", got)
	}
}

func TestHostWriteLineFailsWhenNotOpen(t *testing.T) {
	h := &transport.Host{}
	if err := h.WriteLine("hello"); err != transport.ErrNotOpen {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestHostRunUntilClosedFailsWhenNotOpen(t *testing.T) {
	h := &transport.Host{}
	if err := h.RunUntilClosed(); err != transport.ErrNotOpen {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

// captureValidFrame uses a throwaway ChecksummedHost's own WriteLine to
// produce a correctly-checksummed wire frame for payload, without depending
// on the trailer's exact value (an unexported implementation detail).
func captureValidFrame(t *testing.T, payload string) string {
	t.Helper()
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	ch := transport.NewChecksummedHost(&transport.Host{Conn: client})
	go ch.WriteLine(payload)

	buf := make([]byte, 128)
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return string(buf[:n])
}

func TestChecksummedHostAcceptsValidFrameAndRejectsCorruptOne(t *testing.T) {
	valid := captureValidFrame(t, "G00 X1 Y0")
	corrupt := valid[:len(valid)-2] + "Z\n" // trailer's last hex digit is never 'Z'

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	p, lines := newProtocol(t)
	h := &transport.Host{Conn: client, Protocol: p}
	ch := transport.NewChecksummedHost(h)

	done := make(chan error, 1)
	go func() { done <- ch.RunUntilClosed() }()

	go func() {
		server.Write([]byte(corrupt))
		server.Write([]byte(valid))
	}()

	select {
	case cl := <-lines:
		if cl.Text != "G00 X1 Y0" {
			t.Fatalf("unexpected accepted line: %q", cl.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the valid frame to be accepted")
	}

	if ch.Corrupt == 0 {
		t.Fatal("expected the corrupted frame to be counted")
	}

	client.Close()
	server.Close()
	<-done
}

func TestChecksummedHostWriteLineAppendsValidatingTrailer(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	h := &transport.Host{Conn: client}
	ch := transport.NewChecksummedHost(h)

	go func() { ch.WriteLine("status") }()

	buf := make([]byte, 64)
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := string(buf[:n])
	if len(got) < 6 || got[len(got)-6] != '*' {
		t.Fatalf("expected a *XXXX trailer before the newline, got %q", got)
	}
}
