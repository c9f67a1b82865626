package protocol_test

import (
	"strings"
	"testing"

	"github.com/weftlabs/enginecore/protocol"
)

func newTestProtocol(t *testing.T) *protocol.Protocol {
	t.Helper()
	p, err := protocol.New(protocol.DefaultLineCapacity, protocol.DefaultQueueCapacity, protocol.DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestBasicLineDelivery(t *testing.T) {
	p := newTestProtocol(t)
	p.Feed([]byte("g01 x10 y20\n"))
	cl, ok := p.Pop()
	if !ok {
		t.Fatal("expected a queued line")
	}
	if cl.Text != "G01 X10 Y20" {
		t.Fatalf("got %q", cl.Text)
	}
	if cl.Status != protocol.OK {
		t.Fatalf("expected OK status, got %v", cl.Status)
	}
}

func TestEmptyLineIgnored(t *testing.T) {
	p := newTestProtocol(t)
	p.Feed([]byte("   \t \n"))
	if p.Len() != 0 {
		t.Fatalf("expected empty line to be ignored, queue len = %d", p.Len())
	}
}

func TestDollarCommandDroppedWhenDisabled(t *testing.T) {
	opts := protocol.DefaultOptions()
	opts.AllowDollarCommands = false
	p, err := protocol.New(protocol.DefaultLineCapacity, protocol.DefaultQueueCapacity, opts)
	if err != nil {
		t.Fatal(err)
	}
	p.Feed([]byte("$100=250\n"))
	if p.Len() != 0 {
		t.Fatalf("expected $ line to be dropped, queue len = %d", p.Len())
	}
}

func TestParenComment(t *testing.T) {
	p := newTestProtocol(t)
	p.Feed([]byte("G01 (comment with ; inside) X10\n"))
	cl, ok := p.Pop()
	if !ok {
		t.Fatal("expected a queued line")
	}
	if cl.Text != "G01  X10" {
		t.Fatalf("got %q", cl.Text)
	}
}

func TestSemicolonCommentHonorsRealTime(t *testing.T) {
	p := newTestProtocol(t)
	var events []protocol.RealTimeEvent
	p.RealTimeFunc = func(e protocol.RealTimeEvent) { events = append(events, e) }
	p.Feed([]byte("G01 X10 ; trailing comment ? more\n"))
	if len(events) != 1 || events[0] != protocol.StatusQuery {
		t.Fatalf("expected one StatusQuery event inside the comment, got %v", events)
	}
	cl, ok := p.Pop()
	if !ok {
		t.Fatal("expected the line accumulated before the comment to be delivered")
	}
	if cl.Text != "G01 X10" {
		t.Fatalf("got %q", cl.Text)
	}
}

func TestOverflow(t *testing.T) {
	p := newTestProtocol(t)
	longLine := strings.Repeat("X", 200)
	p.Feed([]byte(longLine))
	p.Feed([]byte("\n"))
	cl, ok := p.Pop()
	if !ok {
		t.Fatal("expected an overflowed line to still be delivered")
	}
	if cl.Status != protocol.Overflow {
		t.Fatalf("expected Overflow status, got %v", cl.Status)
	}
	if len(cl.Text) > protocol.DefaultLineCapacity {
		t.Fatalf("delivered overflow line length %d exceeds L=%d", len(cl.Text), protocol.DefaultLineCapacity)
	}
}

func TestRealTimePrecedence(t *testing.T) {
	p := newTestProtocol(t)
	var fired bool
	p.LineFunc = func(cl protocol.CompletedLine) {
		if !fired {
			t.Fatalf("line %q delivered before real-time event fired", cl.Text)
		}
	}
	p.RealTimeFunc = func(e protocol.RealTimeEvent) {
		if e == protocol.StatusQuery {
			fired = true
		}
	}
	p.Feed([]byte("G01 X10?\n"))
	if !fired {
		t.Fatal("expected status query to fire")
	}
}

func TestResetClearsBufferAndQueue(t *testing.T) {
	p := newTestProtocol(t)
	p.Feed([]byte("G01 X10 Y20\n"))
	p.Feed([]byte("G01 X"))
	p.Feed([]byte{0x18})
	if p.Len() != 0 {
		t.Fatalf("expected reset to clear queue, len=%d", p.Len())
	}
	if p.BufferedLen() != 0 {
		t.Fatalf("expected reset to clear in-progress buffer, len=%d", p.BufferedLen())
	}
}

func TestQueueDropsNewestWhenFull(t *testing.T) {
	p, err := protocol.New(protocol.DefaultLineCapacity, protocol.MinQueueCapacity, protocol.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	p.Feed([]byte("G01 X1\n"))
	p.Feed([]byte("G01 X2\n"))
	cl, ok := p.Pop()
	if !ok || cl.Text != "G01 X1" {
		t.Fatalf("expected the first line to survive, got %+v ok=%v", cl, ok)
	}
	if _, ok := p.Pop(); ok {
		t.Fatal("expected the second line to have been dropped")
	}
}

func TestOrdering(t *testing.T) {
	p := newTestProtocol(t)
	p.Feed([]byte("G01 X1\nG01 X2\nG01 X3\n"))
	want := []string{"G01 X1", "G01 X2", "G01 X3"}
	for _, w := range want {
		cl, ok := p.Pop()
		if !ok || cl.Text != w {
			t.Fatalf("expected %q, got %+v ok=%v", w, cl, ok)
		}
	}
}

func TestInvalidCapacities(t *testing.T) {
	if _, err := protocol.New(16, protocol.DefaultQueueCapacity, protocol.DefaultOptions()); err == nil {
		t.Fatal("expected error for too-small line capacity")
	}
	if _, err := protocol.New(protocol.DefaultLineCapacity, 0, protocol.DefaultOptions()); err == nil {
		t.Fatal("expected error for too-small queue capacity")
	}
}
