// Package transport drives a byte stream (serial or TCP) against a
// protocol.Protocol: reads are fed into the framer in bounded chunks, writes
// carry status reports and echoes back out to the host. It is adapted from
// comm.RemoteDevice's open/close/reconnect shape, narrowed to the
// core's one-directional feed loop instead of a request/response cycle.
package transport

import (
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/tarm/serial"

	"github.com/weftlabs/enginecore/protocol"
)

// RxChunk is the recommended maximum read size per Feed call (spec §5): it
// bounds the latency of real-time byte dispatch, since real-time bytes are
// only handled synchronously as Feed walks a chunk.
const RxChunk = 64

// ErrNotOpen is returned by WriteLine/RunUntilClosed when called before Open
// has established a connection.
var ErrNotOpen = errors.New("transport: not connected")

// Transport is the interface cmd/enginectl drives — satisfied by both Host
// and ChecksummedHost, so the host loop doesn't care which framing the
// configured link uses.
type Transport interface {
	Open() error
	Close() error
	WriteLine(s string) error
	RunUntilClosed() error
}

// Host owns one connection (serial or TCP) and feeds everything it reads
// into a protocol.Protocol.
type Host struct {
	mu sync.Mutex

	Addr         string
	IsSerial     bool
	SerialConfig *serial.Config
	DialTimeout  time.Duration

	Conn     io.ReadWriteCloser
	Protocol *protocol.Protocol
}

// NewHost returns a Host bound to addr and ready to Open. For a serial link
// set isSerial true and provide serialCfg; for TCP leave serialCfg nil.
func NewHost(addr string, isSerial bool, serialCfg *serial.Config, p *protocol.Protocol) *Host {
	return &Host{
		Addr:         addr,
		IsSerial:     isSerial,
		SerialConfig: serialCfg,
		DialTimeout:  3 * time.Second,
		Protocol:     p,
	}
}

// Open dials the configured connection, retrying with exponential backoff
// the way comm.RemoteDevice.Open does — lab links (and the WiFi-bridge
// boards some of these controllers sit behind) don't like being thrashed by
// a tight reconnect loop.
func (h *Host) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Conn != nil {
		return nil
	}

	var conn io.ReadWriteCloser
	op := func() error {
		var err error
		if h.IsSerial {
			conn, err = serial.OpenPort(h.SerialConfig)
		} else {
			conn, err = net.DialTimeout("tcp", h.Addr, h.DialTimeout)
		}
		return err
	}

	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      h.DialTimeout,
		Clock:               backoff.SystemClock,
	})
	if err != nil {
		return errors.Wrapf(err, "transport: opening %s", h.Addr)
	}
	h.Conn = conn
	return nil
}

// Close closes the underlying connection, tolerating an already-closed one.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Conn == nil {
		return nil
	}
	err := h.Conn.Close()
	h.Conn = nil
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "closed") {
		return nil
	}
	return err
}

// WriteLine writes s followed by a newline to the connection — used for
// status reports and any other host-directed output.
func (h *Host) WriteLine(s string) error {
	h.mu.Lock()
	conn := h.Conn
	h.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}
	_, err := conn.Write([]byte(s + "\n"))
	return err
}

// RunUntilClosed reads from the connection in RxChunk-sized chunks, feeding
// each into Protocol, until a read error (including a closed connection)
// ends the loop. It is meant to run in its own goroutine for the lifetime
// of the connection.
func (h *Host) RunUntilClosed() error {
	h.mu.Lock()
	conn := h.Conn
	h.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	buf := make([]byte, RxChunk)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			h.Protocol.Feed(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "transport: read")
		}
	}
}
