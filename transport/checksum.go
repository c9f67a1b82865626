package transport

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/snksoft/crc"
)

var crcTable = crc.NewTable(crc.CCITT)

// checksumOf computes the CRC-16/CCITT of payload the same way
// nkt's telegram framing does: init, update, then reduce to 16 bits.
func checksumOf(payload []byte) uint16 {
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, payload)
	return crcTable.CRC16(c)
}

// ChecksummedHost wraps a Host with a CRC-16/CCITT trailer on every line, for
// a serial link run over a long or noisy cable where silent corruption is a
// real risk. Frames look like "G01 X10 Y0*E710\n"; a frame whose trailer
// doesn't match its payload is dropped rather than fed to Protocol.
type ChecksummedHost struct {
	*Host

	buf []byte

	// Corrupt counts frames dropped for a checksum mismatch.
	Corrupt uint64
}

// NewChecksummedHost wraps host with checksum framing.
func NewChecksummedHost(host *Host) *ChecksummedHost {
	return &ChecksummedHost{Host: host}
}

// WriteLine appends a "*XXXX" CRC-16/CCITT trailer (uppercase hex) to s
// before writing it, so the remote end can validate the frame.
func (c *ChecksummedHost) WriteLine(s string) error {
	sum := checksumOf([]byte(s))
	return c.Host.WriteLine(fmt.Sprintf("%s*%04X", s, sum))
}

// RunUntilClosed reads raw bytes from the connection, passing real-time
// bytes straight through to Protocol.Feed, and validating the checksum
// trailer of every line before feeding its payload. A line whose trailer
// doesn't match its computed checksum increments Corrupt and is dropped.
func (c *ChecksummedHost) RunUntilClosed() error {
	c.mu.Lock()
	conn := c.Conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	read := make([]byte, RxChunk)
	for {
		n, err := conn.Read(read)
		for i := 0; i < n; i++ {
			c.feedByte(read[i])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (c *ChecksummedHost) feedByte(b byte) {
	if isRealTimeByte(b) {
		c.Protocol.Feed([]byte{b})
		return
	}
	if b == '\n' {
		c.completeFrame()
		return
	}
	c.buf = append(c.buf, b)
}

func (c *ChecksummedHost) completeFrame() {
	line := string(c.buf)
	c.buf = c.buf[:0]

	idx := strings.LastIndexByte(line, '*')
	if idx < 0 || len(line)-idx != 5 {
		atomic.AddUint64(&c.Corrupt, 1)
		return
	}
	payload, sumHex := line[:idx], line[idx+1:]
	got, err := strconv.ParseUint(sumHex, 16, 16)
	if err != nil || uint16(got) != checksumOf([]byte(payload)) {
		atomic.AddUint64(&c.Corrupt, 1)
		return
	}
	c.Protocol.Feed(append(bytes.TrimRight([]byte(payload), " \t"), '\n'))
}

func isRealTimeByte(b byte) bool {
	switch b {
	case 0x18, '?', '!', '~':
		return true
	default:
		return false
	}
}
