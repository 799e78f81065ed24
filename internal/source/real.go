package source

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// maxLineLen bounds a partial line; longer garbage is discarded.
const maxLineLen = 256

// readChunk is the size of one port read. It holds many sample lines, so a
// single read picks up everything the bridge sent during one poll interval.
const readChunk = 1024

// RealReader reads samples from the sensor bridge over a serial port.
type RealReader struct {
	port    io.ReadCloser
	buf     []byte
	pending []byte
}

// NewRealReader opens the serial port at path (8N1) with the given read timeout.
func NewRealReader(path string, baud int, timeout time.Duration) (*RealReader, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return newReader(port), nil
}

func newReader(port io.ReadCloser) *RealReader {
	return &RealReader{
		port: port,
		buf:  make([]byte, readChunk),
	}
}

// Read returns the next complete, non-blank line as a sample.
// A read that times out before a full line arrives returns ErrTimeout; the
// partial line is kept for the next call.
func (r *RealReader) Read() (Sample, error) {
	for {
		if i := bytes.IndexByte(r.pending, '\n'); i >= 0 {
			line := string(r.pending[:i])
			r.pending = r.pending[i+1:]
			s, err := ParseLine(line)
			if err == ErrEmptyLine {
				continue
			}
			return s, err
		}

		n, err := r.port.Read(r.buf)
		if n > 0 {
			r.pending = append(r.pending, r.buf[:n]...)
			if len(r.pending) > maxLineLen && bytes.IndexByte(r.pending, '\n') < 0 {
				r.pending = r.pending[:0]
			}
			continue
		}
		if err != nil {
			return Sample{}, fmt.Errorf("read serial: %w", err)
		}
		return Sample{}, ErrTimeout
	}
}

// Pending reports whether a complete line is buffered.
func (r *RealReader) Pending() bool {
	return bytes.IndexByte(r.pending, '\n') >= 0
}

// Close releases the serial port.
func (r *RealReader) Close() error {
	return r.port.Close()
}
