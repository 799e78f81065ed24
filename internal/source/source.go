// Package source delivers raw (proximity, light) sample pairs from the
// sensor bridge. The real implementation reads a line protocol from a serial
// port; the fake implementation allows testing without hardware.
package source

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Reader reads raw sensor samples.
type Reader interface {
	// Read returns the next sample.
	Read() (Sample, error)

	// Pending reports whether another complete sample is already buffered,
	// so the next Read will not wait on the port.
	Pending() bool

	// Close releases the underlying port.
	Close() error
}

// Sample is one raw reading from one sensor channel.
type Sample struct {
	Channel   uint8
	Proximity uint16
	Light     uint16
}

var (
	// ErrEmptyLine is returned by ParseLine for blank lines.
	ErrEmptyLine = errors.New("source: empty line")
	// ErrFieldCount is returned when a line has neither 2 nor 3 fields.
	ErrFieldCount = errors.New("source: wrong field count")
	// ErrTimeout is returned when no complete line arrives within the read timeout.
	ErrTimeout = errors.New("source: read timeout")
)

// ParseLine parses "<ps>,<als>" (channel 0) or "<channel>,<ps>,<als>".
// Values must fit the sensor's 16-bit counters.
func ParseLine(line string) (Sample, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Sample{}, ErrEmptyLine
	}

	fields := strings.Split(line, ",")
	var s Sample
	switch len(fields) {
	case 2:
	case 3:
		ch, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 8)
		if err != nil {
			return Sample{}, fmt.Errorf("parse channel %q: %w", fields[0], err)
		}
		s.Channel = uint8(ch)
		fields = fields[1:]
	default:
		return Sample{}, fmt.Errorf("%d fields in %q: %w", len(fields), line, ErrFieldCount)
	}

	ps, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 16)
	if err != nil {
		return Sample{}, fmt.Errorf("parse proximity %q: %w", fields[0], err)
	}
	als, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		return Sample{}, fmt.Errorf("parse light %q: %w", fields[1], err)
	}
	s.Proximity = uint16(ps)
	s.Light = uint16(als)
	return s, nil
}
