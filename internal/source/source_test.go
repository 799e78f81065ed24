package source

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Sample
	}{
		{"750,100", Sample{Channel: 0, Proximity: 750, Light: 100}},
		{"  750 , 100 \r", Sample{Channel: 0, Proximity: 750, Light: 100}},
		{"2,65535,0", Sample{Channel: 2, Proximity: 65535, Light: 0}},
		{"0,0", Sample{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	_, err := ParseLine("   ")
	assert.ErrorIs(t, err, ErrEmptyLine)

	_, err = ParseLine("1")
	assert.ErrorIs(t, err, ErrFieldCount)

	_, err = ParseLine("1,2,3,4")
	assert.ErrorIs(t, err, ErrFieldCount)

	for _, bad := range []string{"65536,0", "0,70000", "-1,5", "abc,5", "256,1,1", "1,,1"} {
		_, err := ParseLine(bad)
		assert.Error(t, err, "line %q", bad)
	}
}

// chunkPort returns scripted chunks from Read, one per call, then io.EOF or
// timeouts (0, nil).
type chunkPort struct {
	chunks []string
	eof    bool
	closed bool
}

func (p *chunkPort) Read(b []byte) (int, error) {
	if len(p.chunks) == 0 {
		if p.eof {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(b, p.chunks[0])
	p.chunks[0] = p.chunks[0][n:]
	if p.chunks[0] == "" {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *chunkPort) Close() error {
	p.closed = true
	return nil
}

func TestRealReaderSplitsLines(t *testing.T) {
	port := &chunkPort{chunks: []string{"750,1", "00\n\n1,", "680,5\r\n7", "00,0\n"}}
	r := newReader(port)

	want := []Sample{
		{Proximity: 750, Light: 100},
		{Channel: 1, Proximity: 680, Light: 5},
		{Proximity: 700, Light: 0},
	}
	for i, w := range want {
		got, err := r.Read()
		require.NoError(t, err, "sample %d", i)
		assert.Equal(t, w, got, "sample %d", i)
	}

	_, err := r.Read()
	assert.ErrorIs(t, err, ErrTimeout)

	require.NoError(t, r.Close())
	assert.True(t, port.closed)
}

func TestRealReaderKeepsPartialLineAcrossTimeout(t *testing.T) {
	port := &chunkPort{chunks: []string{"75"}}
	r := newReader(port)

	_, err := r.Read()
	require.ErrorIs(t, err, ErrTimeout)

	port.chunks = []string{"0,9\n"}
	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, Sample{Proximity: 750, Light: 9}, got)
}

func TestRealReaderDiscardsOverlongGarbage(t *testing.T) {
	port := &chunkPort{chunks: []string{strings.Repeat("x", maxLineLen+10), "12,34\n"}}
	r := newReader(port)

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, Sample{Proximity: 12, Light: 34}, got)
}

func TestRealReaderBadLine(t *testing.T) {
	port := &chunkPort{chunks: []string{"garbage\n1,2\n"}}
	r := newReader(port)

	_, err := r.Read()
	assert.Error(t, err)

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, Sample{Proximity: 1, Light: 2}, got)
}

func TestRealReaderPortError(t *testing.T) {
	r := newReader(&chunkPort{eof: true})
	_, err := r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFakeReaderRead(t *testing.T) {
	samples := []Sample{
		{Proximity: 100, Light: 10},
		{Proximity: 750, Light: 0},
	}
	f := NewFakeReader(samples)

	for i, want := range append(samples, samples[1]) {
		got, err := f.Read()
		require.NoError(t, err)
		assert.Equal(t, want, got, "read %d", i)
	}

	f.Reset()
	got, _ := f.Read()
	assert.Equal(t, samples[0], got, "after reset")
}

func TestFakeReaderNoSamples(t *testing.T) {
	_, err := NewFakeReader(nil).Read()
	assert.Error(t, err)
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Sample{{Proximity: 1}})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	assert.EqualError(t, err, "simulated error")
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]Sample{{Proximity: 1}})
	assert.False(t, f.Closed)
	require.NoError(t, f.Close())
	assert.True(t, f.Closed)
}

func TestRealReaderPending(t *testing.T) {
	port := &chunkPort{chunks: []string{"1,2\n3,4\n5,"}}
	r := newReader(port)
	assert.False(t, r.Pending(), "nothing read yet")

	got, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, Sample{Proximity: 1, Light: 2}, got)
	assert.True(t, r.Pending(), "second line arrived in the same chunk")

	got, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, Sample{Proximity: 3, Light: 4}, got)
	assert.False(t, r.Pending(), "only a partial line is left")
}

func TestRealReaderReadsBurstInOneChunk(t *testing.T) {
	burst := strings.Repeat("700,50\n", 200)
	port := &chunkPort{chunks: []string{burst}}
	r := newReader(port)

	n := 0
	for {
		_, err := r.Read()
		require.NoError(t, err)
		n++
		if !r.Pending() {
			break
		}
	}
	// 7 bytes per line: one read picks up readChunk/7 lines.
	assert.Equal(t, readChunk/7, n)
}

func TestFakeReaderBacklog(t *testing.T) {
	f := NewFakeReader([]Sample{{Proximity: 9}})
	f.Backlog = []Sample{{Proximity: 1}, {Proximity: 2}}

	assert.True(t, f.Pending())
	got, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), got.Proximity)
	assert.True(t, f.Pending())

	got, err = f.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), got.Proximity)
	assert.False(t, f.Pending())

	got, err = f.Read()
	require.NoError(t, err)
	assert.Equal(t, uint16(9), got.Proximity)
	assert.False(t, f.Pending())
}
