package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweeney/prox-sensor/internal/logic"
)

// stubToken is a paho.Token that has either completed or timed out.
type stubToken struct {
	done bool
	err  error
}

func (t *stubToken) Wait() bool                     { return t.done }
func (t *stubToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *stubToken) Error() error                   { return t.err }

func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}

// stubClient records publishes and answers every one with token. Methods
// the publisher does not use fall through to the nil embedded interface.
type stubClient struct {
	paho.Client
	open   bool
	token  *stubToken
	topics []string
}

func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.topics = append(c.topics, topic)
	return c.token
}

func (c *stubClient) IsConnectionOpen() bool { return c.open }

func newStubPublisher(c *stubClient) *RealPublisher {
	return &RealPublisher{
		client:    c,
		buf:       newRingBuffer(8),
		connected: true,
		now:       func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestRealPublisherPublishes(t *testing.T) {
	c := &stubClient{open: true, token: &stubToken{done: true}}
	p := newStubPublisher(c)

	require.NoError(t, p.Publish(testEvent(logic.EventProximityEnter)))
	assert.Equal(t, []string{Topic}, c.topics)
	assert.Zero(t, p.buf.len())
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	c := &stubClient{token: &stubToken{done: true}}
	p := newStubPublisher(c)
	p.connected = false

	require.NoError(t, p.Publish(testEvent(logic.EventProximityEnter)))
	assert.Empty(t, c.topics, "nothing sent to the client")
	assert.Equal(t, 1, p.buf.len())
}

func TestRealPublisherTimeoutOnOpenConnectionNotBuffered(t *testing.T) {
	c := &stubClient{open: true, token: &stubToken{done: false}}
	p := newStubPublisher(c)

	err := p.Publish(testEvent(logic.EventProximityEnter))
	assert.EqualError(t, err, "publish timeout")
	assert.Zero(t, p.buf.len(), "paho still holds the message; buffering it would duplicate it on replay")
}

func TestRealPublisherTimeoutOnClosedConnectionBuffered(t *testing.T) {
	c := &stubClient{open: false, token: &stubToken{done: false}}
	p := newStubPublisher(c)

	err := p.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	assert.Error(t, err)
	require.Equal(t, 1, p.buf.len())
	assert.Equal(t, TopicSystem, p.buf.drainAll()[0].topic)
}

func TestRealPublisherErrorOnClosedConnectionBuffered(t *testing.T) {
	c := &stubClient{open: false, token: &stubToken{done: true, err: errors.New("not connected")}}
	p := newStubPublisher(c)

	err := p.Publish(testEvent(logic.EventProximityExit))
	assert.ErrorContains(t, err, "not connected")
	assert.Equal(t, 1, p.buf.len())
}

func TestRealPublisherOnConnectReplaysThenReconnected(t *testing.T) {
	c := &stubClient{open: true, token: &stubToken{done: true}}
	p := newStubPublisher(c)
	p.connected = false
	p.everUp = true
	p.buf.push(bufferedMsg{topic: Topic, payload: []byte("a")})
	p.buf.push(bufferedMsg{topic: TopicSystem, payload: []byte("b"), qos: 1})

	p.onConnect(c)

	assert.Equal(t, []string{Topic, TopicSystem, TopicSystem}, c.topics)
	assert.True(t, p.IsConnected())
	assert.Zero(t, p.buf.len())
}

func TestRealPublisherFirstConnectNoReconnected(t *testing.T) {
	c := &stubClient{open: true, token: &stubToken{done: true}}
	p := newStubPublisher(c)
	p.connected = false

	p.onConnect(c)
	assert.Empty(t, c.topics)
	assert.True(t, p.everUp)
}

func TestCheckReplay(t *testing.T) {
	tokens := []paho.Token{
		&stubToken{done: true},
		&stubToken{done: false},
		&stubToken{done: true, err: errors.New("connection lost")},
		&stubToken{done: true},
	}
	assert.Equal(t, 2, checkReplay(tokens, time.Millisecond))
	assert.Zero(t, checkReplay(nil, time.Millisecond))
}
