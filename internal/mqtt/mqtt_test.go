package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return qos }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// fakeConn loops published messages back to matching subscriptions.
type fakeConn struct {
	paho.Client
	published map[string][][]byte
	handlers  map[string]paho.MessageHandler
	pubErr    error
}

func newFakeConn() *fakeConn {
	return &fakeConn{published: map[string][][]byte{}, handlers: map[string]paho.MessageHandler{}}
}

func (f *fakeConn) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	if f.pubErr != nil {
		return doneToken{err: f.pubErr}
	}
	b := payload.([]byte)
	f.published[topic] = append(f.published[topic], b)
	if h, ok := f.handlers[topic]; ok {
		h(f, fakeMessage{topic: topic, payload: b})
	}
	return doneToken{}
}

func (f *fakeConn) Subscribe(topic string, _ byte, cb paho.MessageHandler) paho.Token {
	f.handlers[topic] = cb
	return doneToken{}
}

func (f *fakeConn) Disconnect(uint) {}

func TestTopics(t *testing.T) {
	assert.Equal(t, "cartelera/playlists/abc/updated", PlaylistTopic("abc"))
	assert.Equal(t, "cartelera/devices/lobby-1/commands", DeviceTopic("lobby-1"))
}

func TestParseCommand(t *testing.T) {
	c, err := ParseCommand("pause")
	require.NoError(t, err)
	assert.Equal(t, CommandPause, c)

	_, err = ParseCommand("reboot")
	assert.Error(t, err)
}

func TestPublishPlaylistUpdated(t *testing.T) {
	conn := newFakeConn()
	c := newClient(conn)
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, c.PublishPlaylistUpdated("abc"))

	msgs := conn.published[PlaylistTopic("abc")]
	require.Len(t, msgs, 1)
	var got Message
	require.NoError(t, json.Unmarshal(msgs[0], &got))
	assert.Equal(t, Message{Type: TypePlaylistUpdated, PlaylistID: "abc", Timestamp: 1700000000}, got)
}

func TestCommandRoundTrip(t *testing.T) {
	conn := newFakeConn()
	c := newClient(conn)

	var received []Command
	require.NoError(t, c.Subscribe(DeviceTopic("tv1"), func(m Message) {
		received = append(received, m.Command)
	}))

	require.NoError(t, c.SendCommand("tv1", CommandNext))
	require.NoError(t, c.SendCommand("tv1", CommandFullscreen))
	assert.Equal(t, []Command{CommandNext, CommandFullscreen}, received)

	assert.Error(t, c.SendCommand("tv1", Command("reboot")))
}

func TestSubscribeDropsGarbage(t *testing.T) {
	conn := newFakeConn()
	c := newClient(conn)
	called := false
	require.NoError(t, c.Subscribe("x", func(Message) { called = true }))

	conn.handlers["x"](conn, fakeMessage{topic: "x", payload: []byte("not json")})
	assert.False(t, called)
}

func TestPublishError(t *testing.T) {
	conn := newFakeConn()
	conn.pubErr = errors.New("not connected")
	err := newClient(conn).PublishPlaylistUpdated("abc")
	assert.ErrorContains(t, err, "not connected")
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishPlaylistUpdated("abc"))
	assert.Error(t, p.SendCommand("tv", CommandNext))
}
