package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	qos            = 1
	disconnectWait = 250 // ms
)

// Command is an operator instruction relayed to a player.
type Command string

const (
	CommandNext       Command = "next"
	CommandPrev       Command = "prev"
	CommandPause      Command = "pause"
	CommandResume     Command = "resume"
	CommandFullscreen Command = "fullscreen"
	CommandWindowed   Command = "windowed"
)

func (c Command) IsValid() bool {
	switch c {
	case CommandNext, CommandPrev, CommandPause, CommandResume, CommandFullscreen, CommandWindowed:
		return true
	}
	return false
}

func ParseCommand(v string) (Command, error) {
	c := Command(v)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown command %q", v)
	}
	return c, nil
}

// PlaylistTopic is published to after a playlist is saved.
func PlaylistTopic(playlistID string) string {
	return fmt.Sprintf("cartelera/playlists/%s/updated", playlistID)
}

// DeviceTopic carries commands for one player.
func DeviceTopic(deviceID string) string {
	return fmt.Sprintf("cartelera/devices/%s/commands", deviceID)
}

// Message is the JSON payload on every topic.
type Message struct {
	Type       string  `json:"type"`
	PlaylistID string  `json:"playlist_id,omitempty"`
	Command    Command `json:"command,omitempty"`
	Timestamp  int64   `json:"timestamp"`
}

const (
	TypePlaylistUpdated = "playlist_updated"
	TypeCommand         = "command"
)

// Publisher is what the HTTP layer needs from the broker.
type Publisher interface {
	PublishPlaylistUpdated(playlistID string) error
	SendCommand(deviceID string, cmd Command) error
}

// Client is a thin wrapper over a paho connection.
type Client struct {
	conn paho.Client
	now  func() time.Time
}

var _ Publisher = (*Client)(nil)

// Connect dials the broker and blocks until the connection is up.
func Connect(brokerURL, clientID string) (*Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetDefaultPublishHandler(func(_ paho.Client, msg paho.Message) {
		log.Debug().Str("topic", msg.Topic()).Msg("[mqtt] unrouted message")
	})
	opts.OnConnect = func(paho.Client) {
		log.Info().Str("broker", brokerURL).Str("client_id", clientID).Msg("[mqtt] connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("[mqtt] connection lost")
	}

	conn := paho.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(15*time.Second) || token.Error() != nil {
		err := token.Error()
		if err == nil {
			err = fmt.Errorf("timed out")
		}
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", brokerURL, err)
	}
	return newClient(conn), nil
}

func newClient(conn paho.Client) *Client {
	return &Client{conn: conn, now: time.Now}
}

func (c *Client) publish(topic string, msg Message) error {
	msg.Timestamp = c.now().Unix()
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	token := c.conn.Publish(topic, qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	log.Debug().Str("topic", topic).Str("type", msg.Type).Msg("[mqtt] published")
	return nil
}

func (c *Client) PublishPlaylistUpdated(playlistID string) error {
	return c.publish(PlaylistTopic(playlistID), Message{Type: TypePlaylistUpdated, PlaylistID: playlistID})
}

func (c *Client) SendCommand(deviceID string, cmd Command) error {
	if !cmd.IsValid() {
		return fmt.Errorf("unknown command %q", cmd)
	}
	return c.publish(DeviceTopic(deviceID), Message{Type: TypeCommand, Command: cmd})
}

// Subscribe routes decoded messages on topic to handler. Undecodable
// payloads are logged and dropped.
func (c *Client) Subscribe(topic string, handler func(Message)) error {
	token := c.conn.Subscribe(topic, qos, func(_ paho.Client, raw paho.Message) {
		var msg Message
		if err := json.Unmarshal(raw.Payload(), &msg); err != nil {
			log.Warn().Err(err).Str("topic", raw.Topic()).Msg("[mqtt] dropping undecodable message")
			return
		}
		handler(msg)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	c.conn.Disconnect(disconnectWait)
	return nil
}

// Noop stands in when no broker is configured. Publishing is skipped.
type Noop struct{}

func (Noop) PublishPlaylistUpdated(playlistID string) error {
	log.Debug().Str("playlist_id", playlistID).Msg("[mqtt] no broker configured, skipping update notification")
	return nil
}

func (Noop) SendCommand(deviceID string, cmd Command) error {
	return fmt.Errorf("no MQTT broker configured")
}
