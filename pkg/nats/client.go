package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/logger"
	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/models"
	"github.com/nats-io/nats.go"
)

const DefaultSubject = "relay.display"

// Config holds NATS configuration
type Config struct {
	URLs           []string
	Username       string
	Password       string
	Token          string
	MaxReconnect   int
	ReconnectWait  time.Duration
	ConnectionName string
	Subject        string
	Enabled        bool
}

// Client publishes relay events to NATS. A nil *Client is valid and drops
// every event.
type Client struct {
	conn   *nats.Conn
	config Config
}

func NewClient(config Config) *Client {
	if config.Subject == "" {
		config.Subject = DefaultSubject
	}
	if config.ConnectionName == "" {
		config.ConnectionName = "discord-html-relay"
	}
	return &Client{config: config}
}

// Connect establishes connection to NATS server
func (c *Client) Connect() error {
	if !c.config.Enabled {
		return fmt.Errorf("NATS client is disabled")
	}

	opts := []nats.Option{
		nats.Name(c.config.ConnectionName),
		nats.MaxReconnects(c.config.MaxReconnect),
		nats.ReconnectWait(c.config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Log.Warnf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.Infof("NATS reconnected to %v", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Log.Warn("NATS connection closed")
		}),
	}

	if c.config.Token != "" {
		opts = append(opts, nats.Token(c.config.Token))
	} else if c.config.Username != "" && c.config.Password != "" {
		opts = append(opts, nats.UserInfo(c.config.Username, c.config.Password))
	}

	url := nats.DefaultURL
	if len(c.config.URLs) > 0 {
		url = strings.Join(c.config.URLs, ",")
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.conn = conn

	logger.Log.Infof("NATS client connected to %s", c.conn.ConnectedUrl())
	return nil
}

// PublishDisplayEvent sends one event as JSON on the configured subject.
func (c *Client) PublishDisplayEvent(event models.DisplayEvent) error {
	if c == nil {
		return nil
	}
	if c.conn == nil {
		return fmt.Errorf("NATS client not connected")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal display event: %w", err)
	}

	return c.conn.Publish(c.config.Subject, data)
}

func (c *Client) Subject() string {
	if c == nil {
		return ""
	}
	return c.config.Subject
}

// Close flushes pending events and closes the connection.
func (c *Client) Close() {
	if c == nil || c.conn == nil {
		return
	}
	if err := c.conn.FlushTimeout(2 * time.Second); err != nil {
		logger.Log.Warnf("NATS flush before close failed: %v", err)
	}
	c.conn.Close()
	logger.Log.Info("NATS client connection closed")
}

func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}
