// Package messaging provides a NATS client wrapper for fanning block
// events out to interested consumers (live moderator feeds, alerting)
// and for broadcasting retention cleanup results. All publishing is
// best-effort: the pipeline's verdict never depends on NATS.
package messaging

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects used by the search protection services.
const (
	SubjectBlocked = "search.blocked"
	SubjectCleanup = "search.cleanup"
)

// BlockedMsg is the payload published to search.blocked for every block
// verdict.
type BlockedMsg struct {
	RequestID  string  `json:"request_id"`
	SearchTerm string  `json:"search_term"`
	Reason     string  `json:"reason"`
	ClientIP   string  `json:"client_ip"`
	Score      float64 `json:"score,omitempty"`
	Ts         int64   `json:"ts"`
}

// CleanupMsg is the payload published to search.cleanup after each
// retention run.
type CleanupMsg struct {
	Deleted int64 `json:"deleted"`
	Ts      int64 `json:"ts"`
}

// NATSClient wraps the NATS connection with helper methods for pub/sub.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Name:          "searchguard",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewNATSClient connects to NATS with the given config and returns a
// ready client. It returns an error if the initial connection fails.
func NewNATSClient(config NATSConfig) (*NATSClient, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &NATSClient{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers a handler for the given subject and stores the
// subscription internally for later cleanup.
func (c *NATSClient) Subscribe(subject string, handler func(msg *nats.Msg)) error {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()

	return nil
}

// PublishBlockEvent publishes data to the search.blocked subject.
func (c *NATSClient) PublishBlockEvent(data []byte) error {
	return c.Publish(SubjectBlocked, data)
}

// SubscribeBlockEvents subscribes to search.blocked and passes the raw
// message data to the handler.
func (c *NATSClient) SubscribeBlockEvents(handler func(data []byte)) error {
	return c.Subscribe(SubjectBlocked, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// SubscribeBlockFeed subscribes to search.blocked on behalf of one live
// feed consumer. The subscription is keyed by feedID so multiple feeds
// on the same server can subscribe without overwriting each other.
func (c *NATSClient) SubscribeBlockFeed(feedID string, handler func(data []byte)) error {
	key := "feed:" + feedID
	sub, err := c.conn.Subscribe(SubjectBlocked, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", SubjectBlocked, err)
	}

	c.mu.Lock()
	c.subs[key] = sub
	c.mu.Unlock()
	return nil
}

// UnsubscribeBlockFeed tears down one live feed subscription.
func (c *NATSClient) UnsubscribeBlockFeed(feedID string) error {
	return c.unsubscribe("feed:" + feedID)
}

func (c *NATSClient) unsubscribe(key string) error {
	c.mu.Lock()
	sub, ok := c.subs[key]
	delete(c.subs, key)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe %s: %w", key, err)
	}
	return nil
}

// PublishCleanupResult publishes data to the search.cleanup subject.
func (c *NATSClient) PublishCleanupResult(data []byte) error {
	return c.Publish(SubjectCleanup, data)
}

// Close unsubscribes everything and drains the connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	for subject, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("[nats] unsubscribe %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)
	c.mu.Unlock()

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] drain: %v", err)
	}
}
