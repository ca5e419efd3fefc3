package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/kwestin/listsync/internal/schema"
)

// Subscription is a live feed of change notifications from the remote
// store. It redials with backoff whenever the connection drops, and after
// every successful connect it emits a synthetic resync event so the
// consumer can catch up on anything missed while disconnected.
type Subscription struct {
	events chan schema.ChangeEvent
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Subscribe opens the notification feed for userID. The feed runs until
// ctx is canceled or Close is called.
func (c *Client) Subscribe(ctx context.Context, userID string) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		events: make(chan schema.ChangeEvent, 16),
		cancel: cancel,
	}

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		defer close(sub.events)
		c.feedLoop(ctx, userID, sub.events)
	}()

	return sub
}

// Events returns the channel of change notifications. It closes when the
// subscription shuts down.
func (s *Subscription) Events() <-chan schema.ChangeEvent {
	return s.events
}

// Close tears down the feed and waits for the event channel to close.
func (s *Subscription) Close() {
	s.cancel()
	s.wg.Wait()
}

func (c *Client) feedLoop(ctx context.Context, userID string, events chan<- schema.ChangeEvent) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.dialFeed(ctx, userID)
		if err != nil {
			c.logger.Printf("Realtime connect failed, retrying in %v: %v", backoff, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > 60*time.Second {
				backoff = 60 * time.Second
			}
			continue
		}
		backoff = time.Second

		// Anything could have changed while we were disconnected, so ask
		// the consumer to refetch before trusting the live stream.
		select {
		case events <- schema.ChangeEvent{Kind: schema.ChangeResync}:
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		c.readFeed(ctx, conn, events)
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func (c *Client) dialFeed(ctx context.Context, userID string) (*websocket.Conn, error) {
	wsBase := strings.Replace(c.baseURL, "http", "ws", 1)
	query := url.Values{}
	query.Set("user_id", userID)
	feedURL := wsBase + "/v1/realtime?" + query.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	conn, _, err := websocket.Dial(ctx, feedURL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	return conn, err
}

func (c *Client) readFeed(ctx context.Context, conn *websocket.Conn, events chan<- schema.ChangeEvent) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Printf("Realtime connection lost: %v", err)
			}
			return
		}

		var event schema.ChangeEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.Printf("Warning: dropping malformed change event: %v", err)
			continue
		}

		select {
		case events <- event:
		case <-ctx.Done():
			return
		}
	}
}
