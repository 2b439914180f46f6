package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

const (
	initialReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay     = 30 * time.Second
)

// Subscription is a live change stream. It reconnects with capped exponential
// backoff until Unsubscribe is called or its context ends.
type Subscription struct {
	cancel    context.CancelFunc
	done      chan struct{}
	connected chan struct{}
	once      sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

// Unsubscribe stops the stream and waits for the reader to exit. Safe to call twice.
func (s *Subscription) Unsubscribe() {
	s.cancel()
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.mu.Unlock()
	<-s.done
}

// Connected is closed after the first successful connection.
func (s *Subscription) Connected() <-chan struct{} {
	return s.connected
}

func (c *Client) streamURL(householdID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/households/" + url.PathEscape(householdID)
	return u.String(), nil
}

// Subscribe delivers every change event of the household to fn, including the
// ones caused by this client. fn runs on the subscription goroutine.
func (c *Client) Subscribe(ctx context.Context, householdID string, fn func(models.ChangeEvent)) (*Subscription, error) {
	target, err := c.streamURL(householdID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		cancel:    cancel,
		done:      make(chan struct{}),
		connected: make(chan struct{}),
	}
	go c.runSubscription(ctx, sub, target, householdID, fn)
	return sub, nil
}

func (c *Client) runSubscription(ctx context.Context, sub *Subscription, target, householdID string, fn func(models.ChangeEvent)) {
	defer close(sub.done)
	logger := c.logger.With(zap.String("household_id", householdID))

	delay := initialReconnectDelay
	for {
		if ctx.Err() != nil {
			return
		}

		header := http.Header{}
		if token := c.authToken(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
		conn, resp, err := c.dialer.DialContext(ctx, target, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("change stream dial failed", zap.Duration("retry_in", delay), zap.Error(err))
			if !sleep(ctx, delay) {
				return
			}
			delay = nextDelay(delay)
			continue
		}

		sub.mu.Lock()
		sub.conn = conn
		sub.mu.Unlock()
		if ctx.Err() != nil {
			conn.Close()
			return
		}
		sub.once.Do(func() { close(sub.connected) })
		delay = initialReconnectDelay
		logger.Debug("change stream connected")

		err = readEvents(conn, fn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		if !errors.Is(err, errStreamClosed) {
			logger.Warn("change stream lost", zap.Duration("retry_in", delay), zap.Error(err))
		}
		if !sleep(ctx, delay) {
			return
		}
		delay = nextDelay(delay)
	}
}

var errStreamClosed = errors.New("change stream closed by server")

func readEvents(conn *websocket.Conn, fn func(models.ChangeEvent)) error {
	// Server pings are answered by the default ping handler.
	for {
		var evt models.ChangeEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errStreamClosed
			}
			return err
		}
		fn(evt)
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectDelay {
		return maxReconnectDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
