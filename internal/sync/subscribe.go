package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/promptdeck/promptdeck/internal/common/logger"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
	"github.com/promptdeck/promptdeck/pkg/ws"
)

const (
	dialTimeout    = 10 * time.Second
	reconnectDelay = time.Second
	maxReconnect   = 30 * time.Second
)

// Subscriber maintains a websocket subscription to the caller's prompt
// collection and replaces the view with every snapshot the server pushes.
// Lost connections are re-dialed with exponential backoff; after each
// reconnect the server sends a fresh snapshot, so no state is replayed.
type Subscriber struct {
	client     *Client
	view       *View
	logger     *logger.Logger
	dialer     *websocket.Dialer
	onSnapshot func(v1.PromptList)
}

// NewSubscriber creates a subscriber feeding the given view.
func NewSubscriber(client *Client, view *View, log *logger.Logger) *Subscriber {
	return &Subscriber{
		client: client,
		view:   view,
		logger: log,
		dialer: &websocket.Dialer{HandshakeTimeout: dialTimeout},
	}
}

// OnSnapshot registers a callback invoked after each snapshot is applied.
func (s *Subscriber) OnSnapshot(fn func(v1.PromptList)) {
	s.onSnapshot = fn
}

// Run connects and consumes snapshots until the context is canceled.
func (s *Subscriber) Run(ctx context.Context) error {
	err := retry.Do(
		func() error {
			return s.runOnce(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(reconnectDelay),
		retry.MaxDelay(maxReconnect),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			s.logger.WithError(err).Warn("websocket connection lost, reconnecting",
				zap.Uint("attempt", n+1))
		}),
	)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Subscriber) runOnce(ctx context.Context) error {
	wsURL, err := s.websocketURL()
	if err != nil {
		return retry.Unrecoverable(err)
	}

	conn, _, err := s.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	subscribe, err := ws.NewRequest(uuid.New().String(), ws.ActionPromptsSubscribe, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return retry.Unrecoverable(ctx.Err())
			}
			return fmt.Errorf("reading: %w", err)
		}
		// The server may batch several messages into one frame,
		// newline separated.
		for _, raw := range bytes.Split(data, []byte{'\n'}) {
			if len(bytes.TrimSpace(raw)) == 0 {
				continue
			}
			if err := s.handleMessage(raw); err != nil {
				s.logger.WithError(err).Warn("discarding websocket message")
			}
		}
	}
}

func (s *Subscriber) handleMessage(raw []byte) error {
	var msg ws.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("decoding message: %w", err)
	}

	switch {
	case msg.Type == ws.MessageTypeNotification && msg.Action == ws.ActionPromptsSnapshot:
		var list v1.PromptList
		if err := msg.ParsePayload(&list); err != nil {
			return fmt.Errorf("decoding snapshot: %w", err)
		}
		s.view.Replace(list.Prompts)
		s.logger.Debug("applied snapshot", zap.Int("count", list.Count))
		if s.onSnapshot != nil {
			s.onSnapshot(list)
		}
	case msg.Type == ws.MessageTypeError:
		var payload ws.ErrorPayload
		if err := msg.ParsePayload(&payload); err != nil {
			return fmt.Errorf("decoding error payload: %w", err)
		}
		return fmt.Errorf("server error %s: %s", payload.Code, payload.Message)
	default:
		// Responses to our subscribe request and health notifications
		// carry no state; ignore them.
	}
	return nil
}

// websocketURL derives the gateway URL from the client's base URL and
// carries the bearer token as a query parameter, since websocket handshakes
// from browsers cannot set headers.
func (s *Subscriber) websocketURL() (string, error) {
	parsed, err := url.Parse(s.client.BaseURL())
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + apiPrefix + "/ws"

	query := parsed.Query()
	if token := s.client.Token(); token != "" {
		query.Set("token", token)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
