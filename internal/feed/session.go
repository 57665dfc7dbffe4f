package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/airbureau/bybit-data/internal/subscribe"
)

// State identifies the session lifecycle phase.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateSubscribing  State = "subscribing"
	StateStreaming    State = "streaming"
	StateReconnecting State = "reconnecting"
	StateStopped      State = "stopped"
)

// Handler consumes one raw data message. Dispatch is synchronous: the next
// message is not read until HandleMessage returns.
type Handler interface {
	HandleMessage(data []byte, receivedAt time.Time)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(data []byte, receivedAt time.Time)

func (f HandlerFunc) HandleMessage(data []byte, receivedAt time.Time) {
	f(data, receivedAt)
}

// SessionConfig configures a feed session.
type SessionConfig struct {
	URL          string        // Segment stream URL
	PaceDelay    time.Duration // Mandatory delay between subscribe requests
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	IdleTimeout  time.Duration
}

// Session runs one websocket connection for one segment's subscription
// groups, from connect through streaming to a terminal outcome.
type Session struct {
	cfg     SessionConfig
	groups  []subscribe.Group
	handler Handler
	logger  *slog.Logger

	stateMu sync.Mutex
	state   State
}

// NewSession creates a session over the given subscription groups.
func NewSession(cfg SessionConfig, groups []subscribe.Group, handler Handler, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:     cfg,
		groups:  groups,
		handler: handler,
		logger:  logger,
		state:   StateDisconnected,
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// Run connects, subscribes all groups, and streams until the context is
// cancelled or the transport fails. It returns nil only for an operator stop
// (context cancelled): the session unsubscribes and closes cleanly. Any other
// return is a transport error; the caller decides whether to recreate the
// pipeline or give up.
func (s *Session) Run(ctx context.Context) error {
	s.setState(StateConnecting)

	client := NewClient(ClientConfig{
		URL:          s.cfg.URL,
		DialTimeout:  s.cfg.DialTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		PingInterval: s.cfg.PingInterval,
		IdleTimeout:  s.cfg.IdleTimeout,
	}, s.logger)

	if err := client.Connect(ctx); err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("connect feed: %w", err)
	}

	// On cancellation, unsubscribe and close; the close also unblocks the
	// pending read below.
	stopWatch := context.AfterFunc(ctx, func() {
		s.unsubscribeAll(client)
		client.Close()
	})
	defer stopWatch()
	defer client.Close()

	s.setState(StateSubscribing)
	if err := s.subscribeGroups(ctx, client); err != nil {
		// Only context cancellation aborts subscribing.
		s.setState(StateStopped)
		s.logger.Info("feed stopped by operator during subscribe")
		return nil
	}

	s.setState(StateStreaming)

	for {
		data, receivedAt, err := client.Read()
		if err != nil {
			if ctx.Err() != nil {
				s.setState(StateStopped)
				s.logger.Info("feed stopped by operator")
				return nil
			}
			s.setState(StateReconnecting)
			return fmt.Errorf("feed transport: %w", err)
		}

		if op, ok := parseOpResponse(data); ok {
			s.handleOpResponse(op)
			continue
		}

		s.handler.HandleMessage(data, receivedAt)
	}
}

// command is the wire format of a stream request.
type command struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

// topicArgs converts symbols to ticker stream topics.
func topicArgs(symbols []string) []string {
	args := make([]string, len(symbols))
	for i, sym := range symbols {
		args[i] = "tickers." + sym
	}
	return args
}

// subscribeGroups issues one subscribe request per group, pacing between
// requests. A failed group is logged and skipped; partial subscription is
// acceptable and observable, not fatal. Returns an error only when the
// context is cancelled mid-way.
func (s *Session) subscribeGroups(ctx context.Context, client *Client) error {
	for i, group := range s.groups {
		if group.Oversized {
			s.logger.Warn("subscription group exceeds request budget",
				"group", i,
				"symbol", group.Symbols[0],
			)
		}

		data, err := json.Marshal(command{Op: "subscribe", Args: topicArgs(group.Symbols)})
		if err != nil {
			s.logger.Warn("failed to encode subscribe request", "group", i, "error", err)
			continue
		}

		if err := client.Send(data); err != nil {
			s.logger.Warn("subscribe failed for group",
				"group", i,
				"symbols", len(group.Symbols),
				"error", err,
			)
			continue
		}

		s.logger.Debug("subscribed group",
			"group", i,
			"symbols", len(group.Symbols),
		)

		// Rate-limiting contract: pace between subscribe requests.
		if i < len(s.groups)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.PaceDelay):
			}
		}
	}
	return nil
}

// unsubscribeAll sends best-effort unsubscribe requests for every group.
func (s *Session) unsubscribeAll(client *Client) {
	for _, group := range s.groups {
		data, err := json.Marshal(command{Op: "unsubscribe", Args: topicArgs(group.Symbols)})
		if err != nil {
			continue
		}
		client.Send(data)
	}
}

// opResponse is the wire format of a stream acknowledgement.
type opResponse struct {
	Op      string `json:"op"`
	Success *bool  `json:"success,omitempty"`
	RetMsg  string `json:"ret_msg,omitempty"`
	ConnID  string `json:"conn_id,omitempty"`
}

// parseOpResponse reports whether the frame is an op acknowledgement
// (subscribe ack, pong) rather than a data message.
func parseOpResponse(data []byte) (opResponse, bool) {
	var resp opResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return opResponse{}, false
	}
	if resp.Op == "" {
		return opResponse{}, false
	}
	return resp, true
}

// handleOpResponse logs subscribe rejections; pongs and successful acks are
// noise.
func (s *Session) handleOpResponse(op opResponse) {
	if op.Success != nil && !*op.Success {
		s.logger.Warn("stream request rejected",
			"op", op.Op,
			"ret_msg", op.RetMsg,
		)
		return
	}
	s.logger.Debug("stream ack", "op", op.Op)
}
