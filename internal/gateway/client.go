package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wbtracker/internal/domain"
	"wbtracker/internal/engine"
	"wbtracker/internal/logging"
)

var ErrNotConnected = errors.New("gateway not connected")

// Client holds one websocket to the platform bridge. It feeds chat lines and
// commands to the engine and implements the cycle's platform calls.
type Client struct {
	URL    string
	Token  string
	Engine engine.Engine
	Log    *zap.Logger
	Now    func() time.Time

	RequestTimeout time.Duration

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	pending map[string]chan Result
}

func New(url, token string, e engine.Engine, log *zap.Logger) *Client {
	return &Client{
		URL:            url,
		Token:          token,
		Engine:         e,
		Log:            logging.OrNop(log),
		Now:            time.Now,
		RequestTimeout: 10 * time.Second,
		pending:        map[string]chan Result{},
	}
}

func (c *Client) log() *zap.Logger { return logging.OrNop(c.Log) }

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Run keeps the connection up until ctx is done, reconnecting with backoff.
func (c *Client) Run(ctx context.Context) error {
	backoff := 200 * time.Millisecond
	for {
		err := c.connectAndReadLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.log().Warn("gateway disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
			if backoff > 5*time.Second {
				backoff = 5 * time.Second
			}
		}
	}
}

func (c *Client) connectAndReadLoop(ctx context.Context) error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}
	conn, resp, err := d.DialContext(ctx, c.URL, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.log().Info("gateway connected", zap.String("url", c.URL))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer c.disconnect(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log().Debug("gateway frame dropped", zap.Error(err))
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *Client) disconnect(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	pending := c.pending
	c.pending = map[string]chan Result{}
	c.mu.Unlock()
	_ = conn.Close()
	for _, ch := range pending {
		ch <- Result{Error: ErrNotConnected.Error()}
	}
}

func (c *Client) dispatch(ctx context.Context, env Envelope) {
	switch env.Type {
	case TypeMessage:
		var m Message
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			c.log().Debug("bad message payload", zap.Error(err))
			return
		}
		c.HandleMessage(ctx, m)
	case TypeCommand:
		var cmd Command
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			c.log().Debug("bad command payload", zap.Error(err))
			return
		}
		// Commands may take a while against the player store; keep reading.
		go c.HandleCommand(ctx, cmd)
	case TypeResult:
		var res Result
		if err := json.Unmarshal(env.Payload, &res); err != nil {
			res = Result{Error: err.Error()}
		}
		c.mu.Lock()
		ch, ok := c.pending[env.ID]
		delete(c.pending, env.ID)
		c.mu.Unlock()
		if ok {
			ch <- res
		}
	}
}

func (c *Client) write(env Envelope) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(env)
}

// post sends a fire-and-forget frame.
func (c *Client) post(typ string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.write(Envelope{Type: typ, ID: uuid.NewString(), Payload: b})
}

// request sends a frame and waits for the matching result.
func (c *Client) request(ctx context.Context, typ string, payload any) (Result, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}
	id := uuid.NewString()
	ch := make(chan Result, 1)
	c.mu.Lock()
	if c.pending == nil {
		c.pending = map[string]chan Result{}
	}
	c.pending[id] = ch
	c.mu.Unlock()
	cleanup := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}

	if err := c.write(Envelope{Type: typ, ID: id, Payload: b}); err != nil {
		cleanup()
		return Result{}, err
	}
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		if !res.OK {
			if res.Error == "" {
				res.Error = "request failed"
			}
			return res, fmt.Errorf("%s: %s", typ, res.Error)
		}
		return res, nil
	case <-ctx.Done():
		cleanup()
		return Result{}, ctx.Err()
	case <-timer.C:
		cleanup()
		return Result{}, fmt.Errorf("%s: timeout waiting for result", typ)
	}
}

// Send posts text to a channel.
func (c *Client) Send(_ context.Context, channelID, text string) error {
	return c.post(TypeSend, sendPayload{ChannelID: channelID, Text: text})
}

// VoiceMembers lists the members currently in a voice channel.
func (c *Client) VoiceMembers(ctx context.Context, channelID string) ([]domain.Reporter, error) {
	res, err := c.request(ctx, TypeVoiceMembers, voiceMembersPayload{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	return res.Members, nil
}

// MoveMember moves a member into a voice channel.
func (c *Client) MoveMember(ctx context.Context, memberID, channelID string) error {
	_, err := c.request(ctx, TypeVoiceMove, voiceMovePayload{MemberID: memberID, ChannelID: channelID})
	return err
}

func (c *Client) react(m Message, emoji string) {
	if emoji == "" {
		return
	}
	if err := c.post(TypeReact, reactPayload{ChannelID: m.ChannelID, MessageID: m.ID, Emoji: emoji}); err != nil {
		c.log().Warn("react", zap.String("message", m.ID), zap.Error(err))
	}
}

func (c *Client) replyMessage(m Message, text string) {
	if err := c.post(TypeReply, replyPayload{ChannelID: m.ChannelID, MessageID: m.ID, Text: text}); err != nil {
		c.log().Warn("reply", zap.String("message", m.ID), zap.Error(err))
	}
}

func (c *Client) replyCommand(cmd Command, text string, ephemeral bool) {
	p := replyPayload{ChannelID: cmd.ChannelID, InteractionID: cmd.InteractionID, Text: text, Ephemeral: ephemeral}
	if err := c.post(TypeReply, p); err != nil {
		c.log().Warn("reply", zap.String("command", cmd.Name), zap.Error(err))
	}
}
