package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbtracker/internal/config"
	"wbtracker/internal/db"
	"wbtracker/internal/domain"
	"wbtracker/internal/engine"
	"wbtracker/internal/migrate"
)

type bridge struct {
	srv    *httptest.Server
	frames chan Envelope
	auth   chan string

	mu   sync.Mutex
	conn *websocket.Conn
}

func newBridge(t *testing.T) *bridge {
	t.Helper()
	b := &bridge{frames: make(chan Envelope, 64), auth: make(chan string, 1)}
	upgrader := websocket.Upgrader{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.mu.Lock()
		b.conn = conn
		b.mu.Unlock()
		b.auth <- r.Header.Get("Authorization")
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			switch env.Type {
			case TypeVoiceMembers:
				b.send(t, TypeResult, env.ID, Result{OK: true, Members: []domain.Reporter{{ID: "u1", Username: "alice"}}})
			case TypeVoiceMove:
				var p voiceMovePayload
				_ = json.Unmarshal(env.Payload, &p)
				if p.MemberID == "u-bad" {
					b.send(t, TypeResult, env.ID, Result{Error: "missing permission"})
				} else {
					b.send(t, TypeResult, env.ID, Result{OK: true})
				}
			default:
				b.frames <- env
			}
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *bridge) url() string { return "ws" + strings.TrimPrefix(b.srv.URL, "http") }

func (b *bridge) send(t *testing.T, typ, id string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotNil(t, b.conn)
	require.NoError(t, b.conn.WriteJSON(Envelope{Type: typ, ID: id, Payload: raw}))
}

func (b *bridge) next(t *testing.T) Envelope {
	t.Helper()
	select {
	case env := <-b.frames:
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for frame")
		return Envelope{}
	}
}

func decode[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

func newConnectedClient(t *testing.T) (*Client, *bridge) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(context.Background(), conn)
	require.NoError(t, err)
	cfg, err := config.Default("wb")
	require.NoError(t, err)
	cfg.Emojis.Animated = map[string]string{"relogio2": "77"}
	eng, err := engine.New(conn, cfg, nil)
	require.NoError(t, err)

	b := newBridge(t)
	c := New(b.url(), "bridge-token", eng, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	select {
	case got := <-b.auth:
		assert.Equal(t, "Bearer bridge-token", got)
	case <-time.After(5 * time.Second):
		t.Fatal("client never connected")
	}
	require.Eventually(t, func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.conn != nil
	}, 5*time.Second, 10*time.Millisecond)
	return c, b
}

func message(id, channel, content string) Message {
	return Message{
		ID:        id,
		ChannelID: channel,
		Guild:     domain.Origin{ID: "g1", Name: "Guild"},
		Author:    domain.Reporter{ID: "u1", Username: "alice"},
		Content:   content,
	}
}

func TestMessageAcknowledgements(t *testing.T) {
	c, b := newConnectedClient(t)

	b.send(t, TypeMessage, "", message("m1", "wb", "24 dwf beamed 2:30"))
	r := decode[reactPayload](t, b.next(t))
	assert.Equal(t, reactPayload{ChannelID: "wb", MessageID: "m1", Emoji: "✅"}, r)
	r = decode[reactPayload](t, b.next(t))
	assert.Equal(t, "<a:relogio2:77>", r.Emoji)

	// outside the allowlist and from bots: nothing comes back
	b.send(t, TypeMessage, "", message("m2", "general", "30 elm"))
	bot := message("m3", "wb", "31 elm")
	bot.Bot = true
	b.send(t, TypeMessage, "", bot)

	b.send(t, TypeMessage, "", message("m4", "wb", "45 c"))
	env := b.next(t)
	require.Equal(t, TypeReply, env.Type)
	reply := decode[replyPayload](t, env)
	assert.Equal(t, "m4", reply.MessageID)
	assert.Equal(t, UnknownLocationText, reply.Text)
	assert.Equal(t, "❓", decode[reactPayload](t, b.next(t)).Emoji)

	b.send(t, TypeMessage, "", message("m5", "wb", "3 dwf"))
	assert.Equal(t, "❌", decode[reactPayload](t, b.next(t)).Emoji)

	b.send(t, TypeMessage, "", message("m6", "wb", "hello there"))
	b.send(t, TypeMessage, "", message("m7", "wb", "24 elm"))
	r = decode[reactPayload](t, b.next(t))
	assert.Equal(t, "m7", r.MessageID)

	assert.Equal(t, 1, c.Engine.Registry.Len())
	rec, ok := c.Engine.Registry.Get(24)
	require.True(t, ok)
	assert.Equal(t, domain.LocationELM, rec.At())
}

func TestCommands(t *testing.T) {
	c, b := newConnectedClient(t)
	ctx := context.Background()
	c.Engine.OnChatLine(ctx, "24 dwf beamed", domain.Reporter{ID: "u1", Username: "alice"}, domain.Origin{ID: "g1"})

	run := func(cmd Command) replyPayload {
		b.send(t, TypeCommand, "", cmd)
		env := b.next(t)
		require.Equal(t, TypeReply, env.Type)
		return decode[replyPayload](t, env)
	}

	out := run(Command{InteractionID: "i1", Name: "list", ChannelID: "general"})
	assert.Equal(t, ChannelDeniedText, out.Text)
	assert.True(t, out.Ephemeral)

	out = run(Command{InteractionID: "i2", Name: "list", ChannelID: "wb"})
	assert.Equal(t, "i2", out.InteractionID)
	assert.Contains(t, out.Text, "**__24__**")
	assert.False(t, out.Ephemeral)

	out = run(Command{InteractionID: "i3", Name: "list", ChannelID: "wb", Options: map[string]string{"resource": "gold"}})
	assert.Equal(t, "❌ An error occurred while listing the worlds!", out.Text)

	out = run(Command{InteractionID: "i4", Name: "ping", ChannelID: "general", CreatedAt: time.Now().Add(-time.Hour)})
	assert.True(t, strings.HasPrefix(out.Text, "Pong! `"), out.Text)

	out = run(Command{InteractionID: "i5", Name: "setrsn", ChannelID: "general", Options: map[string]string{"user": "u7", "rsn": "Zezima"}})
	assert.Equal(t, PermissionText, out.Text)

	out = run(Command{InteractionID: "i6", Name: "setrsn", ChannelID: "general", Admin: true,
		Options: map[string]string{"user": "u7", "username": "bob", "rsn": "Zezima"}})
	assert.Equal(t, "✅ RSN of bob set to `Zezima`", out.Text)
	p, err := c.Engine.Repo.GetPlayer(ctx, "u7")
	require.NoError(t, err)
	assert.Equal(t, "Zezima", p.RSN)

	out = run(Command{InteractionID: "i7", Name: "schedule", ChannelID: "general", Options: map[string]string{"zone": "utc"}})
	assert.Contains(t, out.Text, "UTC")
}

func TestVoiceRequests(t *testing.T) {
	c, _ := newConnectedClient(t)
	ctx := context.Background()

	members, err := c.VoiceMembers(ctx, "voice")
	require.NoError(t, err)
	assert.Equal(t, []domain.Reporter{{ID: "u1", Username: "alice"}}, members)

	require.NoError(t, c.MoveMember(ctx, "u1", "voice"))
	err = c.MoveMember(ctx, "u-bad", "voice")
	assert.ErrorContains(t, err, "missing permission")
}

func TestRequestWithoutConnection(t *testing.T) {
	c := New("ws://127.0.0.1:1", "", engine.Engine{}, nil)
	_, err := c.VoiceMembers(context.Background(), "voice")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, c.Send(context.Background(), "wb", "hi"), ErrNotConnected)

	// a zero Client has no pending map yet
	bare := &Client{}
	_, err = bare.VoiceMembers(context.Background(), "voice")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, bare.MoveMember(context.Background(), "u1", "voice"), ErrNotConnected)
}
