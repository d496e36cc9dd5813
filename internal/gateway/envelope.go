package gateway

import (
	"encoding/json"
	"time"

	"wbtracker/internal/domain"
)

// Envelope types exchanged with the platform bridge.
const (
	TypeMessage = "message"
	TypeCommand = "command"
	TypeResult  = "result"

	TypeReact        = "react"
	TypeReply        = "reply"
	TypeSend         = "send"
	TypeVoiceMembers = "voice.members"
	TypeVoiceMove    = "voice.move"
)

// Envelope wraps every frame. ID correlates a request with its result.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is an inbound chat line.
type Message struct {
	ID        string          `json:"id"`
	ChannelID string          `json:"channel_id"`
	Guild     domain.Origin   `json:"guild"`
	Author    domain.Reporter `json:"author"`
	Bot       bool            `json:"bot,omitempty"`
	Content   string          `json:"content"`
}

// Command is an inbound slash command.
type Command struct {
	InteractionID string            `json:"interaction_id"`
	Name          string            `json:"name"`
	ChannelID     string            `json:"channel_id"`
	Guild         domain.Origin     `json:"guild"`
	User          domain.Reporter   `json:"user"`
	Admin         bool              `json:"admin,omitempty"`
	Options       map[string]string `json:"options,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Result answers a request carrying the same envelope ID.
type Result struct {
	OK      bool              `json:"ok"`
	Error   string            `json:"error,omitempty"`
	Members []domain.Reporter `json:"members,omitempty"`
}

type reactPayload struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type replyPayload struct {
	ChannelID     string `json:"channel_id"`
	MessageID     string `json:"message_id,omitempty"`
	InteractionID string `json:"interaction_id,omitempty"`
	Text          string `json:"text"`
	Ephemeral     bool   `json:"ephemeral,omitempty"`
}

type sendPayload struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

type voiceMembersPayload struct {
	ChannelID string `json:"channel_id"`
}

type voiceMovePayload struct {
	MemberID  string `json:"member_id"`
	ChannelID string `json:"channel_id"`
}
