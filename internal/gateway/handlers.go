package gateway

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wbtracker/internal/domain"
	"wbtracker/internal/render"
)

const (
	UnknownLocationText = "I don't know the location! Resend the full message with the location"
	ChannelDeniedText   = "❌ This command can only be used in the warbands channels!"
	PermissionText      = "❌ You don't have permission to use this command!"
)

// Fallbacks when the named emoji is not configured.
var defaultReactions = map[string]string{
	"certo":    "✅",
	"errado":   "❌",
	"ajuda":    "❓",
	"relogio2": "⏱️",
}

func (c *Client) reaction(name string) string {
	if e := c.Engine.Emoji(name); e != "" {
		return e
	}
	return defaultReactions[name]
}

func (c *Client) allowed(channelID string) bool {
	return c.Engine.Config != nil && c.Engine.Config.IsWarbandsChannel(channelID)
}

// HandleMessage feeds a chat line to the engine and acknowledges the outcome.
// Bot messages and lines outside the allowlisted channels are ignored.
func (c *Client) HandleMessage(ctx context.Context, m Message) {
	if m.Bot || !c.allowed(m.ChannelID) {
		return
	}
	res := c.Engine.OnChatLine(ctx, m.Content, m.Author, m.Guild)
	switch res.Outcome {
	case domain.OutcomeAccepted:
		c.react(m, c.reaction("certo"))
		if res.HasTime() {
			c.react(m, c.reaction("relogio2"))
		}
	case domain.OutcomeRejectedInvalidWorld:
		c.react(m, c.reaction("errado"))
	case domain.OutcomeRejectedNoSignal:
		c.react(m, c.reaction("ajuda"))
	case domain.OutcomeRejectedUnknownLocation:
		c.replyMessage(m, UnknownLocationText)
		c.react(m, c.reaction("ajuda"))
	}
}

type commandSpec struct {
	// reportOnly commands are limited to the warbands channels.
	reportOnly bool
	admin      bool
	failure    string
	run        func(ctx context.Context, c *Client, cmd Command) (string, error)
}

var commands = map[string]commandSpec{
	"list": {
		reportOnly: true,
		failure:    "❌ An error occurred while listing the worlds!",
		run: func(_ context.Context, c *Client, cmd Command) (string, error) {
			var filter *domain.Resource
			if raw := strings.TrimSpace(cmd.Options["resource"]); raw != "" && !strings.EqualFold(raw, "all") {
				r, ok := domain.ParseResource(raw)
				if !ok {
					return "", fmt.Errorf("unknown resource %q", raw)
				}
				filter = &r
			}
			return c.Engine.List(filter), nil
		},
	},
	"table": {
		reportOnly: true,
		failure:    "❌ An error occurred while building the table!",
		run: func(_ context.Context, c *Client, _ Command) (string, error) {
			return "```\n" + c.Engine.Table() + "\n```", nil
		},
	},
	"timelist": {
		reportOnly: true,
		failure:    "❌ An error occurred while building the time list!",
		run: func(_ context.Context, c *Client, _ Command) (string, error) {
			return "```\n" + c.Engine.Timelist() + "\n```", nil
		},
	},
	"schedule": {
		failure: "❌ An error occurred while building the schedule!",
		run: func(_ context.Context, c *Client, cmd Command) (string, error) {
			offset := c.Engine.DisplayOffset()
			if strings.EqualFold(cmd.Options["zone"], "utc") {
				offset = 0
			}
			return c.Engine.ScheduleText(offset), nil
		},
	},
	"ping": {
		failure: "❌ An error occurred while measuring the ping!",
		run: func(_ context.Context, c *Client, cmd Command) (string, error) {
			var ms int64
			if !cmd.CreatedAt.IsZero() {
				ms = c.now().Sub(cmd.CreatedAt).Milliseconds()
			}
			if ms < 0 {
				ms = 0
			}
			return strings.TrimSpace(fmt.Sprintf("%s Pong! `%d ms`", c.Engine.Emoji("pingpong"), ms)), nil
		},
	},
	"botstatus": {
		failure: "❌ An error occurred while reading the bot status!",
		run: func(_ context.Context, c *Client, _ Command) (string, error) {
			return render.Status(c.Engine.Status()), nil
		},
	},
	"setrsn": {
		admin:   true,
		failure: "❌ An error occurred while setting the RSN!",
		run: func(ctx context.Context, c *Client, cmd Command) (string, error) {
			player, value, err := playerOption(cmd, "rsn")
			if err != nil {
				return "", err
			}
			p, err := c.Engine.SetRSN(ctx, player, value)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ RSN of %s set to `%s`", playerName(p), p.RSN), nil
		},
	},
	"setclan": {
		admin:   true,
		failure: "❌ An error occurred while setting the clan!",
		run: func(ctx context.Context, c *Client, cmd Command) (string, error) {
			player, value, err := playerOption(cmd, "clan")
			if err != nil {
				return "", err
			}
			p, err := c.Engine.SetClan(ctx, player, value)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Clan of %s set to `%s`", playerName(p), p.Clan), nil
		},
	},
}

func playerOption(cmd Command, key string) (domain.Reporter, string, error) {
	id := strings.TrimSpace(cmd.Options["user"])
	value := strings.TrimSpace(cmd.Options[key])
	if id == "" || value == "" {
		return domain.Reporter{}, "", fmt.Errorf("user and %s are required", key)
	}
	return domain.Reporter{ID: id, Username: strings.TrimSpace(cmd.Options["username"])}, value, nil
}

func playerName(p domain.Player) string {
	if p.Username != "" {
		return p.Username
	}
	return p.ID
}

// HandleCommand runs a slash command and replies to the interaction.
func (c *Client) HandleCommand(ctx context.Context, cmd Command) {
	spec, ok := commands[cmd.Name]
	if !ok {
		c.log().Debug("unknown command", zap.String("command", cmd.Name))
		return
	}
	if spec.reportOnly && !c.allowed(cmd.ChannelID) {
		c.replyCommand(cmd, ChannelDeniedText, true)
		return
	}
	if spec.admin && !cmd.Admin {
		c.replyCommand(cmd, PermissionText, true)
		return
	}
	out, err := spec.run(ctx, c, cmd)
	if err != nil {
		c.log().Warn("command failed", zap.String("command", cmd.Name), zap.String("user", cmd.User.ID), zap.Error(err))
		c.replyCommand(cmd, spec.failure, true)
		return
	}
	c.replyCommand(cmd, out, spec.admin)
}
