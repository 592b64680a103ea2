// Package discord implements platform.Client over the Discord REST and
// gateway APIs via discordgo.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/vedran77/raidpool/internal/platform"
)

var _ platform.Client = (*Client)(nil)

// Client wraps a connected discordgo session. All REST calls go through the
// adapter's retry/error mapping; gateway event handlers are registered by
// the transport layer on Session().
type Client struct {
	s     *discordgo.Session
	botID string
}

// Connect opens a gateway session with the intents the coordinator needs.
func Connect(token string) (*Client, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening gateway: %w", err)
	}

	return &Client{s: s, botID: s.State.User.ID}, nil
}

// Session exposes the underlying gateway session for handler registration.
func (c *Client) Session() *discordgo.Session {
	return c.s
}

// BotID is the bot's own user id, used to ignore self-originated events.
func (c *Client) BotID() string {
	return c.botID
}

func (c *Client) Close() error {
	return c.s.Close()
}

// Guilds lists connected guilds from gateway state; no REST call involved.
func (c *Client) Guilds(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(c.s.State.Guilds))
	for _, g := range c.s.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids, nil
}
