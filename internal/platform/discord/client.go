package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/vedran77/raidpool/internal/platform"
)

func (c *Client) GuildChannels(ctx context.Context, guildID string) ([]platform.Channel, error) {
	channels, err := call(ctx, func() ([]*discordgo.Channel, error) {
		return c.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}

	var out []platform.Channel
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		perms, err := c.s.UserChannelPermissions(c.botID, ch.ID)
		if err != nil {
			// Unresolvable permissions exclude the channel from hosting,
			// same as missing permissions.
			perms = 0
		}
		out = append(out, platform.Channel{
			ID:    ch.ID,
			Name:  ch.Name,
			Topic: ch.Topic,
			Perms: platform.Permissions{
				ManageRoles:    perms&discordgo.PermissionManageRoles != 0,
				ManageMessages: perms&discordgo.PermissionManageMessages != 0,
				ManageChannel:  perms&discordgo.PermissionManageChannels != 0,
				ReadMessages:   perms&discordgo.PermissionViewChannel != 0,
			},
		})
	}
	return out, nil
}

func (c *Client) GuildRoles(ctx context.Context, guildID string) ([]platform.Role, error) {
	roles, err := call(ctx, func() ([]*discordgo.Role, error) {
		return c.s.GuildRoles(guildID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}
	out := make([]platform.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, platform.Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (c *Client) ChannelTopic(ctx context.Context, channelID string) (string, error) {
	ch, err := call(ctx, func() (*discordgo.Channel, error) {
		return c.s.Channel(channelID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return "", err
	}
	return ch.Topic, nil
}

func (c *Client) SetChannelTopic(ctx context.Context, channelID, topic string) error {
	// ChannelEdit drops empty topics from the payload, which would make
	// clearing the binding slot impossible; patch the field directly.
	return callErr(ctx, func() error {
		body := struct {
			Topic string `json:"topic"`
		}{Topic: topic}
		_, err := c.s.Request("PATCH", discordgo.EndpointChannel(channelID), body, discordgo.WithContext(ctx))
		return err
	})
}

func (c *Client) ChannelGrants(ctx context.Context, channelID string) ([]platform.Grant, error) {
	ch, err := call(ctx, func() (*discordgo.Channel, error) {
		return c.s.Channel(channelID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}

	var out []platform.Grant
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == c.botID {
			continue
		}
		kind := platform.GrantRole
		if ow.Type == discordgo.PermissionOverwriteTypeMember {
			kind = platform.GrantUser
		}
		out = append(out, platform.Grant{TargetID: ow.ID, Kind: kind})
	}
	return out, nil
}

func (c *Client) GrantRead(ctx context.Context, channelID, targetID string, kind platform.GrantKind) error {
	owType := discordgo.PermissionOverwriteTypeRole
	if kind == platform.GrantUser {
		owType = discordgo.PermissionOverwriteTypeMember
	}
	return callErr(ctx, func() error {
		return c.s.ChannelPermissionSet(channelID, targetID, owType,
			discordgo.PermissionViewChannel, 0, discordgo.WithContext(ctx))
	})
}

func (c *Client) RevokeGrant(ctx context.Context, channelID, targetID string) error {
	return callErr(ctx, func() error {
		return c.s.ChannelPermissionDelete(channelID, targetID, discordgo.WithContext(ctx))
	})
}

func (c *Client) SendMessage(ctx context.Context, channelID, content string, embed *platform.Embed) (*platform.Message, error) {
	msg, err := call(ctx, func() (*discordgo.Message, error) {
		return c.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content: content,
			Embed:   toMessageEmbed(embed),
		}, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}
	return fromMessage(msg), nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string, embed *platform.Embed) (*platform.Message, error) {
	msg, err := call(ctx, func() (*discordgo.Message, error) {
		edit := discordgo.NewMessageEdit(channelID, messageID).SetContent(content)
		if embed != nil {
			edit = edit.SetEmbed(toMessageEmbed(embed))
		}
		return c.s.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}
	return fromMessage(msg), nil
}

func (c *Client) Message(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	msg, err := call(ctx, func() (*discordgo.Message, error) {
		return c.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, err
	}
	return fromMessage(msg), nil
}

func (c *Client) PurgeChannel(ctx context.Context, channelID string) error {
	for {
		msgs, err := call(ctx, func() ([]*discordgo.Message, error) {
			return c.s.ChannelMessages(channelID, 100, "", "", "", discordgo.WithContext(ctx))
		})
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}

		ids := make([]string, 0, len(msgs))
		for _, m := range msgs {
			ids = append(ids, m.ID)
		}
		if len(ids) > 1 {
			err = callErr(ctx, func() error {
				return c.s.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx))
			})
			if err == nil {
				continue
			}
		}

		// Bulk delete rejects messages older than two weeks; fall back to
		// deleting one by one.
		for _, id := range ids {
			if err := callErr(ctx, func() error {
				return c.s.ChannelMessageDelete(channelID, id, discordgo.WithContext(ctx))
			}); err != nil {
				return err
			}
		}
	}
}

func (c *Client) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return callErr(ctx, func() error {
		return c.s.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
	})
}

func (c *Client) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	return callErr(ctx, func() error {
		return c.s.MessageReactionRemove(channelID, messageID, emoji, userID, discordgo.WithContext(ctx))
	})
}

func (c *Client) ClearReactions(ctx context.Context, channelID, messageID string) error {
	return callErr(ctx, func() error {
		return c.s.MessageReactionsRemoveAll(channelID, messageID, discordgo.WithContext(ctx))
	})
}

func toMessageEmbed(e *platform.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}

func fromMessage(m *discordgo.Message) *platform.Message {
	if m == nil {
		return nil
	}
	out := &platform.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
	}
	for _, e := range m.Embeds {
		embed := platform.Embed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
		}
		for _, f := range e.Fields {
			embed.Fields = append(embed.Fields, platform.EmbedField{
				Name:   f.Name,
				Value:  f.Value,
				Inline: f.Inline,
			})
		}
		if e.Footer != nil {
			embed.Footer = e.Footer.Text
		}
		out.Embeds = append(out.Embeds, embed)
	}
	return out
}
