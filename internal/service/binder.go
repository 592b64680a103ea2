package service

import (
	"context"
	"fmt"

	"github.com/vedran77/raidpool/internal/config"
	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/embeds"
	"github.com/vedran77/raidpool/internal/observability"
	"github.com/vedran77/raidpool/internal/platform"
	"github.com/vedran77/raidpool/pkg/mention"
)

// Binder finalizes a claim made by the Allocator: it writes the
// announcement reference into the channel binding, performs the first-time
// setup (creator grant, auxiliary role grants, summary message with the
// leave reaction), and rolls the slot back to open if any step fails, so a
// failed bind never strands a claimed channel.
type Binder struct {
	client   platform.Client
	registry *Registry
	cfg      *config.Config
}

func NewBinder(client platform.Client, registry *Registry, cfg *config.Config) *Binder {
	return &Binder{client: client, registry: registry, cfg: cfg}
}

func (b *Binder) Bind(ctx context.Context, guildID, channelID, announcementID, creatorID, description string) (*domain.Raid, error) {
	pool, err := b.registry.Discover(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var granted []string
	rollback := func() {
		for _, target := range granted {
			if err := b.client.RevokeGrant(ctx, channelID, target); err != nil {
				observability.Logger().Warn("bind rollback: revoke failed",
					"channel", channelID, "target", target, "err", err)
			}
		}
		if err := b.client.SetChannelTopic(ctx, channelID, ""); err != nil {
			observability.Logger().Error("bind rollback: releasing claim failed",
				"channel", channelID, "err", err)
		}
	}

	msg, err := b.client.Message(ctx, pool.AnnouncementChannelID, announcementID)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("resolving announcement %s: %w", announcementID, err)
	}

	topic, err := domain.ActiveBinding(announcementID).Format()
	if err != nil {
		rollback()
		return nil, err
	}
	if err := b.client.SetChannelTopic(ctx, channelID, topic); err != nil {
		rollback()
		return nil, fmt.Errorf("binding channel %s: %w", channelID, err)
	}

	raid := &domain.Raid{
		GuildID:        guildID,
		ChannelID:      channelID,
		AnnouncementID: announcementID,
		CreatorID:      creatorID,
		CreatedAt:      msg.CreatedAt,
		ExpiresAt:      domain.ExpiresAfter(msg.CreatedAt, b.cfg.RaidTTL),
	}

	if err := b.client.GrantRead(ctx, channelID, creatorID, platform.GrantUser); err != nil {
		rollback()
		return nil, fmt.Errorf("granting creator: %w", err)
	}
	granted = append(granted, creatorID)

	for _, role := range pool.AuxiliaryRoles {
		if err := b.client.GrantRead(ctx, channelID, role.ID, platform.GrantRole); err != nil {
			rollback()
			return nil, fmt.Errorf("granting role %s: %w", role.Name, err)
		}
		granted = append(granted, role.ID)
	}

	summary := embeds.RaidSummary(creatorID, description, raid.ExpiresAt, b.cfg.LeaveEmoji, b.cfg.TimeFormat)
	posted, err := b.client.SendMessage(ctx, channelID, "", summary)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("posting summary: %w", err)
	}
	if err := b.client.AddReaction(ctx, channelID, posted.ID, b.cfg.LeaveEmoji); err != nil {
		rollback()
		return nil, fmt.Errorf("seeding leave reaction: %w", err)
	}

	notice := fmt.Sprintf("%s, you are now a member of this raid group.", mention.User(creatorID))
	joined := embeds.Success(fmt.Sprintf("%s has joined the raid!", mention.User(creatorID)))
	if _, err := b.client.SendMessage(ctx, channelID, notice, joined); err != nil {
		observability.Logger().Warn("posting creator join notice failed",
			"channel", channelID, "err", err)
	}

	return raid, nil
}
