// Package gateway classifies inbound Discord events and routes them to the
// lifecycle services. Each event runs in its own goroutine with panic
// recovery, so one failing event never blocks the dispatch loop.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/vedran77/raidpool/internal/config"
	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/embeds"
	"github.com/vedran77/raidpool/internal/observability"
	"github.com/vedran77/raidpool/internal/platform"
	"github.com/vedran77/raidpool/internal/service"
	"github.com/vedran77/raidpool/pkg/mention"
)

const (
	cmdLeave = "$leaveraid"
	cmdList  = "$listraid"
	cmdEnd   = "$endraid"
)

type Dispatcher struct {
	client   platform.Client
	cfg      *config.Config
	registry *service.Registry
	alloc    *service.Allocator
	binder   *service.Binder
	members  *service.Membership
	botID    string
	startRx  *regexp.Regexp
	log      *slog.Logger
}

func NewDispatcher(client platform.Client, cfg *config.Config, registry *service.Registry,
	alloc *service.Allocator, binder *service.Binder, members *service.Membership, botID string) (*Dispatcher, error) {
	rx, err := regexp.Compile(cfg.RaidStartRegex)
	if err != nil {
		return nil, fmt.Errorf("compiling raid start regex: %w", err)
	}
	return &Dispatcher{
		client:   client,
		cfg:      cfg,
		registry: registry,
		alloc:    alloc,
		binder:   binder,
		members:  members,
		botID:    botID,
		startRx:  rx,
		log:      observability.Logger(),
	}, nil
}

// Register attaches the dispatcher to the gateway session.
func (d *Dispatcher) Register(s *discordgo.Session) {
	s.AddHandler(d.HandleGuildCreate)
	s.AddHandler(d.HandleMessageCreate)
	s.AddHandler(d.HandleReactionAdd)
	s.AddHandler(d.HandleReactionRemove)
}

// HandleGuildCreate discovers the guild's pool and logs what it found, the
// one-time equivalent of the original startup banner.
func (d *Dispatcher) HandleGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	d.dispatch("guild create", func(ctx context.Context) error {
		pool, err := d.registry.Discover(ctx, g.ID)
		if err != nil {
			return err
		}
		d.log.Info("guild ready",
			"guild", g.ID,
			"announcement_channel", pool.AnnouncementChannelID,
			"backup_channel", pool.BackupChannelID,
			"raid_channels", len(pool.RaidChannels))
		return nil
	})
}

func (d *Dispatcher) HandleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == d.botID || m.GuildID == "" {
		return
	}
	d.dispatch("message", func(ctx context.Context) error {
		pool, err := d.registry.Discover(ctx, m.GuildID)
		if err != nil {
			return err
		}

		switch {
		case m.ChannelID == pool.AnnouncementChannelID && d.isRaidStart(pool, m.MentionRoles):
			return d.startRaid(ctx, pool, m)
		case pool.Contains(m.ChannelID) && strings.HasPrefix(m.Content, cmdLeave):
			return d.members.Leave(ctx, m.GuildID, m.ChannelID, m.Author.ID)
		case pool.Contains(m.ChannelID) && strings.HasPrefix(m.Content, cmdList):
			return d.members.List(ctx, m.ChannelID)
		case pool.Contains(m.ChannelID) && strings.HasPrefix(m.Content, cmdEnd):
			return d.members.End(ctx, m.GuildID, m.ChannelID, m.Author.ID)
		}
		return nil
	})
}

func (d *Dispatcher) HandleReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == d.botID || r.GuildID == "" {
		return
	}
	d.dispatch("reaction add", func(ctx context.Context) error {
		pool, err := d.registry.Discover(ctx, r.GuildID)
		if err != nil {
			return err
		}

		switch {
		case r.Emoji.Name == d.cfg.JoinEmoji && r.ChannelID == pool.AnnouncementChannelID:
			return d.members.Join(ctx, r.GuildID, r.MessageID, r.UserID)

		case r.Emoji.Name == d.cfg.LeaveEmoji && pool.Contains(r.ChannelID):
			// Only the bot's own summary message carries the leave
			// affordance.
			msg, err := d.client.Message(ctx, r.ChannelID, r.MessageID)
			if err != nil {
				if errors.Is(err, platform.ErrNotFound) {
					return nil
				}
				return err
			}
			if msg.AuthorID != d.botID {
				return nil
			}
			if err := d.members.Leave(ctx, r.GuildID, r.ChannelID, r.UserID); err != nil {
				return err
			}
			return d.client.RemoveReaction(ctx, r.ChannelID, r.MessageID, d.cfg.LeaveEmoji, r.UserID)
		}
		return nil
	})
}

func (d *Dispatcher) HandleReactionRemove(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.UserID == d.botID || r.GuildID == "" {
		return
	}
	d.dispatch("reaction remove", func(ctx context.Context) error {
		pool, err := d.registry.Discover(ctx, r.GuildID)
		if err != nil {
			return err
		}
		if r.Emoji.Name != d.cfg.JoinEmoji || r.ChannelID != pool.AnnouncementChannelID {
			return nil
		}

		channelID, err := d.members.ChannelFor(ctx, r.GuildID, r.MessageID)
		if err != nil || channelID == "" {
			return err
		}
		return d.members.Leave(ctx, r.GuildID, channelID, r.UserID)
	})
}

// startRaid runs the allocate+bind sequence behind a placeholder
// announcement, editing it into either the start embed or the
// capacity-exceeded pointer at the backup channel.
func (d *Dispatcher) startRaid(ctx context.Context, pool *domain.Pool, m *discordgo.MessageCreate) error {
	placeholder, err := d.client.SendMessage(ctx, pool.AnnouncementChannelID, "Looking for open channels...", nil)
	if err != nil {
		return fmt.Errorf("posting placeholder: %w", err)
	}

	channelID, err := d.alloc.Allocate(ctx, m.GuildID)
	if errors.Is(err, service.ErrPoolExhausted) {
		content := fmt.Sprintf("*%q*\n\n**in:** %s", m.Content, mention.Channel(pool.BackupChannelID))
		busy, err := d.client.EditMessage(ctx, pool.AnnouncementChannelID, placeholder.ID, content, embeds.RaidBusy(pool.BackupChannelID))
		if err != nil {
			return fmt.Errorf("editing busy announcement: %w", err)
		}
		return d.client.AddReaction(ctx, pool.AnnouncementChannelID, busy.ID, d.cfg.FullEmoji)
	}
	if err != nil {
		d.failAnnouncement(ctx, pool.AnnouncementChannelID, placeholder.ID)
		return fmt.Errorf("allocating channel: %w", err)
	}

	raid, err := d.binder.Bind(ctx, m.GuildID, channelID, placeholder.ID, m.Author.ID, m.Content)
	if err != nil {
		d.failAnnouncement(ctx, pool.AnnouncementChannelID, placeholder.ID)
		return fmt.Errorf("binding %s: %w", channelID, err)
	}

	content := fmt.Sprintf("**%s**\n\n**in:** %s", m.Content, mention.Channel(channelID))
	start := embeds.RaidStart(raid.CreatorID, raid.CreatedAt, raid.ExpiresAt, d.cfg.JoinEmoji, d.cfg.TimeFormat)
	announced, err := d.client.EditMessage(ctx, pool.AnnouncementChannelID, placeholder.ID, content, start)
	if err != nil {
		return fmt.Errorf("editing announcement: %w", err)
	}
	return d.client.AddReaction(ctx, pool.AnnouncementChannelID, announced.ID, d.cfg.JoinEmoji)
}

func (d *Dispatcher) failAnnouncement(ctx context.Context, channelID, messageID string) {
	failed := embeds.Failure("Could not open a raid channel. Please try again.")
	if _, err := d.client.EditMessage(ctx, channelID, messageID, "", failed); err != nil {
		d.log.Warn("editing failed announcement", "message", messageID, "err", err)
	}
}

func (d *Dispatcher) isRaidStart(pool *domain.Pool, mentionRoleIDs []string) bool {
	for _, id := range mentionRoleIDs {
		if name := pool.RoleName(id); name != "" && d.startRx.MatchString(name) {
			return true
		}
	}
	return false
}

// dispatch runs one unit of work detached from the gateway callback.
func (d *Dispatcher) dispatch(kind string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("event handler panicked", "event", kind, "panic", r)
			}
		}()
		if err := fn(context.Background()); err != nil {
			d.log.Error("event handling failed", "event", kind, "err", err)
		}
	}()
}
