package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vedran77/raidpool/internal/config"
	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/embeds"
	"github.com/vedran77/raidpool/internal/observability"
	"github.com/vedran77/raidpool/internal/platform"
	"github.com/vedran77/raidpool/pkg/mention"
)

// Teardown reclaims a raid channel: revoke grants, purge history, finalize
// the announcement, clear the binding slot. Every step past the initial
// binding read is best-effort — a half-closed record is recoverable, a
// channel stuck Active forever is not — so partial failures are logged and
// the slot is cleared regardless.
type Teardown struct {
	client   platform.Client
	registry *Registry
	cfg      *config.Config
	now      func() time.Time
}

func NewTeardown(client platform.Client, registry *Registry, cfg *config.Config) *Teardown {
	return &Teardown{client: client, registry: registry, cfg: cfg, now: time.Now}
}

// Run is idempotent: reclaiming an already-open channel succeeds without
// touching anything.
func (t *Teardown) Run(ctx context.Context, guildID, channelID string) error {
	pool, err := t.registry.Discover(ctx, guildID)
	if err != nil {
		return err
	}

	topic, err := t.client.ChannelTopic(ctx, channelID)
	if err != nil {
		return fmt.Errorf("reading binding of %s: %w", channelID, err)
	}
	binding, err := domain.ParseBinding(topic)
	if err != nil {
		// A malformed binding still occupies the slot; reclaim it.
		binding = domain.Binding{}
	}
	if binding.IsOpen() {
		return nil
	}

	log := observability.WithFields("guild", guildID, "channel", channelID)

	// Resolve the record and creator before grants disappear. Both may be
	// gone already; teardown proceeds without them.
	var msg *platform.Message
	if binding.Kind == domain.BindingActive {
		msg, err = t.client.Message(ctx, pool.AnnouncementChannelID, binding.MessageID)
		if err != nil {
			if !errors.Is(err, platform.ErrNotFound) {
				log.Warn("resolving announcement failed", "message", binding.MessageID, "err", err)
			}
			msg = nil
		}
	}

	grants, err := t.client.ChannelGrants(ctx, channelID)
	if err != nil {
		log.Warn("listing grants failed", "err", err)
		grants = nil
	}
	creator := creatorFrom(msg, grants)

	aux := make(map[string]bool, len(pool.AuxiliaryRoles))
	for _, role := range pool.AuxiliaryRoles {
		aux[role.ID] = true
	}
	for _, g := range grants {
		if g.Kind != platform.GrantUser && !aux[g.TargetID] {
			continue
		}
		if err := t.client.RevokeGrant(ctx, channelID, g.TargetID); err != nil {
			log.Warn("revoking grant failed", "target", g.TargetID, "err", err)
		}
	}

	if err := t.client.PurgeChannel(ctx, channelID); err != nil {
		log.Warn("purging history failed", "err", err)
	}

	if msg != nil {
		creatorMention := ""
		if creator != "" {
			creatorMention = mention.User(creator)
		}
		ended := embeds.RaidEnd(creatorMention, msg.CreatedAt, t.now(), t.cfg.TimeFormat)
		if _, err := t.client.EditMessage(ctx, msg.ChannelID, msg.ID, msg.Content, ended); err != nil {
			log.Warn("finalizing announcement failed", "message", msg.ID, "err", err)
		}
		if err := t.client.ClearReactions(ctx, msg.ChannelID, msg.ID); err != nil {
			log.Warn("clearing join marks failed", "message", msg.ID, "err", err)
		}
	}

	if err := t.client.SetChannelTopic(ctx, channelID, ""); err != nil {
		return fmt.Errorf("releasing channel %s: %w", channelID, err)
	}
	return nil
}
