package service

import (
	"context"
	"errors"
	"time"

	"github.com/vedran77/raidpool/internal/config"
	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/observability"
	"github.com/vedran77/raidpool/internal/platform"
)

// Sweeper is the periodic reclamation pass and the only forward-progress
// guarantee when end or leave signals are lost. Each tick re-derives every
// pool channel's state from the platform and reclaims channels that are
// expired, memberless, or whose announcement record has vanished. Nothing
// here depends on any event having been delivered.
type Sweeper struct {
	client   platform.Client
	registry *Registry
	teardown *Teardown
	cfg      *config.Config
	now      func() time.Time
}

func NewSweeper(client platform.Client, registry *Registry, teardown *Teardown, cfg *config.Config) *Sweeper {
	return &Sweeper{client: client, registry: registry, teardown: teardown, cfg: cfg, now: time.Now}
}

// Run sweeps immediately, then on every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		s.Sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs one reclamation pass over every guild. A failure on one
// channel never stops the rest of the pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	guilds, err := s.client.Guilds(ctx)
	if err != nil {
		observability.Logger().Error("sweep: listing guilds failed", "err", err)
		return
	}

	for _, guildID := range guilds {
		pool, err := s.registry.Discover(ctx, guildID)
		if err != nil {
			observability.Logger().Error("sweep: discovery failed", "guild", guildID, "err", err)
			continue
		}
		for _, ch := range pool.RaidChannels {
			s.sweepChannel(ctx, pool, ch.ID)
		}
	}
}

func (s *Sweeper) sweepChannel(ctx context.Context, pool *domain.Pool, channelID string) {
	log := observability.WithFields("guild", pool.GuildID, "channel", channelID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("sweep: panic evaluating channel", "panic", r)
		}
	}()

	topic, err := s.client.ChannelTopic(ctx, channelID)
	if err != nil {
		// Transient failures are never grounds for reclamation; the next
		// tick re-evaluates.
		if !errors.Is(err, platform.ErrNotFound) {
			log.Warn("sweep: reading binding failed", "err", err)
		}
		return
	}

	binding, err := domain.ParseBinding(topic)
	if err != nil {
		log.Warn("sweep: malformed binding, reclaiming", "topic", topic)
		s.reclaim(ctx, pool.GuildID, channelID, "malformed binding")
		return
	}

	switch binding.Kind {
	case domain.BindingOpen:
		return

	case domain.BindingClaimed:
		// A claim should finalize well within one interval. Older claims
		// are leftovers of a bind that died mid-flight.
		if s.now().Sub(binding.ClaimedAt) > s.cfg.SweepInterval {
			s.reclaim(ctx, pool.GuildID, channelID, "stale claim")
		}
		return
	}

	msg, err := s.client.Message(ctx, pool.AnnouncementChannelID, binding.MessageID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			s.reclaim(ctx, pool.GuildID, channelID, "record lost")
		} else {
			log.Warn("sweep: resolving announcement failed", "message", binding.MessageID, "err", err)
		}
		return
	}

	if s.now().Sub(msg.CreatedAt) > s.cfg.RaidTTL {
		s.reclaim(ctx, pool.GuildID, channelID, "expired")
		return
	}

	grants, err := s.client.ChannelGrants(ctx, channelID)
	if err != nil {
		log.Warn("sweep: listing grants failed", "err", err)
		return
	}
	if userGrantCount(grants) == 0 {
		s.reclaim(ctx, pool.GuildID, channelID, "empty")
	}
}

func (s *Sweeper) reclaim(ctx context.Context, guildID, channelID, reason string) {
	if err := s.teardown.Run(ctx, guildID, channelID); err != nil {
		observability.Logger().Error("sweep: teardown failed",
			"guild", guildID, "channel", channelID, "reason", reason, "err", err)
		return
	}
	observability.Logger().Info("sweep: channel reclaimed",
		"guild", guildID, "channel", channelID, "reason", reason)
}
