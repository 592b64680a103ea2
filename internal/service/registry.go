package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vedran77/raidpool/internal/config"
	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/platform"
)

var (
	ErrNoAnnouncementChannel = errors.New("announcement channel not found")
	ErrNoBackupChannel       = errors.New("backup channel not found")
)

// Registry discovers the raid pool for a guild and memoizes it for the
// process lifetime. There is no refresh: channels or roles created after the
// first discovery stay invisible until the process restarts. That staleness
// is deliberate; the pool is assumed to be provisioned ahead of time.
type Registry struct {
	client    platform.Client
	cfg       *config.Config
	channelRx *regexp.Regexp

	group singleflight.Group
	mu    sync.RWMutex
	pools map[string]*domain.Pool
}

func NewRegistry(client platform.Client, cfg *config.Config) (*Registry, error) {
	rx, err := regexp.Compile(cfg.RaidChannelRegex)
	if err != nil {
		return nil, fmt.Errorf("compiling raid channel regex: %w", err)
	}
	return &Registry{
		client:    client,
		cfg:       cfg,
		channelRx: rx,
		pools:     make(map[string]*domain.Pool),
	}, nil
}

// Discover returns the guild's pool, running the platform enumeration at
// most once per guild. Concurrent first calls share a single flight.
func (r *Registry) Discover(ctx context.Context, guildID string) (*domain.Pool, error) {
	r.mu.RLock()
	pool, ok := r.pools[guildID]
	r.mu.RUnlock()
	if ok {
		return pool, nil
	}

	v, err, _ := r.group.Do(guildID, func() (any, error) {
		pool, err := r.discover(ctx, guildID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.pools[guildID] = pool
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Pool), nil
}

func (r *Registry) discover(ctx context.Context, guildID string) (*domain.Pool, error) {
	channels, err := r.client.GuildChannels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	roles, err := r.client.GuildRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}

	pool := &domain.Pool{GuildID: guildID}

	for _, ch := range channels {
		switch {
		case ch.Name == r.cfg.AnnouncementChannel:
			pool.AnnouncementChannelID = ch.ID
		case ch.Name == r.cfg.BackupChannel:
			pool.BackupChannelID = ch.ID
		case r.channelRx.MatchString(ch.Name) && ch.Perms.CanHostRaid():
			pool.RaidChannels = append(pool.RaidChannels, domain.PoolChannel{ID: ch.ID, Name: ch.Name})
		}
	}
	if pool.AnnouncementChannelID == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoAnnouncementChannel, r.cfg.AnnouncementChannel)
	}
	if pool.BackupChannelID == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoBackupChannel, r.cfg.BackupChannel)
	}

	for _, role := range roles {
		pool.Roles = append(pool.Roles, domain.Role{ID: role.ID, Name: role.Name})
		for _, name := range r.cfg.AuxiliaryRoles {
			if role.Name == name {
				pool.AuxiliaryRoles = append(pool.AuxiliaryRoles, domain.Role{ID: role.ID, Name: role.Name})
			}
		}
	}

	return pool, nil
}
