package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/platform"
)

// ErrPoolExhausted means no raid channel is currently open. A normal
// outcome, not a failure: callers route it to the backup-channel response.
var ErrPoolExhausted = errors.New("no open raid channel available")

// Allocator claims an open channel from the pool. The scan-then-claim
// sequence spans several platform calls, so it is serialized per guild: the
// guild lock is held from the first topic read until the claim write is
// acknowledged. Two concurrent Allocate calls can therefore never observe
// the same channel as open.
type Allocator struct {
	client   platform.Client
	registry *Registry
	now      func() time.Time

	mu     sync.Mutex
	guilds map[string]*sync.Mutex
}

func NewAllocator(client platform.Client, registry *Registry) *Allocator {
	return &Allocator{
		client:   client,
		registry: registry,
		now:      time.Now,
		guilds:   make(map[string]*sync.Mutex),
	}
}

// Allocate scans the pool in discovery order and reserves the first open
// channel by writing a provisional claim into its topic. The claim is
// finalized by Binder.Bind or rolled back by its compensating release.
func (a *Allocator) Allocate(ctx context.Context, guildID string) (string, error) {
	pool, err := a.registry.Discover(ctx, guildID)
	if err != nil {
		return "", err
	}

	lock := a.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	for _, ch := range pool.RaidChannels {
		topic, err := a.client.ChannelTopic(ctx, ch.ID)
		if err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				continue
			}
			return "", fmt.Errorf("reading binding of %s: %w", ch.ID, err)
		}

		binding, err := domain.ParseBinding(topic)
		if err != nil || !binding.IsOpen() {
			// Malformed bindings are the sweeper's problem, not free slots.
			continue
		}

		claim, err := domain.ClaimBinding(uuid.NewString(), a.now()).Format()
		if err != nil {
			return "", err
		}
		if err := a.client.SetChannelTopic(ctx, ch.ID, claim); err != nil {
			return "", fmt.Errorf("claiming %s: %w", ch.ID, err)
		}
		return ch.ID, nil
	}

	return "", ErrPoolExhausted
}

func (a *Allocator) guildLock(guildID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.guilds[guildID]
	if !ok {
		lock = &sync.Mutex{}
		a.guilds[guildID] = lock
	}
	return lock
}
