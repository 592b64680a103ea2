package service

import (
	"context"
	"testing"
	"time"

	"github.com/vedran77/raidpool/internal/config"
	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/embeds"
	"github.com/vedran77/raidpool/internal/platform/platformtest"
	"github.com/vedran77/raidpool/pkg/mention"
)

const (
	testGuild   = "guild-1"
	annChannel  = "chan-announce"
	bakChannel  = "chan-backup"
	raidChan1   = "chan-raid-1"
	raidChan2   = "chan-raid-2"
	auxRoleID   = "role-aux"
	startRoleID = "role-raid-alert"
)

var t0 = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		AnnouncementChannel: "announcements",
		BackupChannel:       "raid-coordination",
		RaidChannelRegex:    "^raid-group-.+",
		RaidStartRegex:      "^raid-.+",
		RaidTTL:             2 * time.Hour,
		SweepInterval:       60 * time.Second,
		AuxiliaryRoles:      []string{"raid-viewer"},
		JoinEmoji:           "👤",
		LeaveEmoji:          "🚪",
		FullEmoji:           "😟",
		TimeFormat:          "2006-01-02 03:04:05 PM",
	}
}

type env struct {
	fake     *platformtest.Fake
	cfg      *config.Config
	registry *Registry
	alloc    *Allocator
	binder   *Binder
	teardown *Teardown
	members  *Membership
	sweeper  *Sweeper
}

// newEnv wires the full service stack over a fake platform seeded with an
// announcement channel, a backup channel, two raid channels, and one
// auxiliary role.
func newEnv(t *testing.T) *env {
	t.Helper()

	fake := platformtest.New()
	fake.AddGuild(testGuild)
	fake.AddChannel(testGuild, annChannel, "announcements")
	fake.AddChannel(testGuild, bakChannel, "raid-coordination")
	fake.AddChannel(testGuild, raidChan1, "raid-group-one")
	fake.AddChannel(testGuild, raidChan2, "raid-group-two")
	fake.AddRole(testGuild, auxRoleID, "raid-viewer")
	fake.AddRole(testGuild, startRoleID, "raid-alert")

	cfg := testConfig()
	registry, err := NewRegistry(fake, cfg)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	teardown := NewTeardown(fake, registry, cfg)
	return &env{
		fake:     fake,
		cfg:      cfg,
		registry: registry,
		alloc:    NewAllocator(fake, registry),
		binder:   NewBinder(fake, registry, cfg),
		teardown: teardown,
		members:  NewMembership(fake, registry, teardown, cfg),
		sweeper:  NewSweeper(fake, registry, teardown, cfg),
	}
}

// startRaid allocates and binds a raid for creatorID and returns the bound
// channel and announcement ids. The announcement body carries the channel
// reference the reconciler resolves raids by.
func (e *env) startRaid(t *testing.T, creatorID string) (channelID, announcementID string) {
	t.Helper()
	ctx := context.Background()

	channelID, err := e.alloc.Allocate(ctx, testGuild)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	announcementID = e.fake.SeedMessage(annChannel, "bot", "Looking for open channels...", t0)
	raid, err := e.binder.Bind(ctx, testGuild, channelID, announcementID, creatorID, "T5 raid at the gym")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	start := embeds.RaidStart(creatorID, raid.CreatedAt, raid.ExpiresAt, e.cfg.JoinEmoji, e.cfg.TimeFormat)
	content := "**T5 raid at the gym**\n\n**in:** " + mention.Channel(channelID)
	if _, err := e.fake.EditMessage(ctx, annChannel, announcementID, content, start); err != nil {
		t.Fatalf("editing announcement failed: %v", err)
	}
	return channelID, announcementID
}

func (e *env) binding(t *testing.T, channelID string) domain.Binding {
	t.Helper()
	b, err := domain.ParseBinding(e.fake.Topic(channelID))
	if err != nil {
		t.Fatalf("parsing binding of %s: %v", channelID, err)
	}
	return b
}
