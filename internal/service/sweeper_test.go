package service

import (
	"context"
	"testing"
	"time"

	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/platform"
)

// Expiration dominates membership: a raid past its TTL is reclaimed even
// with members still inside.
func TestSweepReclaimsExpiredRaid(t *testing.T) {
	e := newEnv(t)
	channelID, _ := e.startRaid(t, "user-a")

	e.sweeper.now = func() time.Time { return t0.Add(e.cfg.RaidTTL + 100*time.Second) }
	e.sweeper.Sweep(context.Background())

	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("expected expired raid reclaimed, got %+v", b)
	}
	if got := e.fake.UserGrantCount(channelID); got != 0 {
		t.Fatalf("grants survived reclamation: %d", got)
	}
}

func TestSweepKeepsLiveRaid(t *testing.T) {
	e := newEnv(t)
	channelID, _ := e.startRaid(t, "user-a")

	e.sweeper.now = func() time.Time { return t0.Add(10 * time.Second) }
	e.sweeper.Sweep(context.Background())

	if b := e.binding(t, channelID); b.Kind != domain.BindingActive {
		t.Fatalf("live raid was reclaimed: %+v", b)
	}
}

// Emptiness dominates TTL: a memberless raid is reclaimed on the next tick,
// well before expiry.
func TestSweepReclaimsEmptyRaid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	channelID, _ := e.startRaid(t, "user-a")

	if err := e.members.Leave(ctx, testGuild, channelID, "user-a"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	e.sweeper.now = func() time.Time { return t0.Add(70 * time.Second) }
	e.sweeper.Sweep(ctx)

	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("expected empty raid reclaimed, got %+v", b)
	}
}

// Record loss: the sweep reclaims a bound channel whose announcement is
// gone, even though neither TTL nor emptiness could be evaluated.
func TestSweepReclaimsOnRecordLoss(t *testing.T) {
	e := newEnv(t)
	channelID, announcementID := e.startRaid(t, "user-a")

	e.fake.DeleteMessage(annChannel, announcementID)

	e.sweeper.now = func() time.Time { return t0.Add(10 * time.Second) }
	e.sweeper.Sweep(context.Background())

	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("expected channel reclaimed after record loss, got %+v", b)
	}
}

// Transient platform failures must not be mistaken for record loss.
func TestSweepSkipsOnTransientFailure(t *testing.T) {
	e := newEnv(t)
	channelID, _ := e.startRaid(t, "user-a")

	e.fake.Errs["Message"] = platform.ErrUnavailable
	e.sweeper.now = func() time.Time { return t0.Add(10 * time.Second) }
	e.sweeper.Sweep(context.Background())
	delete(e.fake.Errs, "Message")

	if b := e.binding(t, channelID); b.Kind != domain.BindingActive {
		t.Fatalf("transient failure caused reclamation: %+v", b)
	}
}

// A claim that never finalized is released once it outlives one interval.
func TestSweepReleasesStaleClaim(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	channelID, err := e.alloc.Allocate(ctx, testGuild)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	e.sweeper.now = func() time.Time { return time.Now().Add(2 * e.cfg.SweepInterval) }
	e.sweeper.Sweep(ctx)

	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("expected stale claim released, got %+v", b)
	}
}

func TestSweepKeepsFreshClaim(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	channelID, err := e.alloc.Allocate(ctx, testGuild)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	e.sweeper.now = time.Now
	e.sweeper.Sweep(ctx)

	if b := e.binding(t, channelID); b.Kind != domain.BindingClaimed {
		t.Fatalf("fresh claim was released: %+v", b)
	}
}

func TestSweepLeavesOpenChannelsAlone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.sweeper.Sweep(ctx)

	for _, ch := range []string{raidChan1, raidChan2} {
		if b := e.binding(t, ch); !b.IsOpen() {
			t.Fatalf("sweep touched open channel %s: %+v", ch, b)
		}
	}
}
