package service

import (
	"context"
	"testing"

	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/platform"
)

func TestBindFinalizesClaim(t *testing.T) {
	e := newEnv(t)

	channelID, announcementID := e.startRaid(t, "user-a")

	b := e.binding(t, channelID)
	if b.Kind != domain.BindingActive || b.MessageID != announcementID {
		t.Fatalf("expected active binding to %s, got %+v", announcementID, b)
	}

	if !e.fake.HasGrant(channelID, "user-a") {
		t.Fatal("creator holds no grant after bind")
	}
	if !e.fake.HasGrant(channelID, auxRoleID) {
		t.Fatal("auxiliary role holds no grant after bind")
	}

	if got := e.fake.UserGrantCount(channelID); got != 1 {
		t.Fatalf("expected 1 member after bind, got %d", got)
	}
}

func TestBindComputesExpiration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	channelID, err := e.alloc.Allocate(ctx, testGuild)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	announcementID := e.fake.SeedMessage(annChannel, "bot", "placeholder", t0)

	raid, err := e.binder.Bind(ctx, testGuild, channelID, announcementID, "user-a", "desc")
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if !raid.CreatedAt.Equal(t0) {
		t.Fatalf("expected CreatedAt %v, got %v", t0, raid.CreatedAt)
	}
	if want := t0.Add(e.cfg.RaidTTL); !raid.ExpiresAt.Equal(want) {
		t.Fatalf("expected ExpiresAt %v, got %v", want, raid.ExpiresAt)
	}
}

// A failed bind must not strand the claimed channel: the slot rolls back to
// open and partial grants are revoked.
func TestBindRollsBackOnFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	channelID, err := e.alloc.Allocate(ctx, testGuild)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	announcementID := e.fake.SeedMessage(annChannel, "bot", "placeholder", t0)

	e.fake.Errs["SendMessage"] = platform.ErrPermission
	_, err = e.binder.Bind(ctx, testGuild, channelID, announcementID, "user-a", "desc")
	if err == nil {
		t.Fatal("expected Bind to fail")
	}
	delete(e.fake.Errs, "SendMessage")

	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("expected channel released after failed bind, got %+v", b)
	}
	if e.fake.HasGrant(channelID, "user-a") {
		t.Fatal("creator grant survived rollback")
	}
	if e.fake.HasGrant(channelID, auxRoleID) {
		t.Fatal("auxiliary grant survived rollback")
	}
}

func TestBindFailsOnMissingAnnouncement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	channelID, err := e.alloc.Allocate(ctx, testGuild)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	_, err = e.binder.Bind(ctx, testGuild, channelID, "msg-missing", "user-a", "desc")
	if err == nil {
		t.Fatal("expected Bind to fail for missing announcement")
	}
	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("expected channel released, got %+v", b)
	}
}
