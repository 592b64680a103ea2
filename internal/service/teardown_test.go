package service

import (
	"context"
	"testing"
	"time"
)

func TestTeardownClearsEverything(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	channelID, announcementID := e.startRaid(t, "user-a")

	if err := e.members.Join(ctx, testGuild, announcementID, "user-b"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	e.fake.React(annChannel, announcementID, e.cfg.JoinEmoji, "user-b")

	e.teardown.now = func() time.Time { return t0.Add(30 * time.Minute) }
	if err := e.teardown.Run(ctx, testGuild, channelID); err != nil {
		t.Fatalf("teardown failed: %v", err)
	}

	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("binding slot not cleared: %+v", b)
	}
	if got := e.fake.UserGrantCount(channelID); got != 0 {
		t.Fatalf("user grants survived teardown: %d", got)
	}
	if e.fake.HasGrant(channelID, auxRoleID) {
		t.Fatal("auxiliary grant survived teardown")
	}
	if got := e.fake.MessageCount(channelID); got != 0 {
		t.Fatalf("history not purged: %d messages left", got)
	}
	if e.fake.HasReaction(annChannel, announcementID, e.cfg.JoinEmoji, "user-b") {
		t.Fatal("join marks survived teardown")
	}

	// The record is finalized, not deleted.
	msg, err := e.fake.Message(ctx, annChannel, announcementID)
	if err != nil {
		t.Fatalf("announcement gone after teardown: %v", err)
	}
	if len(msg.Embeds) == 0 || msg.Embeds[0].Title != "This raid has ended." {
		t.Fatal("announcement not finalized with the end summary")
	}
}

func TestTeardownOpenChannelIsNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if err := e.teardown.Run(ctx, testGuild, raidChan1); err != nil {
		t.Fatalf("teardown of open channel errored: %v", err)
	}
	if b := e.binding(t, raidChan1); !b.IsOpen() {
		t.Fatalf("open channel no longer open: %+v", b)
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	channelID, _ := e.startRaid(t, "user-a")

	if err := e.teardown.Run(ctx, testGuild, channelID); err != nil {
		t.Fatalf("first teardown failed: %v", err)
	}
	if err := e.teardown.Run(ctx, testGuild, channelID); err != nil {
		t.Fatalf("second teardown failed: %v", err)
	}
	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("channel not open after double teardown: %+v", b)
	}
}

// Teardown still releases the channel when the record is already gone.
func TestTeardownSurvivesRecordLoss(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	channelID, announcementID := e.startRaid(t, "user-a")

	e.fake.DeleteMessage(annChannel, announcementID)
	if err := e.teardown.Run(ctx, testGuild, channelID); err != nil {
		t.Fatalf("teardown with lost record failed: %v", err)
	}
	if b := e.binding(t, channelID); !b.IsOpen() {
		t.Fatalf("channel not released: %+v", b)
	}
	if got := e.fake.UserGrantCount(channelID); got != 0 {
		t.Fatalf("grants survived: %d", got)
	}
}
