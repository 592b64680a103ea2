package embeds

import (
	"testing"
	"time"
)

func TestRaidEndDuration(t *testing.T) {
	start := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(1*time.Hour + 23*time.Minute + 45*time.Second)

	e := RaidEnd("<@1>", start, end, "2006-01-02 03:04:05 PM")
	if got := e.Fields[1].Value; got != "01:23:45" {
		t.Fatalf("duration = %q, want 01:23:45", got)
	}
}

func TestRaidMembersSortsRoster(t *testing.T) {
	e := RaidMembers([]string{"<@3>", "<@1>", "<@2>"})
	if e.Title != "Raid Members (3)" {
		t.Fatalf("title = %q", e.Title)
	}
	if e.Description != "<@1>\n<@2>\n<@3>" {
		t.Fatalf("roster not sorted: %q", e.Description)
	}
}

func TestRaidStartLeadsWithCreator(t *testing.T) {
	now := time.Now()
	e := RaidStart("42", now, now.Add(2*time.Hour), "👤", "2006-01-02 03:04:05 PM")
	if len(e.Fields) == 0 || e.Fields[0].Name != "creator" || e.Fields[0].Value != "<@42>" {
		t.Fatalf("creator field not first: %+v", e.Fields)
	}
}
