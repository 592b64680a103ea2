// Package embeds renders the bot's user-facing messages. Pure presentation;
// nothing here touches platform state.
package embeds

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vedran77/raidpool/internal/platform"
	"github.com/vedran77/raidpool/pkg/mention"
)

const (
	colorGreen    = 0x2ECC71
	colorRed      = 0xE74C3C
	colorDarkTeal = 0x11806A
)

// RaidStart announces a newly opened raid. The creator field is first; the
// end-command creator check reads it back by position.
func RaidStart(creatorID string, startedAt, expiresAt time.Time, joinEmoji, timeFormat string) *platform.Embed {
	return &platform.Embed{
		Title: "A raid has started!",
		Color: colorGreen,
		Fields: []platform.EmbedField{
			{Name: "creator", Value: mention.User(creatorID), Inline: true},
			{Name: "started at", Value: startedAt.Format(timeFormat)},
			{Name: "channel expires", Value: expiresAt.Format(timeFormat)},
		},
		Footer: fmt.Sprintf("To join, tap %s below", joinEmoji),
	}
}

// RaidEnd replaces the announcement once the channel is reclaimed.
func RaidEnd(creatorMention string, startedAt, endedAt time.Time, timeFormat string) *platform.Embed {
	return &platform.Embed{
		Title: "This raid has ended.",
		Color: colorRed,
		Fields: []platform.EmbedField{
			{Name: "creator", Value: creatorMention, Inline: true},
			{Name: "duration", Value: formatDuration(endedAt.Sub(startedAt)), Inline: true},
			{Name: "started at", Value: startedAt.Format(timeFormat)},
			{Name: "ended at", Value: endedAt.Format(timeFormat)},
		},
	}
}

// RaidSummary is the welcome message posted inside the raid channel.
func RaidSummary(creatorID, description string, expiresAt time.Time, leaveEmoji, timeFormat string) *platform.Embed {
	return &platform.Embed{
		Title:       "Welcome to this raid channel!",
		Description: fmt.Sprintf("**%s**", description),
		Color:       colorGreen,
		Fields: []platform.EmbedField{
			{Name: "creator", Value: mention.User(creatorID), Inline: true},
			{Name: "channel expires", Value: expiresAt.Format(timeFormat), Inline: true},
			{Name: "commands", Value: "You can use the following commands:"},
			{Name: "$leaveraid", Value: "Removes you from this raid."},
			{Name: "$listraid", Value: "Shows all current members of this raid channel."},
			{Name: "$endraid", Value: "Ends the raid and closes the channel."},
		},
		Footer: fmt.Sprintf("You can also leave the raid with the %s reaction below.", leaveEmoji),
	}
}

// RaidBusy points at the backup channel when the pool is exhausted.
func RaidBusy(backupChannelID string) *platform.Embed {
	return &platform.Embed{
		Title:       "All raid channels are busy at the moment.",
		Description: fmt.Sprintf("Coordinate this raid in %s instead. More channels will be available later.", mention.Channel(backupChannelID)),
		Color:       colorDarkTeal,
	}
}

// RaidMembers lists the current roster.
func RaidMembers(memberMentions []string) *platform.Embed {
	sorted := append([]string(nil), memberMentions...)
	sort.Strings(sorted)
	return &platform.Embed{
		Title:       fmt.Sprintf("Raid Members (%d)", len(sorted)),
		Description: strings.Join(sorted, "\n"),
		Color:       colorGreen,
	}
}

// Success is a green one-line notice.
func Success(text string) *platform.Embed {
	return &platform.Embed{Description: text, Color: colorGreen}
}

// Failure is a red one-line notice.
func Failure(text string) *platform.Embed {
	return &platform.Embed{Description: text, Color: colorRed}
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
