package domain

import "time"

// Raid is a view of one active session. It is derived from platform state
// (channel binding + announcement record) and never stored locally.
type Raid struct {
	GuildID   string
	ChannelID string

	// AnnouncementID is the message that originated the raid.
	AnnouncementID string

	// CreatorID is the user who started the raid.
	CreatorID string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the raid has outlived its TTL at the given time.
func (r *Raid) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// ExpiresAfter derives the expiration instant from the announcement's
// creation time and the configured TTL.
func ExpiresAfter(createdAt time.Time, ttl time.Duration) time.Time {
	return createdAt.Add(ttl)
}
