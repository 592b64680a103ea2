// Package platform defines the contract the coordinator consumes from the
// messaging platform. The discord subpackage implements it over the real
// API; platformtest provides an in-memory fake for service tests.
package platform

import (
	"context"
	"errors"
	"time"
)

// Typed outcomes for remote calls. Adapters must map wire failures onto
// exactly one of these: callers branch with errors.Is and a NotFound must
// never be reported as Unavailable or vice versa.
var (
	// ErrNotFound: the record or channel no longer resolves. Terminal, not
	// retried.
	ErrNotFound = errors.New("platform: not found")

	// ErrUnavailable: transient network/rate-limit failure, surfaced only
	// after the adapter's retries are exhausted.
	ErrUnavailable = errors.New("platform: temporarily unavailable")

	// ErrPermission: the bot lacks permission for the operation. Fatal for
	// that operation, never retried.
	ErrPermission = errors.New("platform: permission denied")
)

// Permissions the bot holds on a channel, reduced to the bits the pool
// predicate cares about.
type Permissions struct {
	ManageRoles    bool
	ManageMessages bool
	ManageChannel  bool
	ReadMessages   bool
}

func (p Permissions) CanHostRaid() bool {
	return p.ManageRoles && p.ManageMessages && p.ManageChannel && p.ReadMessages
}

// Channel is a guild channel as seen at enumeration or fetch time. Topic is
// the channel's single mutable metadata slot and holds the session binding.
type Channel struct {
	ID    string
	Name  string
	Topic string
	Perms Permissions
}

type Role struct {
	ID   string
	Name string
}

// GrantKind distinguishes user grants (membership) from role grants
// (auxiliary visibility).
type GrantKind int

const (
	GrantUser GrantKind = iota
	GrantRole
)

// Grant is a per-identity access overwrite on a channel. Presence of a user
// grant is membership; there is no separate roster.
type Grant struct {
	TargetID string
	Kind     GrantKind
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	CreatedAt time.Time
	Embeds    []Embed
}

// Client is the set of primitives the coordinator needs from the platform.
// Every call may suspend; the platform is the single source of truth and
// nothing here is cached by the adapter.
type Client interface {
	// Guilds lists the guilds the bot is connected to.
	Guilds(ctx context.Context) ([]string, error)

	// GuildChannels enumerates the channels of a guild with the bot's
	// effective permissions resolved per channel.
	GuildChannels(ctx context.Context, guildID string) ([]Channel, error)

	// GuildRoles enumerates the roles of a guild.
	GuildRoles(ctx context.Context, guildID string) ([]Role, error)

	// ChannelTopic reads the channel's binding slot fresh, bypassing any
	// enumeration-time snapshot.
	ChannelTopic(ctx context.Context, channelID string) (string, error)

	// SetChannelTopic writes the channel's binding slot. An empty topic
	// clears it.
	SetChannelTopic(ctx context.Context, channelID, topic string) error

	// ChannelGrants lists the access overwrites currently on a channel.
	ChannelGrants(ctx context.Context, channelID string) ([]Grant, error)

	// GrantRead gives the target read access to the channel.
	GrantRead(ctx context.Context, channelID, targetID string, kind GrantKind) error

	// RevokeGrant removes the target's overwrite. Revoking an absent grant
	// is a no-op.
	RevokeGrant(ctx context.Context, channelID, targetID string) error

	SendMessage(ctx context.Context, channelID, content string, embed *Embed) (*Message, error)
	EditMessage(ctx context.Context, channelID, messageID, content string, embed *Embed) (*Message, error)
	Message(ctx context.Context, channelID, messageID string) (*Message, error)

	// PurgeChannel deletes the channel's message history.
	PurgeChannel(ctx context.Context, channelID string) error

	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	// RemoveReaction removes one user's reaction. Removing an absent
	// reaction is a no-op.
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error

	// ClearReactions removes every reaction from a message.
	ClearReactions(ctx context.Context, channelID, messageID string) error
}
