package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vedran77/raidpool/internal/config"
	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/embeds"
	"github.com/vedran77/raidpool/internal/observability"
	"github.com/vedran77/raidpool/internal/platform"
	"github.com/vedran77/raidpool/pkg/mention"
)

// Membership keeps the member relation in sync with join/leave signals.
// Membership of a raid is exactly the set of user grants on its channel;
// every signal handler is idempotent, so repeated or out-of-order delivery
// of the same signal converges on the same state. The reaction-removal path
// and the explicit leave command share Leave, which makes the two signal
// directions symmetric by construction.
type Membership struct {
	client   platform.Client
	registry *Registry
	teardown *Teardown
	cfg      *config.Config
}

func NewMembership(client platform.Client, registry *Registry, teardown *Teardown, cfg *config.Config) *Membership {
	return &Membership{client: client, registry: registry, teardown: teardown, cfg: cfg}
}

// ChannelFor maps an announcement message onto the raid channel currently
// bound to it. Returns "" (no error) when the message is gone, references no
// pool channel, or the channel has since been rebound to another raid.
func (m *Membership) ChannelFor(ctx context.Context, guildID, announcementID string) (string, error) {
	pool, err := m.registry.Discover(ctx, guildID)
	if err != nil {
		return "", err
	}

	msg, err := m.client.Message(ctx, pool.AnnouncementChannelID, announcementID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	channelID, ok := mention.FirstChannel(msg.Content)
	if !ok || !pool.Contains(channelID) {
		return "", nil
	}

	binding, err := channelBinding(ctx, m.client, channelID)
	if err != nil {
		return "", err
	}
	if binding.Kind != domain.BindingActive || binding.MessageID != announcementID {
		return "", nil
	}
	return channelID, nil
}

// Join applies a join signal from the announcement record. Unresolvable
// records and inactive channels are ignored; a user who already holds a
// grant is left untouched.
func (m *Membership) Join(ctx context.Context, guildID, announcementID, userID string) error {
	channelID, err := m.ChannelFor(ctx, guildID, announcementID)
	if err != nil || channelID == "" {
		return err
	}

	grants, err := m.client.ChannelGrants(ctx, channelID)
	if err != nil {
		return fmt.Errorf("listing grants: %w", err)
	}
	if hasUserGrant(grants, userID) {
		return nil
	}

	if err := m.client.GrantRead(ctx, channelID, userID, platform.GrantUser); err != nil {
		return fmt.Errorf("granting %s: %w", userID, err)
	}

	notice := fmt.Sprintf("%s, you are now a member of this raid group.", mention.User(userID))
	joined := embeds.Success(fmt.Sprintf("%s has joined the raid!", mention.User(userID)))
	if _, err := m.client.SendMessage(ctx, channelID, notice, joined); err != nil {
		observability.Logger().Warn("posting join notice failed", "channel", channelID, "err", err)
	}
	return nil
}

// Leave revokes a member's grant and clears their join mark on the
// announcement record. Both the reaction-removal signal and the explicit
// leave command enter here. Leaving a raid one is not part of is a no-op.
func (m *Membership) Leave(ctx context.Context, guildID, channelID, userID string) error {
	pool, err := m.registry.Discover(ctx, guildID)
	if err != nil {
		return err
	}

	grants, err := m.client.ChannelGrants(ctx, channelID)
	if err != nil {
		return fmt.Errorf("listing grants: %w", err)
	}
	if !hasUserGrant(grants, userID) {
		return nil
	}

	if err := m.client.RevokeGrant(ctx, channelID, userID); err != nil {
		return fmt.Errorf("revoking %s: %w", userID, err)
	}

	left := embeds.Failure(fmt.Sprintf("%s has left the raid!", mention.User(userID)))
	if _, err := m.client.SendMessage(ctx, channelID, "", left); err != nil {
		observability.Logger().Warn("posting leave notice failed", "channel", channelID, "err", err)
	}

	// Keep the public roster mark in sync. The record may already be gone
	// or the mark already absent; neither blocks the leave.
	binding, err := channelBinding(ctx, m.client, channelID)
	if err != nil || binding.Kind != domain.BindingActive {
		return nil
	}
	err = m.client.RemoveReaction(ctx, pool.AnnouncementChannelID, binding.MessageID, m.cfg.JoinEmoji, userID)
	if err != nil && !errors.Is(err, platform.ErrNotFound) {
		observability.Logger().Warn("clearing join mark failed",
			"message", binding.MessageID, "user", userID, "err", err)
	}
	return nil
}

// List posts the current roster into the raid channel.
func (m *Membership) List(ctx context.Context, channelID string) error {
	grants, err := m.client.ChannelGrants(ctx, channelID)
	if err != nil {
		return fmt.Errorf("listing grants: %w", err)
	}

	var mentions []string
	for _, g := range grants {
		if g.Kind == platform.GrantUser {
			mentions = append(mentions, mention.User(g.TargetID))
		}
	}
	_, err = m.client.SendMessage(ctx, channelID, "", embeds.RaidMembers(mentions))
	return err
}

// End tears the raid down when the issuer is its creator, and posts a
// visible rejection otherwise. The rejection is a user outcome, not an
// error: state is untouched and nil is returned.
func (m *Membership) End(ctx context.Context, guildID, channelID, userID string) error {
	pool, err := m.registry.Discover(ctx, guildID)
	if err != nil {
		return err
	}

	grants, err := m.client.ChannelGrants(ctx, channelID)
	if err != nil {
		return fmt.Errorf("listing grants: %w", err)
	}

	msg, err := announcementFor(ctx, m.client, pool, channelID)
	if err != nil && !errors.Is(err, platform.ErrNotFound) && !errors.Is(err, errNotActive) {
		return err
	}

	if creator := creatorFrom(msg, grants); creator != "" && creator == userID {
		return m.teardown.Run(ctx, guildID, channelID)
	}

	rejected := embeds.Failure("Only the creator may end the raid.")
	if _, err := m.client.SendMessage(ctx, channelID, "", rejected); err != nil {
		observability.Logger().Warn("posting end rejection failed", "channel", channelID, "err", err)
	}
	return nil
}
