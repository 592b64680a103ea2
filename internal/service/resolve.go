package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vedran77/raidpool/internal/domain"
	"github.com/vedran77/raidpool/internal/platform"
	"github.com/vedran77/raidpool/pkg/mention"
)

// errNotActive marks a channel whose binding slot holds no finalized raid.
var errNotActive = errors.New("channel has no active raid")

// channelBinding reads and parses a channel's binding slot fresh.
func channelBinding(ctx context.Context, client platform.Client, channelID string) (domain.Binding, error) {
	topic, err := client.ChannelTopic(ctx, channelID)
	if err != nil {
		return domain.Binding{}, err
	}
	return domain.ParseBinding(topic)
}

// announcementFor resolves the announcement record backing an active raid
// channel. A missing record surfaces as platform.ErrNotFound; a channel that
// is open or merely claimed surfaces as errNotActive.
func announcementFor(ctx context.Context, client platform.Client, pool *domain.Pool, channelID string) (*platform.Message, error) {
	binding, err := channelBinding(ctx, client, channelID)
	if err != nil {
		return nil, err
	}
	if binding.Kind != domain.BindingActive {
		return nil, fmt.Errorf("%w: %s", errNotActive, channelID)
	}
	return client.Message(ctx, pool.AnnouncementChannelID, binding.MessageID)
}

// creatorFrom extracts the creator's user id from an announcement embed. The
// creator field is the first field of the start embed; the id is matched
// against the channel's current grant holders so a stale mention never
// resolves to a non-member.
func creatorFrom(msg *platform.Message, grants []platform.Grant) string {
	if msg == nil || len(msg.Embeds) == 0 {
		return ""
	}
	fields := msg.Embeds[0].Fields
	if len(fields) == 0 {
		return ""
	}
	id, ok := mention.ParseUser(fields[0].Value)
	if !ok {
		return ""
	}
	if hasUserGrant(grants, id) {
		return id
	}
	return ""
}

func hasUserGrant(grants []platform.Grant, userID string) bool {
	for _, g := range grants {
		if g.Kind == platform.GrantUser && g.TargetID == userID {
			return true
		}
	}
	return false
}

func userGrantCount(grants []platform.Grant) int {
	n := 0
	for _, g := range grants {
		if g.Kind == platform.GrantUser {
			n++
		}
	}
	return n
}
