package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Channel bindings live in the channel topic, which is the only durable
// record the coordinator keeps. The format is a versioned contract:
//
//	""                         -> Open
//	"claim:<unix>:<token>"     -> Claimed (reserved by the allocator, not yet bound)
//	"raid:<announcement id>"   -> Active
//
// Discord caps topics at 1024 characters; a binding is well under 100, but
// Format still refuses oversized payloads instead of letting the platform
// truncate them silently.
const (
	claimPrefix = "claim:"
	raidPrefix  = "raid:"

	maxTopicLen = 1024
)

var ErrMalformedBinding = errors.New("malformed channel binding")

type BindingKind int

const (
	BindingOpen BindingKind = iota
	BindingClaimed
	BindingActive
)

// Binding is the parsed content of a channel's topic.
type Binding struct {
	Kind BindingKind

	// MessageID is the announcement record id. Set only for BindingActive.
	MessageID string

	// Token and ClaimedAt identify a provisional reservation. Set only for
	// BindingClaimed.
	Token     string
	ClaimedAt time.Time
}

func OpenBinding() Binding {
	return Binding{Kind: BindingOpen}
}

func ClaimBinding(token string, at time.Time) Binding {
	return Binding{Kind: BindingClaimed, Token: token, ClaimedAt: at}
}

func ActiveBinding(messageID string) Binding {
	return Binding{Kind: BindingActive, MessageID: messageID}
}

// ParseBinding decodes a channel topic. An empty topic is an open channel; a
// topic that is neither empty nor a recognized binding is malformed, which
// callers treat the same as a lost record.
func ParseBinding(topic string) (Binding, error) {
	topic = strings.TrimSpace(topic)
	switch {
	case topic == "":
		return OpenBinding(), nil
	case strings.HasPrefix(topic, raidPrefix):
		id := topic[len(raidPrefix):]
		if id == "" {
			return Binding{}, fmt.Errorf("%w: %q", ErrMalformedBinding, topic)
		}
		return ActiveBinding(id), nil
	case strings.HasPrefix(topic, claimPrefix):
		rest := topic[len(claimPrefix):]
		sec, token, ok := strings.Cut(rest, ":")
		if !ok || token == "" {
			return Binding{}, fmt.Errorf("%w: %q", ErrMalformedBinding, topic)
		}
		unix, err := strconv.ParseInt(sec, 10, 64)
		if err != nil {
			return Binding{}, fmt.Errorf("%w: %q", ErrMalformedBinding, topic)
		}
		return ClaimBinding(token, time.Unix(unix, 0)), nil
	default:
		return Binding{}, fmt.Errorf("%w: %q", ErrMalformedBinding, topic)
	}
}

// Format encodes the binding back into topic form.
func (b Binding) Format() (string, error) {
	var topic string
	switch b.Kind {
	case BindingOpen:
		return "", nil
	case BindingClaimed:
		topic = fmt.Sprintf("%s%d:%s", claimPrefix, b.ClaimedAt.Unix(), b.Token)
	case BindingActive:
		topic = raidPrefix + b.MessageID
	default:
		return "", fmt.Errorf("%w: unknown kind %d", ErrMalformedBinding, b.Kind)
	}
	if len(topic) > maxTopicLen {
		return "", fmt.Errorf("%w: binding exceeds topic limit", ErrMalformedBinding)
	}
	return topic, nil
}

func (b Binding) IsOpen() bool {
	return b.Kind == BindingOpen
}
