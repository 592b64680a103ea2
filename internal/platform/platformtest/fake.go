// Package platformtest provides an in-memory platform.Client for service
// tests, mirroring the real adapter's error contract: missing records
// surface platform.ErrNotFound, and injected failures stand in for
// transient or permission outcomes.
package platformtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vedran77/raidpool/internal/platform"
)

var _ platform.Client = (*Fake)(nil)

type fakeChannel struct {
	guildID string
	name    string
	topic   string
	perms   platform.Permissions
	grants  map[string]platform.Grant
}

type fakeMessage struct {
	platform.Message
	reactions map[string]map[string]bool // emoji -> user ids
}

// Fake is a thread-safe in-memory platform. Zero value is not usable; use
// New.
type Fake struct {
	mu       sync.Mutex
	guilds   []string
	channels map[string]*fakeChannel
	roles    map[string][]platform.Role
	messages map[string]map[string]*fakeMessage // channel -> message id
	nextID   int

	// Errs injects a failure for a method by name ("SetChannelTopic",
	// "Message", ...). The injected error is returned on every call until
	// cleared.
	Errs map[string]error
}

func New() *Fake {
	return &Fake{
		channels: make(map[string]*fakeChannel),
		roles:    make(map[string][]platform.Role),
		messages: make(map[string]map[string]*fakeMessage),
		Errs:     make(map[string]error),
	}
}

// --- seeding helpers ---

func (f *Fake) AddGuild(guildID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds = append(f.guilds, guildID)
}

// AddChannel seeds a text channel with full host permissions.
func (f *Fake) AddChannel(guildID, channelID, name string) {
	f.AddChannelPerms(guildID, channelID, name, platform.Permissions{
		ManageRoles: true, ManageMessages: true, ManageChannel: true, ReadMessages: true,
	})
}

func (f *Fake) AddChannelPerms(guildID, channelID, name string, perms platform.Permissions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[channelID] = &fakeChannel{
		guildID: guildID,
		name:    name,
		perms:   perms,
		grants:  make(map[string]platform.Grant),
	}
	f.messages[channelID] = make(map[string]*fakeMessage)
}

func (f *Fake) AddRole(guildID, roleID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[guildID] = append(f.roles[guildID], platform.Role{ID: roleID, Name: name})
}

// SeedMessage places a message with an explicit creation time and returns
// its id.
func (f *Fake) SeedMessage(channelID, authorID, content string, createdAt time.Time, embeds ...platform.Embed) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putMessage(channelID, authorID, content, createdAt, embeds).ID
}

// DeleteMessage simulates record loss.
func (f *Fake) DeleteMessage(channelID, messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages[channelID], messageID)
}

// SetMessageContent rewrites a seeded message body.
func (f *Fake) SetMessageContent(channelID, messageID, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.messages[channelID][messageID]; ok {
		msg.Content = content
	}
}

// --- inspection helpers ---

func (f *Fake) Topic(channelID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[channelID].topic
}

func (f *Fake) UserGrantCount(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, g := range f.channels[channelID].grants {
		if g.Kind == platform.GrantUser {
			n++
		}
	}
	return n
}

func (f *Fake) HasGrant(channelID, targetID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channelID].grants[targetID]
	return ok
}

func (f *Fake) MessageCount(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[channelID])
}

// HasReaction reports whether the user's mark is present on a message.
func (f *Fake) HasReaction(channelID, messageID, emoji, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[channelID][messageID]
	if !ok {
		return false
	}
	return msg.reactions[emoji][userID]
}

// React places a user's mark on a message (as the gateway would report).
func (f *Fake) React(channelID, messageID, emoji, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[channelID][messageID]
	if !ok {
		return
	}
	if msg.reactions[emoji] == nil {
		msg.reactions[emoji] = make(map[string]bool)
	}
	msg.reactions[emoji][userID] = true
}

// LastMessage returns the most recently created message in a channel.
func (f *Fake) LastMessage(channelID string) *platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *fakeMessage
	for _, msg := range f.messages[channelID] {
		if last == nil || msg.ID > last.ID {
			last = msg
		}
	}
	if last == nil {
		return nil
	}
	out := last.Message
	return &out
}

// --- platform.Client ---

func (f *Fake) Guilds(ctx context.Context) ([]string, error) {
	if err := f.failure("Guilds"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.guilds...), nil
}

func (f *Fake) GuildChannels(ctx context.Context, guildID string) ([]platform.Channel, error) {
	if err := f.failure("GuildChannels"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Channel
	for id, ch := range f.channels {
		if ch.guildID != guildID {
			continue
		}
		out = append(out, platform.Channel{ID: id, Name: ch.name, Topic: ch.topic, Perms: ch.perms})
	}
	// Deterministic discovery order: channels sort by id.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) GuildRoles(ctx context.Context, guildID string) ([]platform.Role, error) {
	if err := f.failure("GuildRoles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Role(nil), f.roles[guildID]...), nil
}

func (f *Fake) ChannelTopic(ctx context.Context, channelID string) (string, error) {
	if err := f.failure("ChannelTopic"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return "", platform.ErrNotFound
	}
	return ch.topic, nil
}

func (f *Fake) SetChannelTopic(ctx context.Context, channelID, topic string) error {
	if err := f.failure("SetChannelTopic"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.ErrNotFound
	}
	ch.topic = topic
	return nil
}

func (f *Fake) ChannelGrants(ctx context.Context, channelID string) ([]platform.Grant, error) {
	if err := f.failure("ChannelGrants"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	var out []platform.Grant
	for _, g := range ch.grants {
		out = append(out, g)
	}
	return out, nil
}

func (f *Fake) GrantRead(ctx context.Context, channelID, targetID string, kind platform.GrantKind) error {
	if err := f.failure("GrantRead"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.ErrNotFound
	}
	ch.grants[targetID] = platform.Grant{TargetID: targetID, Kind: kind}
	return nil
}

func (f *Fake) RevokeGrant(ctx context.Context, channelID, targetID string) error {
	if err := f.failure("RevokeGrant"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return platform.ErrNotFound
	}
	delete(ch.grants, targetID)
	return nil
}

func (f *Fake) SendMessage(ctx context.Context, channelID, content string, embed *platform.Embed) (*platform.Message, error) {
	if err := f.failure("SendMessage"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[channelID]; !ok {
		return nil, platform.ErrNotFound
	}
	var embeds []platform.Embed
	if embed != nil {
		embeds = []platform.Embed{*embed}
	}
	msg := f.putMessage(channelID, "bot", content, time.Now(), embeds)
	out := msg.Message
	return &out, nil
}

func (f *Fake) EditMessage(ctx context.Context, channelID, messageID, content string, embed *platform.Embed) (*platform.Message, error) {
	if err := f.failure("EditMessage"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[channelID][messageID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	msg.Content = content
	if embed != nil {
		msg.Embeds = []platform.Embed{*embed}
	}
	out := msg.Message
	return &out, nil
}

func (f *Fake) Message(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	if err := f.failure("Message"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[channelID][messageID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	out := msg.Message
	return &out, nil
}

func (f *Fake) PurgeChannel(ctx context.Context, channelID string) error {
	if err := f.failure("PurgeChannel"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[channelID]; !ok {
		return platform.ErrNotFound
	}
	f.messages[channelID] = make(map[string]*fakeMessage)
	return nil
}

func (f *Fake) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := f.failure("AddReaction"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[channelID][messageID]
	if !ok {
		return platform.ErrNotFound
	}
	if msg.reactions[emoji] == nil {
		msg.reactions[emoji] = make(map[string]bool)
	}
	msg.reactions[emoji]["bot"] = true
	return nil
}

func (f *Fake) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	if err := f.failure("RemoveReaction"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[channelID][messageID]
	if !ok {
		return platform.ErrNotFound
	}
	if users, ok := msg.reactions[emoji]; ok {
		delete(users, userID)
	}
	return nil
}

func (f *Fake) ClearReactions(ctx context.Context, channelID, messageID string) error {
	if err := f.failure("ClearReactions"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[channelID][messageID]
	if !ok {
		return platform.ErrNotFound
	}
	msg.reactions = make(map[string]map[string]bool)
	return nil
}

func (f *Fake) failure(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Errs[method]
}

// putMessage requires f.mu held.
func (f *Fake) putMessage(channelID, authorID, content string, createdAt time.Time, embeds []platform.Embed) *fakeMessage {
	f.nextID++
	msg := &fakeMessage{
		Message: platform.Message{
			ID:        fmt.Sprintf("msg-%06d", f.nextID),
			ChannelID: channelID,
			AuthorID:  authorID,
			Content:   content,
			CreatedAt: createdAt,
			Embeds:    embeds,
		},
		reactions: make(map[string]map[string]bool),
	}
	if f.messages[channelID] == nil {
		f.messages[channelID] = make(map[string]*fakeMessage)
	}
	f.messages[channelID][msg.ID] = msg
	return msg
}
