package domain

// Pool is the discovery result for one guild: the fixed set of channels
// eligible to host a raid plus the auxiliary lookups the coordinator needs.
// It is computed once per guild and assumed immutable for the process
// lifetime; channels created after discovery are invisible until restart.
type Pool struct {
	GuildID string

	// RaidChannels in discovery order. Allocation scans this slice front to
	// back, which is the only fairness guarantee offered.
	RaidChannels []PoolChannel

	// AnnouncementChannelID is where raids are announced and reacted to.
	AnnouncementChannelID string

	// BackupChannelID is suggested when every raid channel is busy.
	BackupChannelID string

	// AuxiliaryRoles receive read access on every active raid channel.
	AuxiliaryRoles []Role

	// Roles is every role in the guild, used to match role mentions against
	// the raid-start predicate.
	Roles []Role
}

type PoolChannel struct {
	ID   string
	Name string
}

type Role struct {
	ID   string
	Name string
}

// RoleName resolves a role id to its name, or "" when unknown.
func (p *Pool) RoleName(id string) string {
	for _, r := range p.Roles {
		if r.ID == id {
			return r.Name
		}
	}
	return ""
}

// Contains reports whether the channel is part of the raid pool.
func (p *Pool) Contains(channelID string) bool {
	for _, c := range p.RaidChannels {
		if c.ID == channelID {
			return true
		}
	}
	return false
}
