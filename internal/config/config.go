package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full configuration surface, static for the process
// lifetime. Defaults mirror the bot's original flag defaults.
type Config struct {
	Token string `env:"RAIDPOOL_TOKEN,required"`

	// AnnouncementChannel is the channel name the bot watches for raid
	// starts and posts announcements to.
	AnnouncementChannel string `env:"RAIDPOOL_ANNOUNCEMENT_CHANNEL,required"`

	// BackupChannel is suggested when every raid channel is busy.
	BackupChannel string `env:"RAIDPOOL_BACKUP_CHANNEL" envDefault:"raid-coordination"`

	// RaidChannelRegex selects pool channels by name.
	RaidChannelRegex string `env:"RAIDPOOL_CHANNEL_REGEX" envDefault:"^raid-group-.+"`

	// RaidStartRegex matches role-mention names that trigger a raid.
	RaidStartRegex string `env:"RAIDPOOL_START_REGEX" envDefault:"^raid-.+"`

	// RaidTTL is how long a session may live before forced reclamation.
	RaidTTL time.Duration `env:"RAIDPOOL_TTL" envDefault:"2h"`

	// SweepInterval is the pause between reclamation passes.
	SweepInterval time.Duration `env:"RAIDPOOL_SWEEP_INTERVAL" envDefault:"60s"`

	// AuxiliaryRoles are granted read access on every active raid channel.
	AuxiliaryRoles []string `env:"RAIDPOOL_AUXILIARY_ROLES" envSeparator:","`

	JoinEmoji  string `env:"RAIDPOOL_JOIN_EMOJI" envDefault:"👤"`
	LeaveEmoji string `env:"RAIDPOOL_LEAVE_EMOJI" envDefault:"🚪"`
	FullEmoji  string `env:"RAIDPOOL_FULL_EMOJI" envDefault:"😟"`

	TimeFormat string `env:"RAIDPOOL_TIME_FORMAT" envDefault:"2006-01-02 03:04:05 PM"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
