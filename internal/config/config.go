package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"botcore/pkg/cmd"
)

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`

	CommandPrefix   string   `env:"COMMAND_PREFIX" envDefault:"!"`
	CommandPrefixes []string `env:"COMMAND_PREFIXES"`
	PrefixPattern   string   `env:"COMMAND_PREFIX_PATTERN"`
	MentionAsPrefix bool     `env:"MENTION_AS_PREFIX" envDefault:"true"`

	// HelpWhenMentioned runs help for a message that only mentions the bot.
	HelpWhenMentioned bool `env:"HELP_WHEN_MENTIONED" envDefault:"true"`

	CaseInsensitiveCommands bool     `env:"CASE_INSENSITIVE_COMMANDS" envDefault:"false"`
	ExecuteSelfMessages     bool     `env:"EXECUTE_SELF_MESSAGES" envDefault:"false"`
	IgnoreBots              bool     `env:"IGNORE_BOTS" envDefault:"true"`
	Owners                  []string `env:"BOT_OWNERS"`

	StoragePath       string   `env:"STORAGE_PATH" envDefault:"datastore.json"`
	InitSlashCommands bool     `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	CommandCacheDir   string   `env:"COMMAND_CACHE_DIR" envDefault:"data/commands"`
	GuildBlacklist    []string `env:"DISCORD_GUILD_BLACKLIST"`

	EditTrackWindow       time.Duration `env:"EDIT_TRACK_WINDOW" envDefault:"5m"`
	CooldownSweepInterval time.Duration `env:"COOLDOWN_SWEEP_INTERVAL" envDefault:"1m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads .env if present, then the environment. The bool reports
// whether a .env file was loaded.
func Load() (*Config, bool, error) { return load(true) }

// LoadOffline is Load for tools that never connect to Discord; the token is
// optional.
func LoadOffline() (*Config, bool, error) { return load(false) }

func load(requireToken bool) (*Config, bool, error) {
	loaded := godotenv.Load() == nil

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, loaded, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(requireToken); err != nil {
		return nil, loaded, err
	}
	return &cfg, loaded, nil
}

func (c *Config) validate(requireToken bool) error {
	var errs []error
	if requireToken && c.DiscordToken == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN is required"))
	}
	if c.CommandPrefix == "" && len(c.CommandPrefixes) == 0 && c.PrefixPattern == "" && !c.MentionAsPrefix {
		errs = append(errs, errors.New("no command prefix configured"))
	}
	if c.PrefixPattern != "" {
		if _, err := regexp.Compile(c.PrefixPattern); err != nil {
			errs = append(errs, fmt.Errorf("COMMAND_PREFIX_PATTERN: %w", err))
		}
	}
	if c.EditTrackWindow < 0 {
		errs = append(errs, errors.New("EDIT_TRACK_WINDOW must not be negative"))
	}
	if c.CooldownSweepInterval <= 0 {
		errs = append(errs, errors.New("COOLDOWN_SWEEP_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// Prefixes returns the static prefixes in the order they are tried: the
// main prefix, the extra literals, then the pattern.
func (c *Config) Prefixes() ([]cmd.Prefix, error) {
	var out []cmd.Prefix
	seen := map[string]bool{}
	for _, p := range append([]string{c.CommandPrefix}, c.CommandPrefixes...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, cmd.Literal(p))
	}
	if c.PrefixPattern != "" {
		re, err := regexp.Compile(`^(?:` + c.PrefixPattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("COMMAND_PREFIX_PATTERN: %w", err)
		}
		out = append(out, cmd.Pattern(re))
	}
	return out, nil
}

// IsBlacklisted reports whether the bot should stay out of guildID.
func (c *Config) IsBlacklisted(guildID string) bool {
	for _, id := range c.GuildBlacklist {
		if id == guildID {
			return true
		}
	}
	return false
}
