package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"eventcal/internal/atomicfile"
	"eventcal/internal/calendar"
)

// Environment variables read on top of the YAML file. Secrets live only in
// the environment and are never written back to disk.
const (
	EnvBotToken     = "BOT_TOKEN"
	EnvClientID     = "CLIENT_ID"
	EnvChannelID    = "CALENDAR_CHANNEL_ID"
	EnvBotStatus    = "BOT_STATUS"
	EnvActivityType = "ACTIVITY_TYPE"
	EnvActivityName = "ACTIVITY_NAME"
)

const (
	defaultTimezone  = "UTC"
	defaultHighlight = "#ff4d4d"
	defaultRefresh   = "5 0 * * *"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP surface.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PresenceConfig controls the bot's status line.
type PresenceConfig struct {
	// Status is one of online, idle, dnd, invisible, offline.
	Status string `yaml:"status" json:"status"`
	// ActivityType is one of PLAYING, WATCHING, LISTENING, COMPETING, STREAMING.
	ActivityType string `yaml:"activity_type" json:"activity_type"`
	ActivityName string `yaml:"activity_name" json:"activity_name"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone every calendar is rendered in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// ChannelID is the channel holding the tracked calendar message.
	ChannelID string `yaml:"channel_id" json:"channel_id"`

	// ApplicationID is the bot application used for command registration.
	ApplicationID string `yaml:"application_id" json:"application_id"`

	// GuildID, if set, registers commands in one guild only (instant
	// propagation during development) instead of globally.
	GuildID string `yaml:"guild_id,omitempty" json:"guild_id,omitempty"`

	EventLogPath   string `yaml:"event_log_path" json:"event_log_path"`
	MessageRefPath string `yaml:"message_ref_path" json:"message_ref_path"`

	// HighlightColor fills calendar cells of days with events ("#rrggbb").
	HighlightColor string `yaml:"highlight_color" json:"highlight_color"`

	// RefreshCron is a cron schedule (5 fields, display timezone) for
	// re-syncing the tracked message without a trigger. "off" disables it.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Listen is the HTTP listen address. Empty disables the HTTP server.
	Listen string `yaml:"listen" json:"listen"`

	// BasicAuth, if non-nil, protects every HTTP endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Presence PresenceConfig `yaml:"presence" json:"presence"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BotToken comes from BOT_TOKEN only.
	BotToken string `yaml:"-" json:"-"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:       defaultTimezone,
		EventLogPath:   "calendar.json",
		MessageRefPath: "calendar_message.json",
		HighlightColor: defaultHighlight,
		RefreshCron:    defaultRefresh,
		Presence: PresenceConfig{
			Status:       "online",
			ActivityType: "WATCHING",
			ActivityName: "Nuts",
		},
		LogLevel: "info",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.EventLogPath == "" {
		c.EventLogPath = d.EventLogPath
	}
	if c.MessageRefPath == "" {
		c.MessageRefPath = d.MessageRefPath
	}
	if c.HighlightColor == "" {
		c.HighlightColor = d.HighlightColor
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.Presence.Status == "" {
		c.Presence.Status = d.Presence.Status
	}
	if c.Presence.ActivityType == "" {
		c.Presence.ActivityType = d.Presence.ActivityType
	}
	if c.Presence.ActivityName == "" {
		c.Presence.ActivityName = d.Presence.ActivityName
	}
	c.Presence.Status = strings.ToLower(c.Presence.Status)
	c.Presence.ActivityType = strings.ToUpper(c.Presence.ActivityType)
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.BotToken, EnvBotToken)
	set(&c.ApplicationID, EnvClientID)
	set(&c.ChannelID, EnvChannelID)
	set(&c.Presence.Status, EnvBotStatus)
	set(&c.Presence.ActivityType, EnvActivityType)
	set(&c.Presence.ActivityName, EnvActivityName)
	c.Normalize()
}

// RefreshEnabled reports whether periodic re-sync is configured.
func (c *Config) RefreshEnabled() bool {
	return c.RefreshCron != "" && !strings.EqualFold(c.RefreshCron, "off")
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate reports every setting that would prevent the bot from running.
// The bot token is checked separately by callers that connect.
func (c *Config) Validate() error {
	var problems []string

	if c.ChannelID == "" {
		problems = append(problems, "channel_id (or "+EnvChannelID+") is required")
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := calendar.ParseHexColor(c.HighlightColor); err != nil {
		problems = append(problems, err.Error())
	}
	if c.RefreshEnabled() {
		if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
			problems = append(problems, fmt.Sprintf("refresh %q: %v", c.RefreshCron, err))
		}
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "") != (c.BasicAuth.Password == "") {
		problems = append(problems, "basic_auth needs both username and password")
	}

	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and defaults are normalized.
//
// Environment overrides are not applied here; see ApplyEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o600)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
