package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "LEAD_WATCHER_CONFIG"
	workbookPathEnv   = "LEADS_WORKBOOK"
	slackTokenEnv     = "SLACK_BOT_TOKEN"
	slackChannelEnv   = "SLACK_CHANNEL_ID"
	smtpHostEnv       = "SMTP_HOST"
	smtpUsernameEnv   = "SMTP_USERNAME"
	smtpPasswordEnv   = "SMTP_PASSWORD"
	mailReplyToEnv    = "MAIL_REPLY_TO"
	defaultLeadsSheet = "Leads"
	defaultErrorSheet = "Error Log"
)

// Config holds high-level settings required across the application.
type Config struct {
	Workbook      WorkbookConfig     `yaml:"workbook"`
	Notifications NotificationConfig `yaml:"notifications"`
	Mail          MailConfig         `yaml:"mail"`
	Dedupe        DedupeConfig       `yaml:"dedupe"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// WorkbookConfig locates the xlsx file and names its sheets.
type WorkbookConfig struct {
	Path       string `yaml:"path"`
	LeadsSheet string `yaml:"leadsSheet"`
	ErrorSheet string `yaml:"errorSheet"`
	// DebounceMs is how long the watcher waits after a file event before
	// re-reading the sheet; editors tend to save in bursts.
	DebounceMs int `yaml:"debounceMs"`
	// URL, when set, is attached to team notifications as a link button.
	URL string `yaml:"url"`
}

// NotificationConfig encapsulates the outbound team channel.
type NotificationConfig struct {
	Slack SlackConfig `yaml:"slack"`
}

// SlackConfig wires all data required to post chat messages.
type SlackConfig struct {
	BotToken  string `yaml:"botToken"`
	ChannelID string `yaml:"channelId"`
}

// MailConfig describes the SMTP acknowledgement channel.
type MailConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"senderName"`
	ReplyTo    string `yaml:"replyTo"`
}

// DedupeConfig names the availability-over-consistency policy choice: when
// FailClosed is false a failed duplicate scan treats the lead as new.
type DedupeConfig struct {
	FailClosed bool `yaml:"failClosed"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(workbookPathEnv); v != "" {
		c.Workbook.Path = v
	}
	if v := os.Getenv(slackTokenEnv); v != "" {
		c.Notifications.Slack.BotToken = v
	}
	if v := os.Getenv(slackChannelEnv); v != "" {
		c.Notifications.Slack.ChannelID = v
	}
	if v := os.Getenv(smtpHostEnv); v != "" {
		c.Mail.Host = v
	}
	if v := os.Getenv(smtpUsernameEnv); v != "" {
		c.Mail.Username = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv(mailReplyToEnv); v != "" {
		c.Mail.ReplyTo = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Workbook.Path != "" {
		base.Workbook.Path = override.Workbook.Path
	}
	if override.Workbook.LeadsSheet != "" {
		base.Workbook.LeadsSheet = override.Workbook.LeadsSheet
	}
	if override.Workbook.ErrorSheet != "" {
		base.Workbook.ErrorSheet = override.Workbook.ErrorSheet
	}
	if override.Workbook.DebounceMs > 0 {
		base.Workbook.DebounceMs = override.Workbook.DebounceMs
	}
	if override.Workbook.URL != "" {
		base.Workbook.URL = override.Workbook.URL
	}

	if override.Notifications.Slack.BotToken != "" {
		base.Notifications.Slack.BotToken = override.Notifications.Slack.BotToken
	}
	if override.Notifications.Slack.ChannelID != "" {
		base.Notifications.Slack.ChannelID = override.Notifications.Slack.ChannelID
	}

	if override.Mail.Host != "" {
		base.Mail.Host = override.Mail.Host
	}
	if override.Mail.Port > 0 {
		base.Mail.Port = override.Mail.Port
	}
	if override.Mail.Username != "" {
		base.Mail.Username = override.Mail.Username
	}
	if override.Mail.Password != "" {
		base.Mail.Password = override.Mail.Password
	}
	if override.Mail.SenderName != "" {
		base.Mail.SenderName = override.Mail.SenderName
	}
	if override.Mail.ReplyTo != "" {
		base.Mail.ReplyTo = override.Mail.ReplyTo
	}

	if override.Dedupe.FailClosed {
		base.Dedupe.FailClosed = true
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Workbook: WorkbookConfig{
			Path:       "leads.xlsx",
			LeadsSheet: defaultLeadsSheet,
			ErrorSheet: defaultErrorSheet,
			DebounceMs: 250,
		},
		Mail: MailConfig{
			Port:       587,
			SenderName: "Sales Team",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
