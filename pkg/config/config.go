package config

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Credentials struct {
		Backend string `env:"CRED_BACKEND" env-default:"file"`
		Path    string `env:"CRED_PATH" env-default:"./credentials.json"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Telegram struct {
		// Chats the bot should consider for listing, comma-separated ids.
		Chats string `env:"TELEGRAM_CHATS"`
		// Chat uploads are staged through before being attached to a post.
		StagingChat int64 `env:"TELEGRAM_STAGING_CHAT"`
	}
	Vk struct {
		ApiVersion   string `env:"VK_API_VERSION" env-default:"5.131"`
		ClientID     string `env:"VK_CLIENT_ID" env-default:"3140623"`
		ClientSecret string `env:"VK_CLIENT_SECRET" env-default:"VeWdmVclDCtn6ihuP1nt"`
	}
	Captcha struct {
		Key string `env:"RUCAPTCHA_KEY"`
	}
}

// GetDSN builds the postgres connection string for database/sql consumers.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass,
		c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode,
	)
}

// TelegramChatIDs returns the configured chat list split and trimmed.
func (c *Config) TelegramChatIDs() []string {
	if c.Telegram.Chats == "" {
		return nil
	}
	parts := strings.Split(c.Telegram.Chats, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}
