package dhamma

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dhammagenesis/gacha/dhamma/database"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	if err = cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// validate rejects configurations the server cannot start with. The CORS
// middleware runs with credentials enabled, which Fiber refuses to combine
// with a wildcard origin, so an explicit origin list is required.
func (c *Config) validate() error {
	if len(c.Web.CORSOrigins) == 0 {
		return fmt.Errorf("web.cors_origins must list at least one origin")
	}
	for _, origin := range c.Web.CORSOrigins {
		if origin == "" || origin == "*" {
			return fmt.Errorf("web.cors_origins entry %q not allowed with credentialed CORS", origin)
		}
	}
	return nil
}

type Config struct {
	Log       LogConfig         `toml:"log"`
	Web       WebConfig         `toml:"web"`
	DB        database.DBConfig `toml:"db"`
	Line      LineConfig        `toml:"line"`
	EasySlip  EasySlipConfig    `toml:"easyslip"`
	PromptPay PromptPayConfig   `toml:"promptpay"`
	Spaces    SpacesConfig      `toml:"spaces"`
	Mongo     MongoConfig       `toml:"mongo"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type WebConfig struct {
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	CORSOrigins   []string `toml:"cors_origins"`
	SessionSecret string   `toml:"session_secret"`
	// AdminIDs may act on any account: mint cards, set balances.
	AdminIDs []string `toml:"admin_ids"`
}

// LineConfig carries the LINE Login OAuth credentials. Empty ChannelID
// disables LINE login; the server then only issues guest sessions.
type LineConfig struct {
	ChannelID     string `toml:"channel_id"`
	ChannelSecret string `toml:"channel_secret"`
	RedirectURL   string `toml:"redirect_url"`
}

// EasySlipConfig points at the bank-slip verification API.
type EasySlipConfig struct {
	Endpoint string `toml:"endpoint"`
	Token    string `toml:"token"`
}

// PromptPayConfig identifies the merchant account QR codes pay into.
type PromptPayConfig struct {
	MerchantID string `toml:"merchant_id"`
}

type SpacesConfig struct {
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	SlipRoot string `toml:"sliproot"`
}

// MongoConfig is only used by the legacy import tool.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}
