package config

import (
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HassCfg  *HassConfig
	SberCfg  *SberConfig
	StoreCfg *StoreConfig
	LogLevel string
	Version  string
}

type HassConfig struct {
	URL                string
	Token              string
	InsecureSkipVerify bool
	RetryDelay         time.Duration
	KeepaliveInterval  time.Duration
	PingInterval       time.Duration
	// IgnorePrefixes suppresses state_changed events of matching entity ids.
	IgnorePrefixes []string
}

type SberConfig struct {
	Broker             string
	Login              string
	Password           string
	InsecureSkipVerify bool
	PublishTimeout     time.Duration
}

// StoreConfig locates the files the bridge keeps between restarts and the
// domain → variant table. Relative paths are resolved against DataDir.
type StoreConfig struct {
	DataDir        string            `env:"SBER_DATA_DIR" envDefault:"."`
	PlacementsFile string            `env:"SBER_PLACEMENTS_FILE" envDefault:"store_placements.json"`
	EnabledFile    string            `env:"SBER_ENABLED_FILE" envDefault:"enabled_entities.json"`
	OptionsFile    string            `env:"SBER_OPTIONS_FILE" envDefault:"options.json"`
	CategoriesFile string            `env:"SBER_CATEGORIES_FILE"`
	TypedDomains   map[string]string `env:"SBER_TYPED_DOMAINS" envSeparator:"," envKeyValSeparator:":"`
}

func LoadStore() (*StoreConfig, error) {
	cfg := &StoreConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path resolves name against DataDir. Empty names stay empty.
func (c *StoreConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
