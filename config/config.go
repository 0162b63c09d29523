package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"passage/crypto"
)

// Config is the node configuration stored as TOML.
type Config struct {
	ChainID           string    `toml:"ChainID"`
	AddressPrefix     string    `toml:"AddressPrefix"`
	DataDir           string    `toml:"DataDir"`
	Backend           string    `toml:"Backend"`
	GenesisFile       string    `toml:"GenesisFile"`
	ContractAddress   string    `toml:"ContractAddress"`
	BlockedRecipients []string  `toml:"BlockedRecipients"`
	KeystorePath      string    `toml:"KeystorePath"`
	Gateway           Gateway   `toml:"gateway"`
	Telemetry         Telemetry `toml:"telemetry"`
	Log               Log       `toml:"log"`
}

// Gateway configures the HTTP gateway.
type Gateway struct {
	ListenAddress      string  `toml:"ListenAddress"`
	ReadTimeoutSecs    int     `toml:"ReadTimeoutSecs"`
	WriteTimeoutSecs   int     `toml:"WriteTimeoutSecs"`
	RateLimitPerSecond float64 `toml:"RateLimitPerSecond"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`
	JWT                JWT     `toml:"jwt"`
}

// JWT configures bearer authentication for mutating gateway routes. The HMAC
// secret is read from SecretEnv so it never lands in the config file.
type JWT struct {
	Enable    bool   `toml:"Enable"`
	Issuer    string `toml:"Issuer"`
	Audience  string `toml:"Audience"`
	SecretEnv string `toml:"SecretEnv"`
}

// Telemetry configures OTLP exporters.
type Telemetry struct {
	ServiceName string  `toml:"ServiceName"`
	Environment string  `toml:"Environment"`
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// Log configures structured logging and the optional rotated file sink.
type Log struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists. Missing optional values are defaulted.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		ChainID:           "passage-local",
		AddressPrefix:     string(crypto.PassagePrefix),
		DataDir:           "./passage-data",
		Backend:           "leveldb",
		GenesisFile:       "genesis.yaml",
		BlockedRecipients: []string{},
		Gateway: Gateway{
			ListenAddress:      "127.0.0.1:8090",
			ReadTimeoutSecs:    10,
			WriteTimeoutSecs:   10,
			RateLimitPerSecond: 20,
			RateLimitBurst:     40,
			JWT: JWT{
				Issuer:    "passage",
				Audience:  "passage-gateway",
				SecretEnv: "PASSAGE_JWT_SECRET",
			},
		},
		Telemetry: Telemetry{
			ServiceName: "passaged",
			Environment: "local",
			Endpoint:    "localhost:4318",
			SampleRatio: 1,
		},
		Log: Log{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if strings.TrimSpace(cfg.ChainID) == "" {
		cfg.ChainID = def.ChainID
	}
	if strings.TrimSpace(cfg.AddressPrefix) == "" {
		cfg.AddressPrefix = def.AddressPrefix
	}
	if strings.TrimSpace(cfg.Backend) == "" {
		cfg.Backend = def.Backend
	}
	if cfg.BlockedRecipients == nil {
		cfg.BlockedRecipients = []string{}
	}
	if strings.TrimSpace(cfg.Gateway.ListenAddress) == "" {
		cfg.Gateway.ListenAddress = def.Gateway.ListenAddress
	}
	if cfg.Gateway.ReadTimeoutSecs == 0 {
		cfg.Gateway.ReadTimeoutSecs = def.Gateway.ReadTimeoutSecs
	}
	if cfg.Gateway.WriteTimeoutSecs == 0 {
		cfg.Gateway.WriteTimeoutSecs = def.Gateway.WriteTimeoutSecs
	}
	if strings.TrimSpace(cfg.Telemetry.ServiceName) == "" {
		cfg.Telemetry.ServiceName = def.Telemetry.ServiceName
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = def.Log.Level
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as TOML, creating the parent directory.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ResolvePath interprets p relative to the config file's directory.
func ResolvePath(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}
