// Package config loads and validates the daemon's startup configuration
// (SPEC_FULL.md §4.8). Configuration is loaded once, before any other
// component starts; a validation failure is a fatal startup error per
// spec.md §7. There is no hot-reload (an explicit Non-goal) — only the
// TLS server certificate itself is watched for rotation, by
// internal/transport, which is a distinct transport concern.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/ims-sentinel/sentineld/internal/model"
)

// UnitConfig describes one monitored unit to register at startup.
type UnitConfig struct {
	ID       string `yaml:"id" validate:"required,max=31"`
	VibPin   int    `yaml:"vib_pin" validate:"min=0"`
	SoundPin int    `yaml:"sound_pin" validate:"min=0"`
	TempPin  int    `yaml:"temp_pin" validate:"min=0"`
}

// ThresholdConfig mirrors model.ThresholdTable as a validated,
// YAML-serializable record (spec.md §9's "hoist magic numbers" note).
// Each Crit field must exceed its Warn counterpart.
type ThresholdConfig struct {
	VibWarn float64 `yaml:"vib_warn" validate:"required"`
	VibCrit float64 `yaml:"vib_crit" validate:"required,gtfield=VibWarn"`
	SndWarn float64 `yaml:"snd_warn" validate:"required"`
	SndCrit float64 `yaml:"snd_crit" validate:"required,gtfield=SndWarn"`
	CurWarn float64 `yaml:"cur_warn" validate:"required"`
	CurCrit float64 `yaml:"cur_crit" validate:"required,gtfield=CurWarn"`
	TmpWarn float64 `yaml:"tmp_warn" validate:"required"`
	TmpCrit float64 `yaml:"tmp_crit" validate:"required,gtfield=TmpWarn"`
}

// ToTable converts to the evaluator's in-memory representation.
func (t ThresholdConfig) ToTable() model.ThresholdTable {
	return model.ThresholdTable{
		VibWarn: t.VibWarn, VibCrit: t.VibCrit,
		SndWarn: t.SndWarn, SndCrit: t.SndCrit,
		CurWarn: t.CurWarn, CurCrit: t.CurCrit,
		TmpWarn: t.TmpWarn, TmpCrit: t.TmpCrit,
	}
}

// RateLimitConfig bounds per-session command throughput (SPEC_FULL.md §4.5).
type RateLimitConfig struct {
	CommandsPerSecond float64 `yaml:"commands_per_second" validate:"required,gt=0"`
	Burst             int     `yaml:"burst" validate:"required,gt=0"`
}

// TLSConfig names the mTLS material TransportGate binds to.
type TLSConfig struct {
	ServerCertPath string `yaml:"server_cert_path" validate:"required"`
	ServerKeyPath  string `yaml:"server_key_path" validate:"required"`
	CACertPath     string `yaml:"ca_cert_path" validate:"required"`
}

// AdminAPIConfig configures the secondary HTTP surface (SPEC_FULL.md §4.10).
type AdminAPIConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddr    string `yaml:"listen_addr"`
	Port          int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	JWTSecret     string `yaml:"jwt_secret"`
	PassphraseSHA string `yaml:"passphrase_bcrypt_hash"`
}

// Config is the daemon's validated startup configuration.
type Config struct {
	ListenAddr       string          `yaml:"listen_addr" validate:"required"`
	Port             int             `yaml:"port" validate:"required,min=1,max=65535"`
	RegistryCapacity int             `yaml:"registry_capacity" validate:"required,min=1,max=64"`
	AuditLogPath     string          `yaml:"audit_log_path" validate:"required"`
	Verbose          bool            `yaml:"verbose"`

	TLS        TLSConfig       `yaml:"tls" validate:"required"`
	Thresholds ThresholdConfig `yaml:"thresholds" validate:"required"`
	RateLimit  RateLimitConfig `yaml:"rate_limit" validate:"required"`
	AdminAPI   AdminAPIConfig  `yaml:"admin_api"`

	Units []UnitConfig `yaml:"units" validate:"dive"`
}

// Default returns the conventional defaults named throughout spec.md §4-6.
func Default() Config {
	return Config{
		ListenAddr:       "0.0.0.0",
		Port:             8080,
		RegistryCapacity: 8,
		AuditLogPath:     "blackbox.log",
		TLS: TLSConfig{
			ServerCertPath: "certs/server.crt",
			ServerKeyPath:  "certs/server.key",
			CACertPath:     "certs/ca.crt",
		},
		Thresholds: ThresholdConfig{
			VibWarn: 100, VibCrit: 200,
			SndWarn: 50, SndCrit: 80,
			CurWarn: 12.0, CurCrit: 15.0,
			TmpWarn: 65.0, TmpCrit: 80.0,
		},
		RateLimit: RateLimitConfig{
			CommandsPerSecond: 20,
			Burst:             40,
		},
		AdminAPI: AdminAPIConfig{
			Enabled:    true,
			ListenAddr: "0.0.0.0",
			Port:       8090,
		},
	}
}

// envOverrides are applied after YAML parsing, before validation, so
// secrets never need to live in the config file on disk.
const (
	envAdminJWTSecret = "SENTINEL_ADMIN_JWT_SECRET"
	envAdminPassHash  = "SENTINEL_ADMIN_PASSPHRASE_HASH"
)

// Load reads path, applies environment overrides, and validates the
// result. Any failure here is a fatal startup error (spec.md §7).
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if v := os.Getenv(envAdminJWTSecret); v != "" {
		cfg.AdminAPI.JWTSecret = v
	}
	if v := os.Getenv(envAdminPassHash); v != "" {
		cfg.AdminAPI.PassphraseSHA = v
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate runs struct-tag validation over cfg, including the
// warn-less-than-crit ordering for every threshold pair.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Units))
	for _, u := range cfg.Units {
		if seen[u.ID] {
			return fmt.Errorf("config: duplicate unit id %q", u.ID)
		}
		seen[u.ID] = true
	}
	return nil
}
