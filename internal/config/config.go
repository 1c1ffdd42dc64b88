package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultProgramID is the derivation namespace used when none is configured.
const DefaultProgramID = "GMDA6SqHUFzctniBczeBSsoLEfd3HaW161wwyAms2buL"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	ProgramID string
	Ledger    string
	Out       string
	PgDSN     string
	Authority string
	LogLevel  string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("program-id", DefaultProgramID)
	v.SetDefault("ledger", "./data/ledger.json")
	v.SetDefault("out", "./data/transfers.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ProgramID: v.GetString("program-id"),
		Ledger:    v.GetString("ledger"),
		Out:       v.GetString("out"),
		PgDSN:     v.GetString("pg-dsn"),
		Authority: v.GetString("authority"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}
