package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
)

// Settings is the static configuration of a monitoring run. It is loaded
// once before monitoring starts and never mutated afterwards.
type Settings struct {
	APIID   int    `koanf:"api_id"`
	APIHash string `koanf:"api_hash"`

	BotToken  string   `koanf:"bot_token"`
	AdminIDs  []int64  `koanf:"admin_ids"`
	Keywords  []string `koanf:"keywords"`
	StopWords []string `koanf:"stop_words"`
	Watchlist []int64  `koanf:"watchlist"`

	// BotAPIURL is the Bot API base used for notifications. Overridable for
	// tests and local Bot API servers.
	BotAPIURL string `koanf:"bot_api_url"`

	AccountsFile string `koanf:"accounts_file"`
	SeenFile     string `koanf:"seen_file"`
	LogLevel     string `koanf:"log_level"`
}

const envPrefix = "KEYWATCH_"

// Load reads settings from the given yaml or json file, applies KEYWATCH_*
// environment overrides, and normalizes the word lists to lower case so the
// filter can compare without folding per message.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	var parser koanf.Parser
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Environment variables override file values.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	var cfg Settings
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.BotAPIURL == "" {
		cfg.BotAPIURL = "https://api.telegram.org"
	}
	if cfg.AccountsFile == "" {
		cfg.AccountsFile = "accounts.json"
	}
	if cfg.SeenFile == "" {
		cfg.SeenFile = "seen_users.json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	fold := func(s string, _ int) string { return strings.ToLower(s) }
	cfg.Keywords = lo.Map(cfg.Keywords, fold)
	cfg.StopWords = lo.Map(cfg.StopWords, fold)
	cfg.AdminIDs = lo.Uniq(cfg.AdminIDs)
	cfg.Watchlist = lo.Uniq(cfg.Watchlist)

	return &cfg, nil
}

// Validate checks the minimum surface needed to start monitoring.
func (s *Settings) Validate() error {
	switch {
	case s.BotToken == "":
		return errors.New("bot_token is not set")
	case len(s.AdminIDs) == 0:
		return errors.New("admin_ids is empty")
	case s.APIID == 0:
		return errors.New("api_id is not set")
	case s.APIHash == "":
		return errors.New("api_hash is not set")
	}
	return nil
}
