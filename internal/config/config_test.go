package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abelikov/keywatch/internal/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
api_id: 12345
api_hash: "abcdef0123456789"
bot_token: "123:token"
admin_ids: [1, 2, 2]
keywords: ["Crypto", "AIRDROP"]
stop_words: ["GiveAway"]
watchlist: [42]
log_level: debug
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIID != 12345 {
		t.Errorf("APIID = %d, want 12345", cfg.APIID)
	}
	if cfg.APIHash != "abcdef0123456789" {
		t.Errorf("APIHash = %q", cfg.APIHash)
	}
	if got := cfg.Keywords; len(got) != 2 || got[0] != "crypto" || got[1] != "airdrop" {
		t.Errorf("Keywords = %v, want lower-cased", got)
	}
	if got := cfg.StopWords; len(got) != 1 || got[0] != "giveaway" {
		t.Errorf("StopWords = %v, want lower-cased", got)
	}
	if len(cfg.AdminIDs) != 2 {
		t.Errorf("AdminIDs = %v, want duplicates collapsed", cfg.AdminIDs)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
api_id: 1
api_hash: "h"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotAPIURL != "https://api.telegram.org" {
		t.Errorf("BotAPIURL = %q", cfg.BotAPIURL)
	}
	if cfg.AccountsFile != "accounts.json" {
		t.Errorf("AccountsFile = %q", cfg.AccountsFile)
	}
	if cfg.SeenFile != "seen_users.json" {
		t.Errorf("SeenFile = %q", cfg.SeenFile)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"api_id": 9, "api_hash": "h", "keywords": ["X"]}`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIID != 9 {
		t.Errorf("APIID = %d, want 9", cfg.APIID)
	}
	if len(cfg.Keywords) != 1 || cfg.Keywords[0] != "x" {
		t.Errorf("Keywords = %v", cfg.Keywords)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
api_id: 1
api_hash: "h"
bot_token: "from-file"
`)
	t.Setenv("KEYWATCH_BOT_TOKEN", "from-env")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BotToken != "from-env" {
		t.Errorf("BotToken = %q, want env override", cfg.BotToken)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "config.ini", "api_id=1")
	if _, err := config.Load(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Settings
	}{
		{"missing bot token", config.Settings{AdminIDs: []int64{1}, APIID: 1, APIHash: "h"}},
		{"missing admins", config.Settings{BotToken: "t", APIID: 1, APIHash: "h"}},
		{"missing api id", config.Settings{BotToken: "t", AdminIDs: []int64{1}, APIHash: "h"}},
		{"missing api hash", config.Settings{BotToken: "t", AdminIDs: []int64{1}, APIID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
