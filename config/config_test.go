package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TWITCH_IRC_ADDR", "")
	t.Setenv("CHAT_LOG_PATH", "")
	t.Setenv("DATA_DIR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.TwitchIRCAddr != "irc.chat.twitch.tv:6667" {
		t.Errorf("unexpected default irc addr: %q", cfg.TwitchIRCAddr)
	}
	if cfg.DataDir != "data" {
		t.Errorf("unexpected default data dir: %q", cfg.DataDir)
	}
	if cfg.ChatLogPath == "" {
		t.Errorf("expected default chat log path, got empty")
	}
}

func TestChatLogPathFollowsDataDir(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/lib/chatlogd")
	t.Setenv("CHAT_LOG_PATH", "")
	cfg, _ := Load()
	if cfg.ChatLogPath != "/var/lib/chatlogd/chat.log" {
		t.Errorf("ChatLogPath = %q, want it under DATA_DIR", cfg.ChatLogPath)
	}
}

func TestValidateIngestReady(t *testing.T) {
	t.Setenv("TWITCH_CHANNEL", "chan")
	t.Setenv("TWITCH_BOT_USERNAME", "bot")
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:token")
	cfg, _ := Load()
	if err := cfg.ValidateIngestReady(); err != nil {
		t.Errorf("expected valid ingest config, got %v", err)
	}
	if err := os.Unsetenv("TWITCH_CHANNEL"); err != nil {
		t.Fatalf("failed to unset TWITCH_CHANNEL: %v", err)
	}
	cfg, _ = Load()
	if err := cfg.ValidateIngestReady(); err == nil {
		t.Errorf("expected error when missing twitch envs")
	}
}
